package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestNewTokenCodecRejectsShortSecret(t *testing.T) {
	for _, secret := range []string{"", "short", strings.Repeat("x", 31)} {
		if _, err := NewTokenCodec(secret); !errors.Is(err, ErrSecretTooShort) {
			t.Fatalf("secret %q: expected ErrSecretTooShort, got %v", secret, err)
		}
	}
	if _, err := NewTokenCodec(strings.Repeat("x", 32)); err != nil {
		t.Fatalf("32-byte secret rejected: %v", err)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	codec, err := NewTokenCodec(testSecret)
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	roles := NewRoleSet("ADMIN", "CREATOR")
	token, expiresAt, err := codec.Issue("alice@example.com", roles)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expected future expiry, got %v", expiresAt)
	}

	subject, err := codec.Subject(token)
	if err != nil {
		t.Fatalf("Subject: %v", err)
	}
	if subject != "alice@example.com" {
		t.Fatalf("unexpected subject: %s", subject)
	}
	got, err := codec.Roles(token)
	if err != nil {
		t.Fatalf("Roles: %v", err)
	}
	if !got.Has("ROLE_ADMIN") || !got.Has("ROLE_CREATOR") || got.Len() != 2 {
		t.Fatalf("roles not preserved: %v", got.Tags())
	}
	if !codec.Validate(token) {
		t.Fatal("expected valid token")
	}
}

func TestIssueRequiresSubject(t *testing.T) {
	codec, err := NewTokenCodec(testSecret)
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	if _, _, err := codec.Issue("  ", NewRoleSet("USER")); err == nil {
		t.Fatal("expected error for empty subject")
	}
}

func TestIssueEmptyRoles(t *testing.T) {
	codec, err := NewTokenCodec(testSecret)
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	// The codec embeds an empty set as-is; the ROLE_USER default belongs
	// to registration.
	token, _, err := codec.Issue("alice@example.com", RoleSet{})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	roles, err := codec.Roles(token)
	if err != nil {
		t.Fatalf("Roles: %v", err)
	}
	if !roles.Empty() {
		t.Fatalf("expected empty role set, got %v", roles.Tags())
	}
}

func TestValidateExpiredToken(t *testing.T) {
	current := time.Now()
	codec, err := NewTokenCodec(testSecret, WithCodecClock(func() time.Time { return current }))
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	token, _, err := codec.Issue("alice@example.com", NewRoleSet("USER"))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !codec.Validate(token) {
		t.Fatal("token should be valid before expiry")
	}

	current = current.Add(25 * time.Hour)
	if codec.Validate(token) {
		t.Fatal("token should be invalid after 24h lifetime")
	}
	if _, err := codec.Subject(token); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for expired token, got %v", err)
	}
}

func TestValidateForgedToken(t *testing.T) {
	codec, err := NewTokenCodec(testSecret)
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	other, err := NewTokenCodec(strings.Repeat("y", 32))
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	forged, _, err := other.Issue("alice@example.com", NewRoleSet("ADMIN"))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if codec.Validate(forged) {
		t.Fatal("token signed with a different secret must not validate")
	}
	if _, err := codec.Subject("not.a.token"); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for garbage, got %v", err)
	}
	if codec.Validate("") {
		t.Fatal("empty token must not validate")
	}
}

func TestCustomTTL(t *testing.T) {
	current := time.Now()
	codec, err := NewTokenCodec(testSecret,
		WithTokenTTL(time.Minute),
		WithCodecClock(func() time.Time { return current }),
	)
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	token, expiresAt, err := codec.Issue("alice@example.com", NewRoleSet("USER"))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if want := current.UTC().Add(time.Minute); !expiresAt.Equal(want) {
		t.Fatalf("expiry = %v, want %v", expiresAt, want)
	}
	current = current.Add(2 * time.Minute)
	if codec.Validate(token) {
		t.Fatal("token should expire after configured TTL")
	}
}
