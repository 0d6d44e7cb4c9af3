package auth

import (
	"context"
	"errors"
	"testing"
)

func TestChangePasswordRequiresCurrent(t *testing.T) {
	svc, _, _ := newTestService(t)
	register(t, svc, "alice", "alice@example.com", "secret123", RoleSet{})

	if err := svc.ChangePassword(context.Background(), "alice@example.com", "wrongpass", "newpass456"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	// The stored hash is untouched after a rejected change.
	if _, _, err := svc.Login(context.Background(), "alice@example.com", "secret123"); err != nil {
		t.Fatalf("login with unchanged password: %v", err)
	}
}

func TestChangePasswordFlow(t *testing.T) {
	svc, _, _ := newTestService(t)
	register(t, svc, "alice", "alice@example.com", "secret123", RoleSet{})
	token, _, err := svc.Login(context.Background(), "alice@example.com", "secret123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := svc.ChangePassword(context.Background(), "alice@example.com", "secret123", "newpass456"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}

	if _, _, err := svc.Login(context.Background(), "alice@example.com", "secret123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password should be rejected, got %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "alice@example.com", "newpass456"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	// No token is consumed by a password change; the session stays valid.
	if _, err := svc.Authenticate(context.Background(), token); err != nil {
		t.Fatalf("existing session should survive password change: %v", err)
	}
}

func TestChangePasswordRejectsEmptyNew(t *testing.T) {
	svc, _, _ := newTestService(t)
	register(t, svc, "alice", "alice@example.com", "secret123", RoleSet{})
	if err := svc.ChangePassword(context.Background(), "alice@example.com", "secret123", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestPromoteCreator(t *testing.T) {
	svc, _, _ := newTestService(t)
	register(t, svc, "alice", "alice@example.com", "secret123", RoleSet{})
	token, _, err := svc.Login(context.Background(), "alice@example.com", "secret123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	user, err := svc.PromoteCreator(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("PromoteCreator: %v", err)
	}
	if !user.Roles.Has(RoleCreator) || !user.Roles.Has(RoleUser) {
		t.Fatalf("unexpected roles: %v", user.Roles.Tags())
	}

	// Idempotent: promoting again does not duplicate the tag.
	user, err = svc.PromoteCreator(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("second PromoteCreator: %v", err)
	}
	if user.Roles.Len() != 2 {
		t.Fatalf("expected 2 roles, got %v", user.Roles.Tags())
	}

	// The current token still carries the old role set; refresh picks up
	// ROLE_CREATOR.
	principal, err := svc.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if principal.HasRole(RoleCreator) {
		t.Fatal("promotion must not take effect mid-token")
	}
	fresh, _, err := svc.Refresh(context.Background(), principal)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	refreshed, err := svc.Authenticate(context.Background(), fresh)
	if err != nil {
		t.Fatalf("Authenticate refreshed: %v", err)
	}
	if !refreshed.HasRole(RoleCreator) {
		t.Fatalf("refresh should carry ROLE_CREATOR, got %v", refreshed.Roles.Tags())
	}
}

func TestUpdateProfile(t *testing.T) {
	svc, _, _ := newTestService(t)
	register(t, svc, "alice", "alice@example.com", "secret123", RoleSet{})
	register(t, svc, "bob", "bob@example.com", "secret123", RoleSet{})

	user, err := svc.UpdateProfile(context.Background(), "alice@example.com", "alice-renamed")
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if user.Username != "alice-renamed" {
		t.Fatalf("unexpected username: %s", user.Username)
	}
	if user.PasswordHash != "" {
		t.Fatal("returned user must not carry the hash")
	}

	if _, err := svc.UpdateProfile(context.Background(), "alice@example.com", "bob"); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	if _, err := svc.UpdateProfile(context.Background(), "alice@example.com", "  "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	// Re-submitting the current username is not a collision.
	if _, err := svc.UpdateProfile(context.Background(), "alice@example.com", "alice-renamed"); err != nil {
		t.Fatalf("same-name update: %v", err)
	}
}

func TestListUsersClearsHashes(t *testing.T) {
	svc, _, _ := newTestService(t)
	register(t, svc, "alice", "alice@example.com", "secret123", RoleSet{})
	register(t, svc, "bob", "bob@example.com", "secret123", RoleSet{})

	users, err := svc.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	for _, u := range users {
		if u.PasswordHash != "" {
			t.Fatalf("user %s carries a hash", u.Email)
		}
	}
}

func TestDeleteUserInvalidatesSessions(t *testing.T) {
	svc, _, _ := newTestService(t)
	register(t, svc, "alice", "alice@example.com", "secret123", RoleSet{})
	token, _, err := svc.Login(context.Background(), "alice@example.com", "secret123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := svc.DeleteUser(context.Background(), "Alice@Example.com"); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if err := svc.DeleteUser(context.Background(), "alice@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), token); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("deleted user must be unauthenticated, got %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "alice@example.com", "secret123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("deleted user login must fail generically, got %v", err)
	}
}
