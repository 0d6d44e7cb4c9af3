package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"indhive.org/internal/obs"
)

const (
	defaultIssuer = "indhive"

	// defaultTokenTTL is the fixed token lifetime. Expiry is checked against
	// the verifier's wall clock with no leeway window.
	defaultTokenTTL = 24 * time.Hour

	// minSecretLen is the minimum signing secret length in bytes. A shorter
	// secret is a fatal configuration error caught at construction, before
	// the process starts serving.
	minSecretLen = 32
)

// ErrSecretTooShort aborts startup when the configured signing secret is
// missing or shorter than minSecretLen bytes.
var ErrSecretTooShort = fmt.Errorf("auth: signing secret must be at least %d bytes", minSecretLen)

// Claims are the JWT claims embedded in issued tokens. Roles travel as
// comma-joined ROLE_ tags so the wire format stays a flat string claim.
type Claims struct {
	Roles string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenCodec issues and verifies signed bearer tokens. The signing key is
// read-only after construction and safe for concurrent use.
type TokenCodec struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// CodecOption configures a TokenCodec.
type CodecOption func(*TokenCodec)

// WithIssuer overrides the iss claim.
func WithIssuer(issuer string) CodecOption {
	return func(c *TokenCodec) {
		if iss := strings.TrimSpace(issuer); iss != "" {
			c.issuer = iss
		}
	}
}

// WithTokenTTL overrides the token lifetime.
func WithTokenTTL(ttl time.Duration) CodecOption {
	return func(c *TokenCodec) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithCodecClock overrides the time source (useful for tests).
func WithCodecClock(fn func() time.Time) CodecOption {
	return func(c *TokenCodec) {
		if fn != nil {
			c.now = fn
		}
	}
}

// NewTokenCodec validates the signing secret and builds a codec.
func NewTokenCodec(secret string, opts ...CodecOption) (*TokenCodec, error) {
	secret = strings.TrimSpace(secret)
	if len(secret) < minSecretLen {
		return nil, ErrSecretTooShort
	}
	c := &TokenCodec{
		secret: []byte(secret),
		issuer: defaultIssuer,
		ttl:    defaultTokenTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// TTL returns the configured token lifetime.
func (c *TokenCodec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a token for the subject carrying the normalized role set.
// An empty role set is embedded as-is; the ROLE_USER default belongs to
// registration, not to the codec.
func (c *TokenCodec) Issue(subject string, roles RoleSet) (string, time.Time, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", time.Time{}, errors.New("auth: token subject is required")
	}
	now := c.now().UTC()
	expiresAt := now.Add(c.ttl)
	claims := Claims{
		Roles: roles.Join(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Subject verifies the token and returns its subject claim.
func (c *TokenCodec) Subject(token string) (string, error) {
	claims, err := c.decode(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// Roles verifies the token and returns its embedded role set.
func (c *TokenCodec) Roles(token string) (RoleSet, error) {
	claims, err := c.decode(token)
	if err != nil {
		return RoleSet{}, err
	}
	return ParseRoles(claims.Roles), nil
}

// Validate reports whether the signature verifies and the token has not
// expired. Side-effect free.
func (c *TokenCodec) Validate(token string) bool {
	_, err := c.decode(token)
	return err == nil
}

// decode parses and verifies a token. Expired and malformed/forged tokens
// surface as the same ErrUnauthenticated to callers; the distinction is kept
// only for the rejection metric.
func (c *TokenCodec) decode(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrUnauthenticated
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrUnauthenticated
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return c.now().UTC() }))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			obs.TokenRejected("expired")
		} else {
			obs.TokenRejected("malformed")
		}
		return nil, ErrUnauthenticated
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		obs.TokenRejected("malformed")
		return nil, ErrUnauthenticated
	}
	if claims.Issuer != c.issuer || strings.TrimSpace(claims.Subject) == "" {
		obs.TokenRejected("malformed")
		return nil, ErrUnauthenticated
	}
	return claims, nil
}
