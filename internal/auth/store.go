package auth

import (
	"context"
	"time"
)

// User is an account. Email is the canonical, lower-cased authentication
// identifier; Username is a display attribute and never authenticates.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Roles        RoleSet
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserStore is the credential-store boundary owned by the persistence layer.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	List(ctx context.Context) ([]*User, error)
	// Update persists username and roles. Password changes go through
	// UpdatePassword; email is immutable (it is the identity key).
	Update(ctx context.Context, u *User) error
	UpdatePassword(ctx context.Context, email, passwordHash string) error
	Delete(ctx context.Context, email string) error
}

// RevocationStore is the durable ledger of explicitly invalidated tokens,
// keyed by the raw token string. Two tokens for the same subject are distinct
// keys; revocation is per issued token, never per subject.
type RevocationStore interface {
	// Revoke records the token as invalid. Idempotent: revoking an
	// already-revoked token is a no-op, not an error.
	Revoke(ctx context.Context, token string, at time.Time) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}
