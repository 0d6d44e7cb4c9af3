package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"indhive.org/internal/obs"
)

// RecoveryMailer delivers password-recovery tokens. Delivery mechanics live
// behind this boundary; the service only decides when to send.
type RecoveryMailer interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}

// Service orchestrates credential verification, throttling, token issuance
// and the request-time authentication path.
type Service struct {
	users    UserStore
	revoked  RevocationStore
	codec    *TokenCodec
	throttle *LoginThrottle
	mailer   RecoveryMailer

	verify func(hash, password string) error
	now    func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service) error

// WithMailer sets the recovery mail sender. Without one, recovery tokens are
// issued but not delivered.
func WithMailer(m RecoveryMailer) ServiceOption {
	return func(s *Service) error {
		s.mailer = m
		return nil
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) error {
		if fn != nil {
			s.now = fn
		}
		return nil
	}
}

// WithVerifyFunc overrides password verification (useful for tests asserting
// that verification is never reached for a blocked identifier).
func WithVerifyFunc(fn func(hash, password string) error) ServiceOption {
	return func(s *Service) error {
		if fn != nil {
			s.verify = fn
		}
		return nil
	}
}

// NewService constructs the authenticator.
func NewService(users UserStore, revoked RevocationStore, codec *TokenCodec, throttle *LoginThrottle, opts ...ServiceOption) (*Service, error) {
	if users == nil || revoked == nil || codec == nil || throttle == nil {
		return nil, errors.New("auth: users, revoked, codec and throttle are required")
	}
	svc := &Service{
		users:    users,
		revoked:  revoked,
		codec:    codec,
		throttle: throttle,
		verify:   VerifyPassword,
		now:      time.Now,
	}
	for _, opt := range opts {
		if err := opt(svc); err != nil {
			return nil, err
		}
	}
	return svc, nil
}

// TokenTTL exposes the configured token lifetime for response payloads.
func (s *Service) TokenTTL() time.Duration {
	return s.codec.TTL()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account. Username and email must be unused. An empty
// role set defaults to ROLE_USER. The returned user never carries the hash.
func (s *Service) Register(ctx context.Context, username, email, password string, roles RoleSet) (*User, error) {
	username = strings.TrimSpace(username)
	email = normalizeEmail(email)
	if username == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", ErrInvalidInput)
	}
	taken, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return nil, fmt.Errorf("%w: username already in use", ErrAlreadyExists)
	}
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: email already in use", ErrAlreadyExists)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if roles.Empty() {
		roles = NewRoleSet(RoleUser)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Roles:        roles,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	out := *user
	out.PasswordHash = ""
	return &out, nil
}

// Login runs the fixed sequence throttle check, credential lookup, password
// verify, throttle update, token issuance. The order is a security property:
// a blocked identifier never reaches the credential store, and every failed
// verify is recorded before the call returns. Store I/O failures propagate
// as-is so operators can tell a wrong password from an unreachable database.
func (s *Service) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	email = normalizeEmail(email)
	if s.throttle.IsBlocked(email) {
		obs.LoginRecorded("throttled")
		return "", time.Time{}, ErrTooManyAttempts
	}
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		// Same outward signal as a wrong password; no user enumeration.
		obs.LoginRecorded("failure")
		return "", time.Time{}, ErrInvalidCredentials
	}
	if err != nil {
		obs.LoginRecorded("error")
		return "", time.Time{}, fmt.Errorf("find user: %w", err)
	}
	if err := s.verify(user.PasswordHash, password); err != nil {
		s.throttle.RecordFailure(email)
		obs.LoginRecorded("failure")
		return "", time.Time{}, ErrInvalidCredentials
	}
	s.throttle.RecordSuccess(email)
	token, expiresAt, err := s.codec.Issue(email, user.Roles)
	if err != nil {
		obs.LoginRecorded("error")
		return "", time.Time{}, fmt.Errorf("issue token: %w", err)
	}
	obs.LoginRecorded("success")
	return token, expiresAt, nil
}

// Authenticate resolves a bearer token into a Principal. Missing, revoked,
// malformed, forged and expired tokens all collapse into ErrUnauthenticated;
// only ledger and store I/O failures surface separately.
func (s *Service) Authenticate(ctx context.Context, token string) (Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Principal{}, ErrUnauthenticated
	}
	revoked, err := s.revoked.IsRevoked(ctx, token)
	if err != nil {
		return Principal{}, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return Principal{}, ErrUnauthenticated
	}
	subject, err := s.codec.Subject(token)
	if err != nil {
		return Principal{}, ErrUnauthenticated
	}
	roles, err := s.codec.Roles(token)
	if err != nil {
		return Principal{}, ErrUnauthenticated
	}
	// Reload the account so a deleted user is rejected immediately. Roles
	// stay as embedded in the token until the next refresh.
	user, err := s.users.FindByEmail(ctx, subject)
	if errors.Is(err, ErrNotFound) {
		return Principal{}, ErrUnauthenticated
	}
	if err != nil {
		return Principal{}, fmt.Errorf("load principal: %w", err)
	}
	return Principal{
		Email:    user.Email,
		Username: user.Username,
		Roles:    roles,
	}, nil
}

// Logout revokes the presented token. Revoking an already-revoked token is a
// no-op. Only the presented token is revoked, never the subject's others.
func (s *Service) Logout(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrMissingToken
	}
	if err := s.revoked.Revoke(ctx, token, s.now().UTC()); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// Refresh reissues a token for an authenticated principal with the roles
// currently stored on the account.
func (s *Service) Refresh(ctx context.Context, principal Principal) (string, time.Time, error) {
	user, err := s.users.FindByEmail(ctx, principal.Email)
	if errors.Is(err, ErrNotFound) {
		return "", time.Time{}, ErrNotFound
	}
	if err != nil {
		return "", time.Time{}, fmt.Errorf("find user: %w", err)
	}
	token, expiresAt, err := s.codec.Issue(user.Email, user.Roles)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("issue token: %w", err)
	}
	return token, expiresAt, nil
}

// Recover issues a recovery token and hands it to the mailer. The outcome is
// identical whether or not the account exists.
func (s *Service) Recover(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	token, _, err := s.codec.Issue(user.Email, user.Roles)
	if err != nil {
		return fmt.Errorf("issue recovery token: %w", err)
	}
	if s.mailer == nil {
		return nil
	}
	if err := s.mailer.SendPasswordReset(ctx, user.Email, token); err != nil {
		return fmt.Errorf("send recovery mail: %w", err)
	}
	return nil
}

// ResetPassword rehashes the password for the subject of a valid recovery
// token, then revokes the token so it cannot be replayed.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	subject, err := s.codec.Subject(token)
	if err != nil {
		return ErrInvalidToken
	}
	revoked, err := s.revoked.IsRevoked(ctx, token)
	if err != nil {
		return fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return ErrInvalidToken
	}
	if newPassword == "" {
		return fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	user, err := s.users.FindByEmail(ctx, subject)
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.Email, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if err := s.revoked.Revoke(ctx, token, s.now().UTC()); err != nil {
		return fmt.Errorf("revoke recovery token: %w", err)
	}
	return nil
}

// UserByEmail loads an account for profile responses, with the hash cleared.
func (s *Service) UserByEmail(ctx context.Context, email string) (*User, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	out := *user
	out.PasswordHash = ""
	return &out, nil
}

// ListUsers returns all accounts with hashes cleared.
func (s *Service) ListUsers(ctx context.Context) ([]*User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]*User, 0, len(users))
	for _, u := range users {
		clone := *u
		clone.PasswordHash = ""
		out = append(out, &clone)
	}
	return out, nil
}

// ChangePassword rehashes the password for an authenticated account after
// verifying the current one. Unlike the recovery flow, no token is consumed;
// existing sessions stay valid.
func (s *Service) ChangePassword(ctx context.Context, email, currentPassword, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("%w: new password is required", ErrInvalidInput)
	}
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	if err := s.verify(user.PasswordHash, currentPassword); err != nil {
		return ErrInvalidCredentials
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.Email, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// UpdateProfile changes the display username. Email is the identity key and
// cannot be changed here.
func (s *Service) UpdateProfile(ctx context.Context, email, username string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(username, user.Username) {
		taken, err := s.users.ExistsByUsername(ctx, username)
		if err != nil {
			return nil, fmt.Errorf("check username: %w", err)
		}
		if taken {
			return nil, fmt.Errorf("%w: username already in use", ErrAlreadyExists)
		}
	}
	user.Username = username
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	out := *user
	out.PasswordHash = ""
	return &out, nil
}

// PromoteCreator grants ROLE_CREATOR to the account. Idempotent. The new
// role lands in tokens at the next refresh, not mid-token.
func (s *Service) PromoteCreator(ctx context.Context, email string) (*User, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if !user.Roles.Has(RoleCreator) {
		user.Roles = NewRoleSet(append(user.Roles.Tags(), RoleCreator)...)
		if err := s.users.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
	}
	out := *user
	out.PasswordHash = ""
	return &out, nil
}

// DeleteUser removes an account. Outstanding tokens for it are rejected at
// the next authenticate, when the subject reload fails.
func (s *Service) DeleteUser(ctx context.Context, email string) error {
	return s.users.Delete(ctx, normalizeEmail(email))
}
