package auth

import "errors"

var (
	// ErrInvalidCredentials covers both an unknown identifier and a wrong
	// password. The two are deliberately indistinguishable to callers so a
	// login response never reveals whether an account exists.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrTooManyAttempts means the identifier is blocked by the login throttle.
	ErrTooManyAttempts = errors.New("auth: too many failed attempts")

	// ErrUnauthenticated covers a missing, malformed, forged, expired or
	// revoked bearer token. Collapsed into one outward signal.
	ErrUnauthenticated = errors.New("auth: unauthenticated")

	// ErrForbidden means a valid principal lacks a required role.
	ErrForbidden = errors.New("auth: forbidden")

	// ErrMissingToken is returned by logout when no token was presented.
	ErrMissingToken = errors.New("auth: token not provided")

	// ErrInvalidToken is the recovery-flow rejection for a token that fails
	// decoding, signature verification or expiry.
	ErrInvalidToken = errors.New("auth: invalid or expired token")

	ErrNotFound      = errors.New("auth: not found")
	ErrAlreadyExists = errors.New("auth: already exists")
	ErrInvalidInput  = errors.New("auth: invalid input")
)
