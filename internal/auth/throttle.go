package auth

import (
	"strings"
	"sync"
)

// maxLoginAttempts is the consecutive-failure count at which an identifier
// is blocked.
const maxLoginAttempts = 5

// LoginThrottle counts consecutive failed logins per identifier and blocks
// further credential verification once the limit is reached. The counter is
// process-local and does not survive restarts; multi-instance deployments
// get independent counters unless a shared implementation is injected.
//
// There is no time-based decay: a blocked identifier stays blocked until a
// successful login clears it.
type LoginThrottle struct {
	mu       sync.Mutex
	attempts map[string]int
	max      int
}

// NewLoginThrottle constructs an empty throttle.
func NewLoginThrottle() *LoginThrottle {
	return &LoginThrottle{
		attempts: make(map[string]int),
		max:      maxLoginAttempts,
	}
}

func throttleKey(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

// RecordFailure increments the failure count for the identifier. The
// read-modify-write runs under the lock, so concurrent failures are never
// undercounted.
func (t *LoginThrottle) RecordFailure(identifier string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.attempts[throttleKey(identifier)]++
}

// RecordSuccess clears the failure count for the identifier.
func (t *LoginThrottle) RecordSuccess(identifier string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.attempts, throttleKey(identifier))
}

// IsBlocked reports whether the identifier reached the failure limit.
func (t *LoginThrottle) IsBlocked(identifier string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.attempts[throttleKey(identifier)] >= t.max
}

// Attempts returns the current failure count for the identifier.
func (t *LoginThrottle) Attempts(identifier string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.attempts[throttleKey(identifier)]
}
