package auth

// Principal is the authenticated identity attached to a request. It is
// derived per request from a validated token plus a fresh user load and is
// never persisted. Roles come from the token, so role edits take effect at
// the next refresh rather than mid-token; the user load only reflects
// account deletion.
type Principal struct {
	Email    string
	Username string
	Roles    RoleSet
}

// HasRole reports whether the principal carries the role tag.
func (p Principal) HasRole(tag string) bool {
	return p.Roles.Has(tag)
}
