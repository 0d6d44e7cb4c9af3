package auth

import "strings"

// RolePrefix marks a canonical role tag.
const RolePrefix = "ROLE_"

// RoleUser is the default role assigned to accounts registered without one.
const RoleUser = "ROLE_USER"

// RoleAdmin grants access to administrative endpoints.
const RoleAdmin = "ROLE_ADMIN"

// RoleCreator marks accounts that publish projects. Users grant it to
// themselves; it widens no administrative surface.
const RoleCreator = "ROLE_CREATOR"

// NormalizeRole trims the tag and ensures the ROLE_ prefix. Only the prefix
// is enforced; the casing of the name itself is left untouched, so the
// function is idempotent. Blank input normalizes to the empty string.
func NormalizeRole(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return ""
	}
	if strings.HasPrefix(tag, RolePrefix) {
		return tag
	}
	return RolePrefix + tag
}

// RoleSet is an order-preserving set of normalized role tags. The zero value
// is empty and usable. Comma-joined text exists only at the token and
// persistence edges; everything in between passes RoleSet values around.
type RoleSet struct {
	tags []string
}

// NewRoleSet normalizes and deduplicates the given tags.
func NewRoleSet(tags ...string) RoleSet {
	var rs RoleSet
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = NormalizeRole(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		rs.tags = append(rs.tags, tag)
	}
	return rs
}

// ParseRoles builds a RoleSet from comma-joined text. Duplicates and blank
// segments are tolerated.
func ParseRoles(raw string) RoleSet {
	return NewRoleSet(strings.Split(raw, ",")...)
}

// Has reports whether the set contains the tag, normalizing it first.
// Comparison is exact-string beyond the prefix.
func (rs RoleSet) Has(tag string) bool {
	tag = NormalizeRole(tag)
	for _, t := range rs.tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Empty reports whether the set holds no tags.
func (rs RoleSet) Empty() bool {
	return len(rs.tags) == 0
}

// Len returns the number of tags in the set.
func (rs RoleSet) Len() int {
	return len(rs.tags)
}

// Tags returns a copy of the tags in insertion order.
func (rs RoleSet) Tags() []string {
	if len(rs.tags) == 0 {
		return nil
	}
	out := make([]string, len(rs.tags))
	copy(out, rs.tags)
	return out
}

// Join serializes the set to comma-joined text for the token roles claim and
// the users.roles column.
func (rs RoleSet) Join() string {
	return strings.Join(rs.tags, ",")
}

// String implements fmt.Stringer.
func (rs RoleSet) String() string {
	return rs.Join()
}
