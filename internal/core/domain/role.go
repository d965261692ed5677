package domain

import (
	"fmt"
	"sort"
)

// Role is a tag granting a user access to a dashboard or feature set.
type Role string

const (
	RoleGeneralUser     Role = "general_user"
	RolePropertyOwner   Role = "property_owner"
	RoleAgent           Role = "agent"
	RoleVendor          Role = "vendor"
	RoleAdmin           Role = "admin"
	RoleCustomerService Role = "customer_service"
	RoleSuperAdmin      Role = "super_admin"
	RoleInvestor        Role = "investor"
	RoleEditor          Role = "editor"
)

// AllRoles lists the closed set of roles in declaration order.
var AllRoles = []Role{
	RoleGeneralUser,
	RolePropertyOwner,
	RoleAgent,
	RoleVendor,
	RoleAdmin,
	RoleCustomerService,
	RoleSuperAdmin,
	RoleInvestor,
	RoleEditor,
}

// Valid reports whether r belongs to the closed role set.
func (r Role) Valid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

// ParseRole converts a raw tag into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

// RoleSet is the set of roles a user currently holds.
// The zero value is an empty set ready to use for reads.
type RoleSet struct {
	m map[Role]struct{}
}

// NewRoleSet builds a set from roles, silently dropping tags outside the
// closed set.
func NewRoleSet(roles ...Role) RoleSet {
	s := RoleSet{m: make(map[Role]struct{}, len(roles))}
	for _, r := range roles {
		if r.Valid() {
			s.m[r] = struct{}{}
		}
	}
	return s
}

// Has reports whether r is in the set.
func (s RoleSet) Has(r Role) bool {
	_, ok := s.m[r]
	return ok
}

// HasAny reports whether at least one of roles is in the set.
func (s RoleSet) HasAny(roles ...Role) bool {
	for _, r := range roles {
		if s.Has(r) {
			return true
		}
	}
	return false
}

func (s RoleSet) Len() int {
	return len(s.m)
}

// Slice returns the roles sorted by name.
func (s RoleSet) Slice() []Role {
	out := make([]Role, 0, len(s.m))
	for r := range s.m {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Strings is Slice converted for JSON and storage.
func (s RoleSet) Strings() []string {
	roles := s.Slice()
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

// RoleSetFromStrings parses raw tags, skipping unknown ones.
func RoleSetFromStrings(tags []string) RoleSet {
	roles := make([]Role, 0, len(tags))
	for _, t := range tags {
		roles = append(roles, Role(t))
	}
	return NewRoleSet(roles...)
}
