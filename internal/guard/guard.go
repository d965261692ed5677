// Package guard decides whether a protected route may render.
//
// A Guard is a role predicate plus a fallback path. Evaluating it against
// the current auth and role state yields exactly one of three states:
//
//	Loading → render a placeholder, never redirect
//	Denied  → replace the current history entry with the fallback path
//	Allowed → render the nested route content
//
// The same Guard values back the HTTP middleware and client-side Mounts.
package guard

import (
	"github.com/estatehub/marketplace-access/internal/core/domain"
)

// DefaultFallback is where denied navigations land.
const DefaultFallback = "/"

// State is the render decision of a guard.
type State int

const (
	StateLoading State = iota
	StateDenied
	StateAllowed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateDenied:
		return "denied"
	case StateAllowed:
		return "allowed"
	default:
		return "unknown"
	}
}

// Decision is what a guard renders. Redirect and Replace are only set when
// State is StateDenied.
type Decision struct {
	State    State
	Redirect string
	Replace  bool
}

// Predicate reports whether a user with roles may see the route.
// user is nil when nobody is signed in.
type Predicate func(user *domain.User, roles domain.RoleSet) bool

// RequireRole admits signed-in users holding role.
func RequireRole(role domain.Role) Predicate {
	return func(user *domain.User, roles domain.RoleSet) bool {
		return user != nil && roles.Has(role)
	}
}

// RequireAnyRole admits signed-in users holding at least one of rs.
func RequireAnyRole(rs ...domain.Role) Predicate {
	return func(user *domain.User, roles domain.RoleSet) bool {
		return user != nil && roles.HasAny(rs...)
	}
}

// Authenticated admits any signed-in user.
func Authenticated() Predicate {
	return func(user *domain.User, _ domain.RoleSet) bool {
		return user != nil
	}
}

// Anonymous admits only visitors with no user at all.
func Anonymous() Predicate {
	return func(user *domain.User, _ domain.RoleSet) bool {
		return user == nil
	}
}

// Guard is a named predicate with a fallback path.
type Guard struct {
	Name     string
	Allow    Predicate
	Fallback string
}

// New returns a Guard redirecting to DefaultFallback on denial.
func New(name string, allow Predicate) Guard {
	return Guard{Name: name, Allow: allow, Fallback: DefaultFallback}
}

var (
	Admin         = New("admin", RequireAnyRole(domain.RoleAdmin, domain.RoleSuperAdmin))
	Agent         = New("agent", RequireRole(domain.RoleAgent))
	Vendor        = New("vendor", RequireRole(domain.RoleVendor))
	PropertyOwner = New("property_owner", RequireRole(domain.RolePropertyOwner))
	PublicOnly    = New("public_only", Anonymous())
	Protected     = New("protected", Authenticated())
)

// All lists the built-in guards.
func All() []Guard {
	return []Guard{Admin, Agent, Vendor, PropertyOwner, PublicOnly, Protected}
}

// Input is the state a guard decides on.
type Input struct {
	AuthLoading  bool
	RolesLoading bool
	User         *domain.User
	Roles        domain.RoleSet
}

// Evaluate applies the guard rules in order: loading wins over everything,
// then the predicate picks between denial and access.
func (g Guard) Evaluate(in Input) Decision {
	if in.AuthLoading || in.RolesLoading {
		return Decision{State: StateLoading}
	}
	if g.Allow == nil || !g.Allow(in.User, in.Roles) {
		return Decision{State: StateDenied, Redirect: g.fallback(), Replace: true}
	}
	return Decision{State: StateAllowed}
}

func (g Guard) fallback() string {
	if g.Fallback == "" {
		return DefaultFallback
	}
	return g.Fallback
}
