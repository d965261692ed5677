package guard

import "strings"

// Route binds a path prefix to the guard protecting it.
type Route struct {
	Prefix string
	Guard  Guard
}

// Routes is a guard table matched by longest path prefix.
type Routes []Route

// DefaultRoutes is the marketplace route table.
func DefaultRoutes() Routes {
	return Routes{
		{Prefix: "/dashboard/admin", Guard: Admin},
		{Prefix: "/dashboard/agent", Guard: Agent},
		{Prefix: "/dashboard/vendor", Guard: Vendor},
		{Prefix: "/dashboard/owner", Guard: PropertyOwner},
		{Prefix: "/account", Guard: Protected},
		{Prefix: "/auth/login", Guard: PublicOnly},
		{Prefix: "/auth/register", Guard: PublicOnly},
	}
}

// Match returns the guard of the longest prefix covering path. Prefixes only
// match on segment boundaries, so "/accountant" is not under "/account".
func (r Routes) Match(path string) (Guard, bool) {
	var (
		best  Guard
		found bool
		size  int
	)
	for _, rt := range r {
		if !underPrefix(path, rt.Prefix) || len(rt.Prefix) <= size {
			continue
		}
		best, found, size = rt.Guard, true, len(rt.Prefix)
	}
	return best, found
}

func underPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	rest := path[len(prefix):]
	return rest == "" || rest[0] == '/' || rest[0] == '?' || strings.HasSuffix(prefix, "/")
}
