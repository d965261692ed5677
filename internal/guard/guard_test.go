package guard

import (
	"testing"

	"github.com/estatehub/marketplace-access/internal/core/domain"
)

var alice = &domain.User{ID: "u-alice", Email: "alice@example.com"}

func TestEvaluate_LoadingNeverRedirects(t *testing.T) {
	inputs := []Input{
		{AuthLoading: true},
		{RolesLoading: true, User: alice},
		{AuthLoading: true, RolesLoading: true, User: alice, Roles: domain.NewRoleSet(domain.AllRoles...)},
	}
	for _, g := range All() {
		for _, in := range inputs {
			d := g.Evaluate(in)
			if d.State != StateLoading {
				t.Fatalf("%s: expected loading for %+v, got %s", g.Name, in, d.State)
			}
			if d.Redirect != "" || d.Replace {
				t.Fatalf("%s: loading decision must not redirect: %+v", g.Name, d)
			}
		}
	}
}

func TestEvaluate_MissingRoleRedirectsHome(t *testing.T) {
	roleGuards := []Guard{Admin, Agent, Vendor, PropertyOwner}
	for _, g := range roleGuards {
		d := g.Evaluate(Input{User: alice, Roles: domain.NewRoleSet(domain.RoleGeneralUser)})
		if d.State != StateDenied {
			t.Fatalf("%s: expected denied, got %s", g.Name, d.State)
		}
		if d.Redirect != "/" || !d.Replace {
			t.Fatalf("%s: expected replace-redirect to /, got %+v", g.Name, d)
		}
	}
}

func TestEvaluate_NoUserDeniedByProtectedGuards(t *testing.T) {
	for _, g := range []Guard{Admin, Agent, Vendor, PropertyOwner, Protected} {
		if d := g.Evaluate(Input{}); d.State != StateDenied || d.Redirect != "/" {
			t.Fatalf("%s: expected denial for anonymous visitor, got %+v", g.Name, d)
		}
	}
}

func TestEvaluate_RoleGuards(t *testing.T) {
	tests := []struct {
		name  string
		guard Guard
		roles []domain.Role
		want  State
	}{
		{"admin allows admin", Admin, []domain.Role{domain.RoleAdmin}, StateAllowed},
		{"admin allows super_admin", Admin, []domain.Role{domain.RoleSuperAdmin}, StateAllowed},
		{"admin denies agent", Admin, []domain.Role{domain.RoleAgent}, StateDenied},
		{"agent allows agent", Agent, []domain.Role{domain.RoleAgent}, StateAllowed},
		{"agent denies admin", Agent, []domain.Role{domain.RoleAdmin}, StateDenied},
		{"vendor allows vendor among others", Vendor, []domain.Role{domain.RoleInvestor, domain.RoleVendor}, StateAllowed},
		{"owner allows property_owner", PropertyOwner, []domain.Role{domain.RolePropertyOwner}, StateAllowed},
		{"owner denies vendor", PropertyOwner, []domain.Role{domain.RoleVendor}, StateDenied},
		{"protected allows no roles", Protected, nil, StateAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := tt.guard.Evaluate(Input{User: alice, Roles: domain.NewRoleSet(tt.roles...)})
			if d.State != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, d.State)
			}
		})
	}
}

func TestEvaluate_PublicOnly(t *testing.T) {
	if d := PublicOnly.Evaluate(Input{User: alice}); d.State != StateDenied || d.Redirect != "/" {
		t.Fatalf("expected signed-in user to be redirected, got %+v", d)
	}
	if d := PublicOnly.Evaluate(Input{}); d.State != StateAllowed {
		t.Fatalf("expected anonymous visitor to be allowed, got %+v", d)
	}
}

func TestEvaluate_CustomFallbackAndNilPredicate(t *testing.T) {
	g := Guard{Name: "editor", Allow: RequireRole(domain.RoleEditor), Fallback: "/listings"}
	if d := g.Evaluate(Input{User: alice}); d.Redirect != "/listings" {
		t.Fatalf("expected custom fallback, got %+v", d)
	}

	var zero Guard
	if d := zero.Evaluate(Input{User: alice, Roles: domain.NewRoleSet(domain.RoleAdmin)}); d.State != StateDenied || d.Redirect != DefaultFallback {
		t.Fatalf("guard without predicate must deny, got %+v", d)
	}
}
