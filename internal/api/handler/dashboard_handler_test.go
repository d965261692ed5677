package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/estatehub/marketplace-access/internal/api/middleware"
	"github.com/estatehub/marketplace-access/internal/core/domain"
)

func TestDashboardHandler_Area(t *testing.T) {
	e := newTestEcho()
	h := NewDashboardHandler()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/dashboard/vendor", nil), rec)
	c.Set(middleware.UserKey, &domain.User{ID: "bob", Email: "bob@example.com"})
	c.Set(middleware.RolesKey, domain.NewRoleSet(domain.RoleVendor))
	serve(e, c, h.Area("vendor"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp dashboardResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Area != "vendor" || resp.UserID != "bob" || len(resp.Roles) != 1 || resp.Roles[0] != "vendor" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}
