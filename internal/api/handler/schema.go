package handler

import (
	"time"

	"github.com/estatehub/marketplace-access/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Auth ---

type registerRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Remember bool   `json:"remember"`
}

type refreshRequest struct {
	RememberToken string `json:"remember_token" validate:"required"`
}

type authResponse struct {
	Token    string                `json:"token,omitempty"`
	User     *domain.User          `json:"user,omitempty"`
	Remember *domain.RememberToken `json:"remember,omitempty"`
}

// --- Roles ---

type rolesRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

type rolesResponse struct {
	UserID string   `json:"user_id"`
	Roles  []string `json:"roles"`
}

type roleGrantParams struct {
	UserID string `param:"id"   validate:"required"`
	Role   string `param:"role" validate:"required,oneof=general_user property_owner agent vendor admin customer_service super_admin investor editor"`
}

// --- Sessions ---

type heartbeatRequest struct {
	Fingerprint string            `json:"fingerprint" validate:"required,max=64"`
	Device      domain.DeviceInfo `json:"device"`
	SentAt      time.Time         `json:"sent_at"`
}

type heartbeatResponse struct {
	Status string `json:"status"`
}

// --- Dashboards ---

type dashboardResponse struct {
	Area   string   `json:"area"`
	UserID string   `json:"user_id"`
	Email  string   `json:"email,omitempty"`
	Roles  []string `json:"roles"`
}

// guardDeniedResponse is returned with 403 when a route guard denies a
// non-navigation request. Redirect is where a browser should go instead.
type guardDeniedResponse struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect"`
}
