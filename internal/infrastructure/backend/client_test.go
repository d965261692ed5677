package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/estatehub/marketplace-access/internal/core/domain"
)

func TestClient_ListActiveRoles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/rpc/get_user_roles" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			t.Fatalf("missing bearer token")
		}
		var req rolesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID != "u1" {
			t.Fatalf("unexpected body %+v err=%v", req, err)
		}
		_ = json.NewEncoder(w).Encode(rolesResponse{Roles: []string{"agent", "vendor"}})
	}))
	defer srv.Close()

	c := New(srv.URL+"/", nil, func() string { return "tok-1" })
	roles, err := c.ListActiveRoles(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ListActiveRoles: %v", err)
	}
	if len(roles) != 2 || roles[0] != domain.RoleAgent || roles[1] != domain.RoleVendor {
		t.Fatalf("unexpected roles %v", roles)
	}
}

func TestClient_HeartbeatAuthFailures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantReauth bool
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":"invalid token"}`, true},
		{"forbidden", http.StatusForbidden, `{"error":"forbidden"}`, true},
		{"jwt complaint", http.StatusBadRequest, `{"error":"JWT expired"}`, true},
		{"server error", http.StatusInternalServerError, `{"error":"internal server error"}`, false},
		{"plain text", http.StatusBadGateway, `upstream down`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := New(srv.URL, nil, nil)
			err := c.Heartbeat(context.Background(), domain.Heartbeat{UserID: "u1", Fingerprint: "fp"})
			if err == nil {
				t.Fatalf("expected error")
			}
			if got := errors.Is(err, domain.ErrReauthRequired); got != tt.wantReauth {
				t.Fatalf("reauth=%v, want %v (err=%v)", got, tt.wantReauth, err)
			}
		})
	}
}

func TestClient_HeartbeatSendsPing(t *testing.T) {
	sent := time.Date(2026, 6, 1, 8, 5, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var hb domain.Heartbeat
		if err := json.NewDecoder(r.Body).Decode(&hb); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if hb.Fingerprint != "fp_1" || hb.Device.DeviceType != "mobile" || !hb.SentAt.Equal(sent) {
			t.Fatalf("unexpected ping %+v", hb)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := New(srv.URL, nil, func() string { return "tok" })
	err := c.Heartbeat(context.Background(), domain.Heartbeat{
		Fingerprint: "fp_1",
		Device:      domain.DeviceInfo{DeviceType: "mobile"},
		SentAt:      sent,
	})
	if err != nil {
		t.Fatalf("Heartbeat: %v", err)
	}
}

func TestClient_LoginDecodesRememberToken(t *testing.T) {
	expires := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if !req.Remember {
			t.Fatalf("remember flag not sent")
		}
		_ = json.NewEncoder(w).Encode(LoginResponse{
			Token:    "jwt",
			User:     &domain.User{ID: "u1", Email: req.Email},
			Remember: &domain.RememberToken{Token: "rt", Expires: expires},
		})
	}))
	defer srv.Close()

	res, err := New(srv.URL, nil, nil).Login(context.Background(), "a@example.com", "pw", true)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Token != "jwt" || res.User.Email != "a@example.com" || res.Remember == nil || !res.Remember.Expires.Equal(expires) {
		t.Fatalf("unexpected response %+v", res)
	}
}
