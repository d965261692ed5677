// Package backend is the HTTP client a signed-in session uses to reach the
// marketplace access service.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/estatehub/marketplace-access/internal/core/domain"
)

const (
	// RoleProcedure is the named server procedure returning a user's roles.
	RoleProcedure = "get_user_roles"

	defaultTimeout = 10 * time.Second
	maxErrorBody   = 4 << 10
)

// TokenSource returns the current access token, or "" when signed out.
type TokenSource func() string

// Client calls the access service API.
type Client struct {
	baseURL string
	http    *http.Client
	token   TokenSource
}

// New returns a Client for baseURL. A nil httpClient gets a default with a
// 10s timeout.
func New(baseURL string, httpClient *http.Client, token TokenSource) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if token == nil {
		token = func() string { return "" }
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient, token: token}
}

// LoginResponse is the body of a successful login or refresh.
type LoginResponse struct {
	Token    string                `json:"token"`
	User     *domain.User          `json:"user"`
	Remember *domain.RememberToken `json:"remember,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

type refreshRequest struct {
	RememberToken string `json:"remember_token"`
}

type rolesRequest struct {
	UserID string `json:"user_id"`
}

type rolesResponse struct {
	Roles []string `json:"roles"`
}

// Login signs in with credentials.
func (c *Client) Login(ctx context.Context, email, password string, remember bool) (*LoginResponse, error) {
	var out LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password, Remember: remember}, &out); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &out, nil
}

// Refresh exchanges a remember token for a new access token.
func (c *Client) Refresh(ctx context.Context, rememberToken string) (*LoginResponse, error) {
	var out LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", refreshRequest{RememberToken: rememberToken}, &out); err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	return &out, nil
}

// ListActiveRoles calls the role-check procedure. It satisfies
// ports.RoleRepository so a RoleQuery can sit on top of it.
func (c *Client) ListActiveRoles(ctx context.Context, userID string) ([]domain.Role, error) {
	var out rolesResponse
	if err := c.do(ctx, http.MethodPost, "/rpc/"+RoleProcedure, rolesRequest{UserID: userID}, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", RoleProcedure, err)
	}
	roles := make([]domain.Role, 0, len(out.Roles))
	for _, r := range out.Roles {
		roles = append(roles, domain.Role(r))
	}
	return roles, nil
}

// Heartbeat sends a liveness ping.
func (c *Client) Heartbeat(ctx context.Context, hb domain.Heartbeat) error {
	if err := c.do(ctx, http.MethodPost, "/session/heartbeat", hb, nil); err != nil {
		return fmt.Errorf("heartbeat: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return statusError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// statusError turns a non-2xx response into an error. Auth failures and any
// JWT complaint wrap domain.ErrReauthRequired.
func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var envelope struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &envelope) == nil && envelope.Error != "" {
		msg = envelope.Error
	}

	if resp.StatusCode == http.StatusUnauthorized ||
		resp.StatusCode == http.StatusForbidden ||
		strings.Contains(strings.ToLower(msg), "jwt") {
		return fmt.Errorf("status %d: %s: %w", resp.StatusCode, msg, domain.ErrReauthRequired)
	}
	return fmt.Errorf("status %d: %s", resp.StatusCode, msg)
}
