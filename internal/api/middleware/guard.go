package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/estatehub/marketplace-access/internal/api/metrics"
	"github.com/estatehub/marketplace-access/internal/core/domain"
	"github.com/estatehub/marketplace-access/internal/core/ports"
	"github.com/estatehub/marketplace-access/internal/guard"
)

// RolesKey is the echo.Context key holding the caller's domain.RoleSet.
const RolesKey = "roles"

type deniedResponse struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect"`
}

// Guard gates the route with g. It must run after Auth or OptionalAuth.
// Roles are resolved before the decision, so the handler never runs on
// partial data. Browser navigations count as a route mount and force a
// fresh role lookup.
func Guard(g guard.Guard, roles ports.RoleQuery, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := CurrentUser(c)
			set := domain.NewRoleSet()

			if user != nil {
				ctx := c.Request().Context()
				var res ports.RoleResult
				if isNavigation(c.Request()) {
					res = roles.Refetch(ctx, user.ID)
				} else {
					res = roles.Roles(ctx, user.ID)
				}
				set = res.Roles
			}

			d := g.Evaluate(guard.Input{User: user, Roles: set})
			metrics.GuardDecisionsTotal.WithLabelValues(g.Name, d.State.String()).Inc()

			if d.State != guard.StateAllowed {
				ev := log.Info().Str("guard", g.Name).Str("path", c.Path())
				if user != nil {
					ev = ev.Str("user_id", user.ID)
				}
				ev.Msg("access denied")

				if isNavigation(c.Request()) {
					return c.Redirect(http.StatusSeeOther, d.Redirect)
				}
				return c.JSON(http.StatusForbidden, deniedResponse{Error: "forbidden", Redirect: d.Redirect})
			}

			c.Set(RolesKey, set)
			return next(c)
		}
	}
}

// CurrentRoles returns the role set resolved by Guard.
func CurrentRoles(c echo.Context) domain.RoleSet {
	s, _ := c.Get(RolesKey).(domain.RoleSet)
	return s
}

func isNavigation(r *http.Request) bool {
	if r.Header.Get("Sec-Fetch-Mode") == "navigate" {
		return true
	}
	return r.Method == http.MethodGet && strings.Contains(r.Header.Get(echo.HeaderAccept), echo.MIMETextHTML)
}
