package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/estatehub/marketplace-access/internal/api/middleware"
)

// DashboardHandler serves the access envelope for each gated area. The
// guard in front of it has already decided; the handler only reports who
// got in.
type DashboardHandler struct{}

func NewDashboardHandler() *DashboardHandler {
	return &DashboardHandler{}
}

// Area returns a handler for the named dashboard area.
//
// @Summary      Gated dashboard area
// @Tags         dashboards
// @Produce      json
// @Security     BearerAuth
// @Param        area  path      string  true  "Area"  Enums(admin, agent, vendor, owner)
// @Success      200   {object}  dashboardResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  guardDeniedResponse
// @Router       /dashboard/{area} [get]
func (h *DashboardHandler) Area(area string) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := ctxUser(c)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, dashboardResponse{
			Area:   area,
			UserID: user.ID,
			Email:  user.Email,
			Roles:  middleware.CurrentRoles(c).Strings(),
		})
	}
}
