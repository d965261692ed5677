package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/estatehub/marketplace-access/internal/core/domain"
	"github.com/estatehub/marketplace-access/internal/core/ports"
)

// RoleHandler exposes the role-check procedure and role administration.
type RoleHandler struct {
	query ports.RoleQuery
	admin ports.RoleAdmin
}

func NewRoleHandler(query ports.RoleQuery, admin ports.RoleAdmin) *RoleHandler {
	return &RoleHandler{query: query, admin: admin}
}

// GetUserRoles handles POST /rpc/get_user_roles.
//
// Callers may only ask about themselves unless they are admin or
// super_admin. A failed lookup answers with no roles rather than an error.
//
// @Summary      Active roles of a user
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      rolesRequest  true  "User to check"
// @Success      200   {object}  rolesResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /rpc/get_user_roles [post]
func (h *RoleHandler) GetUserRoles(c echo.Context) error {
	caller, err := ctxUser(c)
	if err != nil {
		return err
	}

	var req rolesRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	if req.UserID != caller.ID {
		own := h.query.Roles(ctx, caller.ID).Roles
		if !own.HasAny(domain.RoleAdmin, domain.RoleSuperAdmin) {
			return c.JSON(http.StatusForbidden, errorResponse{Error: domain.ErrForbidden.Error()})
		}
	}

	res := h.query.Roles(ctx, req.UserID)
	return c.JSON(http.StatusOK, rolesResponse{UserID: req.UserID, Roles: res.Roles.Strings()})
}

// Mine handles GET /me/roles.
//
// @Summary      Active roles of the caller
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  rolesResponse
// @Failure      401  {object}  errorResponse
// @Router       /me/roles [get]
func (h *RoleHandler) Mine(c echo.Context) error {
	caller, err := ctxUser(c)
	if err != nil {
		return err
	}
	res := h.query.Refetch(c.Request().Context(), caller.ID)
	return c.JSON(http.StatusOK, rolesResponse{UserID: caller.ID, Roles: res.Roles.Strings()})
}

// Grant handles PUT /admin/users/:id/roles/:role.
//
// @Summary      Grant a role
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string  true  "User ID"
// @Param        role  path      string  true  "Role"  Enums(general_user, property_owner, agent, vendor, admin, customer_service, super_admin, investor, editor)
// @Success      204
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  guardDeniedResponse
// @Failure      404   {object}  errorResponse
// @Router       /admin/users/{id}/roles/{role} [put]
func (h *RoleHandler) Grant(c echo.Context) error {
	actor, err := ctxUser(c)
	if err != nil {
		return err
	}

	var p roleGrantParams
	if err := bindAndValidate(c, &p); err != nil {
		return err
	}

	if err := h.admin.Grant(c.Request().Context(), actor.ID, p.UserID, domain.Role(p.Role)); err != nil {
		return roleAdminError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Revoke handles DELETE /admin/users/:id/roles/:role.
//
// @Summary      Revoke a role
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string  true  "User ID"
// @Param        role  path      string  true  "Role"
// @Success      204
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  guardDeniedResponse
// @Failure      404   {object}  errorResponse
// @Router       /admin/users/{id}/roles/{role} [delete]
func (h *RoleHandler) Revoke(c echo.Context) error {
	var p roleGrantParams
	if err := bindAndValidate(c, &p); err != nil {
		return err
	}

	if err := h.admin.Revoke(c.Request().Context(), p.UserID, domain.Role(p.Role)); err != nil {
		return roleAdminError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func roleAdminError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrUnknownRole):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: "user not found"})
	}
	return err
}
