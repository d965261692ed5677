package ports

import (
	"context"

	"github.com/estatehub/marketplace-access/internal/core/domain"
)

// RoleResult is the outcome of a role lookup. Err is informational only;
// Roles is always usable and is empty on failure.
type RoleResult struct {
	Roles  domain.RoleSet
	Cached bool
	Err    error
}

// RoleQuery resolves the active roles of a user.
type RoleQuery interface {
	Roles(ctx context.Context, userID string) RoleResult
	Refetch(ctx context.Context, userID string) RoleResult
	Invalidate(ctx context.Context, userID string)
}

// RoleAdmin grants and revokes roles.
type RoleAdmin interface {
	Grant(ctx context.Context, actorID, userID string, role domain.Role) error
	Revoke(ctx context.Context, userID string, role domain.Role) error
}
