package ports

import (
	"context"
	"time"

	"github.com/estatehub/marketplace-access/internal/core/domain"
)

// RoleRepository is the source of truth for role grants.
type RoleRepository interface {
	ListActiveRoles(ctx context.Context, userID string) ([]domain.Role, error)
}

// RoleWriter mutates role grants. Only the server side implements it.
type RoleWriter interface {
	Grant(ctx context.Context, grant domain.RoleGrant) error
	Revoke(ctx context.Context, userID string, role domain.Role) error
}

// RoleCache is a read-through cache of role sets keyed by user ID.
// A miss is reported as ok=false with a nil error.
type RoleCache interface {
	Get(ctx context.Context, userID string) (roles domain.RoleSet, ok bool, err error)
	Set(ctx context.Context, userID string, roles domain.RoleSet, ttl time.Duration) error
	Invalidate(ctx context.Context, userID string) error
}
