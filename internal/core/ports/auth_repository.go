package ports

import (
	"context"
	"time"

	"github.com/estatehub/marketplace-access/internal/core/domain"
)

// AuthRepository defines the interface for user authentication persistence.
type AuthRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}

// RememberTokenRepository persists issued remember tokens.
type RememberTokenRepository interface {
	Save(ctx context.Context, token domain.RememberToken) error
	Find(ctx context.Context, token string) (*domain.RememberToken, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
