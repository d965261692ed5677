package ports

import (
	"context"

	"github.com/estatehub/marketplace-access/internal/core/domain"
)

// LoginResult is what a successful sign-in hands back to the client.
type LoginResult struct {
	Token    string
	User     *domain.User
	Remember *domain.RememberToken
}

type AuthService interface {
	Register(ctx context.Context, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string, remember bool) (*LoginResult, error)
	Refresh(ctx context.Context, rememberToken string) (*LoginResult, error)
}
