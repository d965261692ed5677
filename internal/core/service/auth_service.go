package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/estatehub/marketplace-access/internal/core/domain"
	"github.com/estatehub/marketplace-access/internal/core/ports"
)

const defaultRememberTTL = 30 * 24 * time.Hour

// AuthService implements registration, login and remember-token refresh.
type AuthService struct {
	repo        ports.AuthRepository
	roles       ports.RoleWriter
	remember    ports.RememberTokenRepository
	jwtSecret   string
	tokenTTL    time.Duration
	rememberTTL time.Duration
	now         func() time.Time
}

func NewAuthService(
	repo ports.AuthRepository,
	roles ports.RoleWriter,
	remember ports.RememberTokenRepository,
	jwtSecret string,
	tokenTTL, rememberTTL time.Duration,
) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	if rememberTTL <= 0 {
		rememberTTL = defaultRememberTTL
	}
	return &AuthService{
		repo:        repo,
		roles:       roles,
		remember:    remember,
		jwtSecret:   jwtSecret,
		tokenTTL:    tokenTTL,
		rememberTTL: rememberTTL,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Register creates an account holding the general_user role.
func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.now()
	created, err := s.repo.Create(ctx, &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	// Remove the account on failure so the email can register again.
	if err := s.roles.Grant(ctx, domain.RoleGrant{
		UserID:    created.ID,
		Role:      domain.RoleGeneralUser,
		Active:    true,
		GrantedAt: now,
	}); err != nil {
		if delErr := s.repo.Delete(ctx, created.ID); delErr != nil {
			return nil, errors.Join(fmt.Errorf("grant default role: %w", err), delErr)
		}
		return nil, fmt.Errorf("grant default role: %w", err)
	}
	return created, nil
}

// Login checks credentials and issues a JWT, plus a remember token when asked.
func (s *AuthService) Login(ctx context.Context, email, password string, remember bool) (*ports.LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}

	res := &ports.LoginResult{Token: token, User: user}
	if remember {
		rt := domain.RememberToken{
			Token:   uuid.NewString(),
			UserID:  user.ID,
			Expires: s.now().Add(s.rememberTTL),
		}
		if err := s.remember.Save(ctx, rt); err != nil {
			return nil, err
		}
		res.Remember = &rt
	}
	return res, nil
}

// Refresh exchanges an unexpired remember token for a fresh JWT. Expired
// tokens are deleted on sight.
func (s *AuthService) Refresh(ctx context.Context, rememberToken string) (*ports.LoginResult, error) {
	if rememberToken == "" {
		return nil, domain.ErrRememberTokenUnknown
	}

	rt, err := s.remember.Find(ctx, rememberToken)
	if err != nil {
		return nil, err
	}
	if rt.Expired(s.now()) {
		if delErr := s.remember.Delete(ctx, rememberToken); delErr != nil {
			return nil, errors.Join(domain.ErrRememberTokenExpired, delErr)
		}
		return nil, domain.ErrRememberTokenExpired
	}

	user, err := s.repo.FindByID(ctx, rt.UserID)
	if err != nil {
		return nil, err
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}
	return &ports.LoginResult{Token: token, User: user, Remember: rt}, nil
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"exp":   s.now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
