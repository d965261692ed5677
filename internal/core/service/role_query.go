package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/estatehub/marketplace-access/internal/api/metrics"
	"github.com/estatehub/marketplace-access/internal/core/domain"
	"github.com/estatehub/marketplace-access/internal/core/ports"
)

const defaultRoleTTL = 30 * time.Second

// RoleQuery resolves a user's active roles through a short-lived cache.
// It never fails: lookup errors degrade to an empty role set.
type RoleQuery struct {
	repo  ports.RoleRepository
	cache ports.RoleCache
	ttl   time.Duration
	log   zerolog.Logger
}

// NewRoleQuery returns a RoleQuery. A nil cache disables caching and a
// non-positive ttl falls back to 30s.
func NewRoleQuery(repo ports.RoleRepository, cache ports.RoleCache, ttl time.Duration, log zerolog.Logger) *RoleQuery {
	if ttl <= 0 {
		ttl = defaultRoleTTL
	}
	return &RoleQuery{repo: repo, cache: cache, ttl: ttl, log: log}
}

// Roles returns the cached role set when fresh, otherwise fetches it.
func (q *RoleQuery) Roles(ctx context.Context, userID string) ports.RoleResult {
	if userID == "" {
		return ports.RoleResult{Roles: domain.NewRoleSet()}
	}

	if q.cache != nil {
		roles, ok, err := q.cache.Get(ctx, userID)
		switch {
		case err != nil:
			q.log.Warn().Err(err).Str("user_id", userID).Msg("role cache read failed")
		case ok:
			metrics.RoleCacheTotal.WithLabelValues("hit").Inc()
			return ports.RoleResult{Roles: roles, Cached: true}
		}
		metrics.RoleCacheTotal.WithLabelValues("miss").Inc()
	}

	return q.fetch(ctx, userID)
}

// Refetch ignores the cache and stores the fresh result.
func (q *RoleQuery) Refetch(ctx context.Context, userID string) ports.RoleResult {
	if userID == "" {
		return ports.RoleResult{Roles: domain.NewRoleSet()}
	}
	return q.fetch(ctx, userID)
}

// Invalidate drops any cached roles for userID.
func (q *RoleQuery) Invalidate(ctx context.Context, userID string) {
	if q.cache == nil || userID == "" {
		return
	}
	if err := q.cache.Invalidate(ctx, userID); err != nil {
		q.log.Warn().Err(err).Str("user_id", userID).Msg("role cache invalidate failed")
	}
}

func (q *RoleQuery) fetch(ctx context.Context, userID string) ports.RoleResult {
	list, err := q.repo.ListActiveRoles(ctx, userID)
	if err != nil && (errors.Is(err, context.Canceled) || ctx.Err() != nil) {
		q.log.Debug().Err(err).Str("user_id", userID).Msg("role fetch abandoned")
		return ports.RoleResult{Roles: domain.NewRoleSet(), Err: fmt.Errorf("fetch roles: %w", err)}
	}
	if err != nil {
		metrics.RoleFetchFailuresTotal.Inc()
		q.log.Error().Err(err).Str("user_id", userID).Msg("role fetch failed, treating as no roles")
		return ports.RoleResult{Roles: domain.NewRoleSet(), Err: fmt.Errorf("fetch roles: %w", err)}
	}

	roles := domain.NewRoleSet(list...)
	if q.cache != nil && ctx.Err() == nil {
		if err := q.cache.Set(ctx, userID, roles, q.ttl); err != nil {
			q.log.Warn().Err(err).Str("user_id", userID).Msg("role cache write failed")
		}
	}
	return ports.RoleResult{Roles: roles}
}

// RoleAdminService grants and revokes roles, invalidating cached sets so
// the change is visible on the next guard evaluation.
type RoleAdminService struct {
	users  ports.AuthRepository
	writer ports.RoleWriter
	query  ports.RoleQuery
	log    zerolog.Logger
}

func NewRoleAdminService(users ports.AuthRepository, writer ports.RoleWriter, query ports.RoleQuery, log zerolog.Logger) *RoleAdminService {
	return &RoleAdminService{users: users, writer: writer, query: query, log: log}
}

func (s *RoleAdminService) Grant(ctx context.Context, actorID, userID string, role domain.Role) error {
	if !role.Valid() {
		return fmt.Errorf("grant role: %w: %q", domain.ErrUnknownRole, role)
	}
	if err := s.ensureUser(ctx, userID); err != nil {
		return fmt.Errorf("grant role: %w", err)
	}

	grant := domain.RoleGrant{
		UserID:    userID,
		Role:      role,
		Active:    true,
		GrantedBy: actorID,
		GrantedAt: time.Now().UTC(),
	}
	if err := s.writer.Grant(ctx, grant); err != nil {
		return fmt.Errorf("grant role: %w", err)
	}
	s.query.Invalidate(ctx, userID)

	s.log.Info().Str("user_id", userID).Str("role", string(role)).Str("actor", actorID).Msg("role granted")
	return nil
}

func (s *RoleAdminService) Revoke(ctx context.Context, userID string, role domain.Role) error {
	if !role.Valid() {
		return fmt.Errorf("revoke role: %w: %q", domain.ErrUnknownRole, role)
	}
	if err := s.ensureUser(ctx, userID); err != nil {
		return fmt.Errorf("revoke role: %w", err)
	}
	if err := s.writer.Revoke(ctx, userID, role); err != nil {
		return fmt.Errorf("revoke role: %w", err)
	}
	s.query.Invalidate(ctx, userID)

	s.log.Info().Str("user_id", userID).Str("role", string(role)).Msg("role revoked")
	return nil
}

// ensureUser reports domain.ErrUserNotFound for ids with no account, so
// grants never create orphan role documents.
func (s *RoleAdminService) ensureUser(ctx context.Context, userID string) error {
	if userID == "" {
		return domain.ErrUserNotFound
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return err
	}
	return nil
}
