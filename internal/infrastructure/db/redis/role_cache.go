package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/estatehub/marketplace-access/internal/core/domain"
)

// RoleCache caches role sets in Redis.
// Key format: roles:<user_id>, value: comma-separated role tags.
type RoleCache struct {
	client *redis.Client
}

// NewRoleCache creates a RoleCache wrapping the given Redis client.
func NewRoleCache(client *redis.Client) *RoleCache {
	return &RoleCache{client: client}
}

func (c *RoleCache) Get(ctx context.Context, userID string) (domain.RoleSet, bool, error) {
	raw, err := c.client.Get(ctx, c.key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.RoleSet{}, false, nil
	}
	if err != nil {
		return domain.RoleSet{}, false, fmt.Errorf("role cache get: %w", err)
	}
	return decodeRoles(raw), true, nil
}

// Set stores roles for ttl. An empty set is cached too, so users without
// grants do not hit the database on every request.
func (c *RoleCache) Set(ctx context.Context, userID string, roles domain.RoleSet, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.key(userID), encodeRoles(roles), ttl).Err(); err != nil {
		return fmt.Errorf("role cache set: %w", err)
	}
	return nil
}

func (c *RoleCache) Invalidate(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, c.key(userID)).Err(); err != nil {
		return fmt.Errorf("role cache invalidate: %w", err)
	}
	return nil
}

func (c *RoleCache) key(userID string) string {
	return "roles:" + userID
}

func encodeRoles(roles domain.RoleSet) string {
	return strings.Join(roles.Strings(), ",")
}

func decodeRoles(raw string) domain.RoleSet {
	if raw == "" {
		return domain.NewRoleSet()
	}
	return domain.RoleSetFromStrings(strings.Split(raw, ","))
}
