// Package cache holds in-process caches.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/estatehub/marketplace-access/internal/core/domain"
)

type roleEntry struct {
	roles   domain.RoleSet
	expires time.Time
}

// MemoryRoleCache is a ports.RoleCache held in process memory.
type MemoryRoleCache struct {
	mu      sync.Mutex
	entries map[string]roleEntry
	now     func() time.Time
}

func NewMemoryRoleCache() *MemoryRoleCache {
	return &MemoryRoleCache{entries: make(map[string]roleEntry), now: time.Now}
}

func (c *MemoryRoleCache) Get(_ context.Context, userID string) (domain.RoleSet, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[userID]
	if !ok {
		return domain.RoleSet{}, false, nil
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, userID)
		return domain.RoleSet{}, false, nil
	}
	return e.roles, true, nil
}

func (c *MemoryRoleCache) Set(_ context.Context, userID string, roles domain.RoleSet, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[userID] = roleEntry{roles: roles, expires: c.now().Add(ttl)}
	return nil
}

func (c *MemoryRoleCache) Invalidate(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
	return nil
}
