package cache

import (
	"context"
	"testing"
	"time"

	"github.com/estatehub/marketplace-access/internal/core/domain"
)

func TestMemoryRoleCache_ExpiresAfterTTL(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryRoleCache()
	c.now = func() time.Time { return now }
	ctx := context.Background()

	_ = c.Set(ctx, "u1", domain.NewRoleSet(domain.RoleAgent), 30*time.Second)

	now = now.Add(29 * time.Second)
	if roles, ok, _ := c.Get(ctx, "u1"); !ok || !roles.Has(domain.RoleAgent) {
		t.Fatalf("expected fresh entry")
	}

	now = now.Add(time.Second)
	if _, ok, _ := c.Get(ctx, "u1"); ok {
		t.Fatalf("entry should expire at the TTL boundary")
	}
}

func TestMemoryRoleCache_Invalidate(t *testing.T) {
	c := NewMemoryRoleCache()
	ctx := context.Background()

	_ = c.Set(ctx, "u1", domain.NewRoleSet(domain.RoleAdmin), time.Minute)
	_ = c.Invalidate(ctx, "u1")
	if _, ok, _ := c.Get(ctx, "u1"); ok {
		t.Fatalf("entry survived invalidation")
	}
}
