package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/estatehub/marketplace-access/internal/api/metrics"
	"github.com/estatehub/marketplace-access/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubRoleRepo struct {
	roles map[string][]domain.Role
	err   error
	calls int
}

func (r *stubRoleRepo) ListActiveRoles(_ context.Context, userID string) ([]domain.Role, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.roles[userID], nil
}

type stubRoleCache struct {
	entries     map[string]domain.RoleSet
	getErr      error
	setErr      error
	invalidated []string
	lastTTL     time.Duration
}

func newStubRoleCache() *stubRoleCache {
	return &stubRoleCache{entries: make(map[string]domain.RoleSet)}
}

func (c *stubRoleCache) Get(_ context.Context, userID string) (domain.RoleSet, bool, error) {
	if c.getErr != nil {
		return domain.RoleSet{}, false, c.getErr
	}
	s, ok := c.entries[userID]
	return s, ok, nil
}

func (c *stubRoleCache) Set(_ context.Context, userID string, roles domain.RoleSet, ttl time.Duration) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.entries[userID] = roles
	c.lastTTL = ttl
	return nil
}

func (c *stubRoleCache) Invalidate(_ context.Context, userID string) error {
	delete(c.entries, userID)
	c.invalidated = append(c.invalidated, userID)
	return nil
}

type stubRoleWriter struct {
	granted []domain.RoleGrant
	revoked []domain.Role
	err     error
}

func (w *stubRoleWriter) Grant(_ context.Context, g domain.RoleGrant) error {
	if w.err != nil {
		return w.err
	}
	w.granted = append(w.granted, g)
	return nil
}

func (w *stubRoleWriter) Revoke(_ context.Context, _ string, role domain.Role) error {
	if w.err != nil {
		return w.err
	}
	w.revoked = append(w.revoked, role)
	return nil
}

// ---------------------------------------------------------------------------
// RoleQuery
// ---------------------------------------------------------------------------

func TestRoleQuery_EmptyUserHasNoRoles(t *testing.T) {
	repo := &stubRoleRepo{}
	q := NewRoleQuery(repo, newStubRoleCache(), time.Minute, zerolog.Nop())

	res := q.Roles(context.Background(), "")
	if res.Roles.Len() != 0 || res.Err != nil {
		t.Fatalf("expected empty result, got %+v", res)
	}
	if repo.calls != 0 {
		t.Fatalf("repository should not be called for anonymous users")
	}
}

func TestRoleQuery_CachesWithinTTL(t *testing.T) {
	repo := &stubRoleRepo{roles: map[string][]domain.Role{"u1": {domain.RoleAgent}}}
	cache := newStubRoleCache()
	q := NewRoleQuery(repo, cache, 0, zerolog.Nop())

	first := q.Roles(context.Background(), "u1")
	if !first.Roles.Has(domain.RoleAgent) || first.Cached {
		t.Fatalf("unexpected first result: %+v", first)
	}
	if cache.lastTTL != defaultRoleTTL {
		t.Fatalf("expected default ttl %v, got %v", defaultRoleTTL, cache.lastTTL)
	}

	second := q.Roles(context.Background(), "u1")
	if !second.Cached || !second.Roles.Has(domain.RoleAgent) {
		t.Fatalf("expected cached result, got %+v", second)
	}
	if repo.calls != 1 {
		t.Fatalf("expected 1 repository call, got %d", repo.calls)
	}
}

func TestRoleQuery_RefetchBypassesCache(t *testing.T) {
	repo := &stubRoleRepo{roles: map[string][]domain.Role{"u1": {domain.RoleAgent}}}
	cache := newStubRoleCache()
	q := NewRoleQuery(repo, cache, time.Minute, zerolog.Nop())

	_ = q.Roles(context.Background(), "u1")
	repo.roles["u1"] = []domain.Role{domain.RoleVendor}

	res := q.Refetch(context.Background(), "u1")
	if !res.Roles.Has(domain.RoleVendor) || res.Roles.Has(domain.RoleAgent) {
		t.Fatalf("refetch returned stale roles: %v", res.Roles.Slice())
	}
	if !cache.entries["u1"].Has(domain.RoleVendor) {
		t.Fatalf("refetch did not overwrite cache")
	}
}

func TestRoleQuery_FetchFailureDegradesToNoRoles(t *testing.T) {
	repo := &stubRoleRepo{err: errors.New("connection reset")}
	cache := newStubRoleCache()
	q := NewRoleQuery(repo, cache, time.Minute, zerolog.Nop())

	res := q.Roles(context.Background(), "u1")
	if res.Roles.Len() != 0 {
		t.Fatalf("expected no roles, got %v", res.Roles.Slice())
	}
	if res.Err == nil {
		t.Fatalf("expected informational error")
	}
	if _, ok := cache.entries["u1"]; ok {
		t.Fatalf("failed fetch must not be cached")
	}
}

func TestRoleQuery_CacheErrorFallsThroughToRepo(t *testing.T) {
	repo := &stubRoleRepo{roles: map[string][]domain.Role{"u1": {domain.RoleAdmin}}}
	cache := newStubRoleCache()
	cache.getErr = errors.New("redis down")
	cache.setErr = errors.New("redis down")
	q := NewRoleQuery(repo, cache, time.Minute, zerolog.Nop())

	res := q.Roles(context.Background(), "u1")
	if !res.Roles.Has(domain.RoleAdmin) || res.Err != nil {
		t.Fatalf("expected repository result despite cache errors, got %+v", res)
	}
}

func TestRoleQuery_NilCache(t *testing.T) {
	repo := &stubRoleRepo{roles: map[string][]domain.Role{"u1": {domain.RoleEditor}}}
	q := NewRoleQuery(repo, nil, time.Minute, zerolog.Nop())

	_ = q.Roles(context.Background(), "u1")
	_ = q.Roles(context.Background(), "u1")
	q.Invalidate(context.Background(), "u1")
	if repo.calls != 2 {
		t.Fatalf("expected every call to hit the repository, got %d", repo.calls)
	}
}

func TestRoleQuery_CanceledFetchIsNotAFailure(t *testing.T) {
	repo := &stubRoleRepo{err: context.Canceled}
	q := NewRoleQuery(repo, newStubRoleCache(), time.Minute, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	before := testutil.ToFloat64(metrics.RoleFetchFailuresTotal)
	res := q.Refetch(ctx, "u1")
	if res.Roles.Len() != 0 || !errors.Is(res.Err, context.Canceled) {
		t.Fatalf("expected empty result carrying cancellation, got %+v", res)
	}
	if after := testutil.ToFloat64(metrics.RoleFetchFailuresTotal); after != before {
		t.Fatalf("cancellation counted as failure: %v -> %v", before, after)
	}
}

func TestRoleQuery_FetchFailureIsCounted(t *testing.T) {
	repo := &stubRoleRepo{err: errors.New("connection reset")}
	q := NewRoleQuery(repo, nil, time.Minute, zerolog.Nop())

	before := testutil.ToFloat64(metrics.RoleFetchFailuresTotal)
	_ = q.Refetch(context.Background(), "u1")
	if after := testutil.ToFloat64(metrics.RoleFetchFailuresTotal); after != before+1 {
		t.Fatalf("expected failure counter to grow by 1: %v -> %v", before, after)
	}
}

func usersWith(ids ...string) *stubAuthRepo {
	repo := newStubAuthRepo()
	for _, id := range ids {
		repo.users[id] = &domain.User{ID: id, Email: id + "@example.com"}
	}
	return repo
}

// ---------------------------------------------------------------------------
// RoleAdminService
// ---------------------------------------------------------------------------

func TestRoleAdmin_GrantInvalidatesCache(t *testing.T) {
	repo := &stubRoleRepo{roles: map[string][]domain.Role{"u1": {domain.RoleGeneralUser}}}
	cache := newStubRoleCache()
	q := NewRoleQuery(repo, cache, time.Minute, zerolog.Nop())
	writer := &stubRoleWriter{}
	admin := NewRoleAdminService(usersWith("u1"), writer, q, zerolog.Nop())

	_ = q.Roles(context.Background(), "u1")
	if err := admin.Grant(context.Background(), "root", "u1", domain.RoleAgent); err != nil {
		t.Fatalf("grant failed: %v", err)
	}

	if len(writer.granted) != 1 || writer.granted[0].Role != domain.RoleAgent || writer.granted[0].GrantedBy != "root" {
		t.Fatalf("unexpected grants: %+v", writer.granted)
	}
	if _, ok := cache.entries["u1"]; ok {
		t.Fatalf("cache entry should be invalidated")
	}
}

func TestRoleAdmin_RejectsUnknownRole(t *testing.T) {
	q := NewRoleQuery(&stubRoleRepo{}, newStubRoleCache(), time.Minute, zerolog.Nop())
	admin := NewRoleAdminService(usersWith("u1"), &stubRoleWriter{}, q, zerolog.Nop())

	if err := admin.Grant(context.Background(), "root", "u1", domain.Role("wizard")); !errors.Is(err, domain.ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
	if err := admin.Revoke(context.Background(), "", domain.RoleAgent); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestRoleAdmin_RevokeWrapsWriterError(t *testing.T) {
	boom := errors.New("write conflict")
	q := NewRoleQuery(&stubRoleRepo{}, newStubRoleCache(), time.Minute, zerolog.Nop())
	admin := NewRoleAdminService(usersWith("u1"), &stubRoleWriter{err: boom}, q, zerolog.Nop())

	if err := admin.Revoke(context.Background(), "u1", domain.RoleVendor); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped writer error, got %v", err)
	}
}

func TestRoleAdmin_UnknownUser(t *testing.T) {
	cache := newStubRoleCache()
	q := NewRoleQuery(&stubRoleRepo{}, cache, time.Minute, zerolog.Nop())
	writer := &stubRoleWriter{}
	admin := NewRoleAdminService(usersWith("u1"), writer, q, zerolog.Nop())

	if err := admin.Grant(context.Background(), "root", "no-such-user", domain.RoleAdmin); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound on grant, got %v", err)
	}
	if err := admin.Revoke(context.Background(), "no-such-user", domain.RoleAdmin); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound on revoke, got %v", err)
	}
	if len(writer.granted) != 0 || len(writer.revoked) != 0 {
		t.Fatalf("writer must not be called for unknown users: %+v %+v", writer.granted, writer.revoked)
	}
	if len(cache.invalidated) != 0 {
		t.Fatalf("cache must not be touched for unknown users")
	}
}
