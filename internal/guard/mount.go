package guard

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/estatehub/marketplace-access/internal/core/domain"
	"github.com/estatehub/marketplace-access/internal/core/ports"
)

// AuthSource supplies the current user and whether auth is still resolving.
type AuthSource interface {
	Snapshot() (user *domain.User, loading bool)
	Subscribe(fn func()) (unsubscribe func())
}

// RoleLoader fetches roles bypassing any cache.
type RoleLoader interface {
	Refetch(ctx context.Context, userID string) ports.RoleResult
}

// NavigateOptions mirrors the history API: Replace swaps the current entry
// instead of pushing a new one.
type NavigateOptions struct {
	Replace bool
}

// Navigator moves the client to another path.
type Navigator interface {
	Navigate(path string, opts NavigateOptions)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string, opts NavigateOptions)

func (f NavigatorFunc) Navigate(path string, opts NavigateOptions) { f(path, opts) }

// Mount is one mounted instance of a guard. Mounting forces a role refetch
// for the signed-in user; the mount never re-checks after it has denied.
type Mount struct {
	guard Guard
	auth  AuthSource
	roles RoleLoader
	nav   Navigator
	log   zerolog.Logger

	ctx         context.Context
	cancel      context.CancelFunc
	unsubscribe func()
	wg          sync.WaitGroup

	mu           sync.Mutex
	gen          uint64
	queryUser    string
	rolesLoading bool
	userRoles    domain.RoleSet
	redirected   bool
	unmounted    bool
	changed      chan struct{}
}

// NewMount mounts g. The mount lives until Unmount or until ctx is done.
func NewMount(ctx context.Context, g Guard, auth AuthSource, roles RoleLoader, nav Navigator, log zerolog.Logger) *Mount {
	mctx, cancel := context.WithCancel(ctx)
	m := &Mount{
		guard:   g,
		auth:    auth,
		roles:   roles,
		nav:     nav,
		log:     log.With().Str("guard", g.Name).Logger(),
		ctx:     mctx,
		cancel:  cancel,
		changed: make(chan struct{}),
	}
	m.unsubscribe = auth.Subscribe(m.notify)
	return m
}

// Render returns the current decision. The first denial navigates to the
// guard's fallback, replacing the history entry.
func (m *Mount) Render() Decision {
	user, authLoading := m.auth.Snapshot()

	m.mu.Lock()
	if m.unmounted {
		m.mu.Unlock()
		return Decision{State: StateLoading}
	}
	rolesLoading := m.syncQueryLocked(user)
	d := m.guard.Evaluate(Input{
		AuthLoading:  authLoading,
		RolesLoading: rolesLoading,
		User:         user,
		Roles:        m.userRoles,
	})
	navigate := d.State == StateDenied && !m.redirected
	if navigate {
		m.redirected = true
	}
	m.mu.Unlock()

	if navigate {
		m.log.Debug().Str("redirect", d.Redirect).Msg("guard denied, redirecting")
		m.nav.Navigate(d.Redirect, NavigateOptions{Replace: d.Replace})
	}
	return d
}

// Wait renders until the decision leaves StateLoading or ctx ends.
func (m *Mount) Wait(ctx context.Context) (Decision, error) {
	for {
		m.mu.Lock()
		changed := m.changed
		m.mu.Unlock()

		d := m.Render()
		if d.State != StateLoading {
			return d, nil
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return d, ctx.Err()
		case <-m.ctx.Done():
			return d, m.ctx.Err()
		}
	}
}

// Unmount cancels any in-flight role fetch and stops listening to auth
// changes. Late responses are discarded.
func (m *Mount) Unmount() {
	m.mu.Lock()
	if m.unmounted {
		m.mu.Unlock()
		return
	}
	m.unmounted = true
	m.gen++
	m.mu.Unlock()

	m.unsubscribe()
	m.cancel()
	m.notify()
}

// syncQueryLocked starts a role fetch whenever the signed-in user differs
// from the one the current query is for.
func (m *Mount) syncQueryLocked(user *domain.User) bool {
	if user == nil {
		if m.queryUser != "" || m.rolesLoading {
			m.gen++
			m.queryUser = ""
			m.rolesLoading = false
			m.userRoles = domain.NewRoleSet()
		}
		return false
	}
	if user.ID == m.queryUser {
		return m.rolesLoading
	}

	m.gen++
	m.queryUser = user.ID
	m.rolesLoading = true
	m.userRoles = domain.NewRoleSet()

	gen, userID := m.gen, user.ID
	m.wg.Add(1)
	go m.fetch(gen, userID)
	return true
}

func (m *Mount) fetch(gen uint64, userID string) {
	defer m.wg.Done()

	res := m.roles.Refetch(m.ctx, userID)

	m.mu.Lock()
	if m.unmounted || gen != m.gen {
		m.mu.Unlock()
		m.log.Debug().Str("user_id", userID).Msg("discarding stale role response")
		return
	}
	m.userRoles = res.Roles
	m.rolesLoading = false
	m.mu.Unlock()

	m.notify()
}

// notify wakes every Wait blocked on the current change channel.
func (m *Mount) notify() {
	m.mu.Lock()
	close(m.changed)
	m.changed = make(chan struct{})
	m.mu.Unlock()
}
