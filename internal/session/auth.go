package session

import (
	"context"
	"sync"

	"github.com/estatehub/marketplace-access/internal/core/domain"
)

// AuthState holds the signed-in user. It starts out loading until the
// first SetUser or SignOut.
type AuthState struct {
	mu      sync.Mutex
	user    *domain.User
	token   string
	loading bool
	subs    map[int]func()
	next    int

	onSignOut func(ctx context.Context) error
}

// NewAuthState returns a loading AuthState. onSignOut, when set, runs after
// local state is cleared, e.g. to drop server-side credentials.
func NewAuthState(onSignOut func(ctx context.Context) error) *AuthState {
	return &AuthState{loading: true, subs: make(map[int]func()), onSignOut: onSignOut}
}

// Snapshot returns the current user and whether auth is still resolving.
func (a *AuthState) Snapshot() (*domain.User, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.user, a.loading
}

// Token returns the access token of the signed-in user.
func (a *AuthState) Token() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token
}

// SetUser marks user as signed in with token.
func (a *AuthState) SetUser(user *domain.User, token string) {
	a.mu.Lock()
	a.user, a.token, a.loading = user, token, false
	a.mu.Unlock()
	a.publish()
}

// SignOut clears the user. Calling it with nobody signed in only resolves
// the loading state.
func (a *AuthState) SignOut(ctx context.Context) error {
	a.mu.Lock()
	hadUser := a.user != nil
	a.user, a.token, a.loading = nil, "", false
	a.mu.Unlock()
	a.publish()

	if hadUser && a.onSignOut != nil {
		return a.onSignOut(ctx)
	}
	return nil
}

// Subscribe registers fn to run after every auth change.
func (a *AuthState) Subscribe(fn func()) (unsubscribe func()) {
	a.mu.Lock()
	id := a.next
	a.next++
	a.subs[id] = fn
	a.mu.Unlock()

	return func() {
		a.mu.Lock()
		delete(a.subs, id)
		a.mu.Unlock()
	}
}

func (a *AuthState) publish() {
	a.mu.Lock()
	fns := make([]func(), 0, len(a.subs))
	for _, fn := range a.subs {
		fns = append(fns, fn)
	}
	a.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
