package session

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/estatehub/marketplace-access/internal/core/domain"
)

// AuthObserver exposes the signed-in user and change notifications.
type AuthObserver interface {
	Snapshot() (user *domain.User, loading bool)
	Subscribe(fn func()) (unsubscribe func())
}

// Provider wraps the authenticated part of the application: it runs the
// Monitor and Heartbeat while a user is signed in and tears both down when
// the user goes away.
type Provider struct {
	auth      AuthObserver
	monitor   *Monitor
	heartbeat *Heartbeat
	log       zerolog.Logger

	mu          sync.Mutex
	started     bool
	closed      bool
	current     string
	unsubscribe func()
}

func NewProvider(auth AuthObserver, monitor *Monitor, heartbeat *Heartbeat, log zerolog.Logger) *Provider {
	return &Provider{auth: auth, monitor: monitor, heartbeat: heartbeat, log: log}
}

// Start begins following auth changes.
func (p *Provider) Start() {
	p.mu.Lock()
	if p.started || p.closed {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	unsubscribe := p.auth.Subscribe(p.sync)

	p.mu.Lock()
	p.unsubscribe = unsubscribe
	p.mu.Unlock()

	p.sync()
}

// Close detaches everything and stops following auth changes.
func (p *Provider) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	unsubscribe := p.unsubscribe
	p.unsubscribe = nil
	p.detachLocked()
	p.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (p *Provider) sync() {
	user, _ := p.auth.Snapshot()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}

	switch {
	case user == nil && p.current != "":
		p.log.Debug().Str("user_id", p.current).Msg("user signed out, detaching session monitors")
		p.detachLocked()
	case user != nil && user.ID != p.current:
		p.detachLocked()
		p.current = user.ID
		p.monitor.Attach()
		p.heartbeat.Attach(user)
		p.log.Debug().Str("user_id", user.ID).Msg("session monitors attached")
	}
}

func (p *Provider) detachLocked() {
	p.monitor.Detach()
	p.heartbeat.Detach()
	p.current = ""
}
