package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultIdleTimeout   = 30 * time.Minute
	DefaultSweepInterval = time.Minute
)

// MonitorConfig tunes the inactivity monitor. Zero values take the defaults.
type MonitorConfig struct {
	IdleTimeout   time.Duration
	SweepInterval time.Duration
}

// SignOuter ends the current session.
type SignOuter interface {
	SignOut(ctx context.Context) error
}

// Monitor signs the user out after IdleTimeout without activity and sweeps
// the expired remember token every SweepInterval. It only runs while
// attached.
type Monitor struct {
	cfg      MonitorConfig
	clock    Clock
	bus      *ActivityBus
	store    KVStore
	auth     SignOuter
	notifier Notifier
	log      zerolog.Logger

	mu           sync.Mutex
	attached     bool
	gen          uint64
	idleSeq      uint64
	idle         Timer
	sweep        Timer
	unsubscribe  func()
	lastActivity time.Time
}

func NewMonitor(cfg MonitorConfig, clock Clock, bus *ActivityBus, store KVStore, auth SignOuter, notifier Notifier, log zerolog.Logger) *Monitor {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}
	return &Monitor{
		cfg:      cfg,
		clock:    clock,
		bus:      bus,
		store:    store,
		auth:     auth,
		notifier: notifier,
		log:      log,
	}
}

// Attach starts listening for activity and arms both timers.
func (m *Monitor) Attach() {
	m.mu.Lock()
	if m.attached {
		m.mu.Unlock()
		return
	}
	m.attached = true
	m.gen++
	gen := m.gen
	m.lastActivity = m.clock.Now()
	m.armIdleLocked()
	m.sweep = m.clock.AfterFunc(m.cfg.SweepInterval, func() { m.onSweep(gen) })
	m.mu.Unlock()

	unsubscribe := m.bus.Subscribe(m.onActivity)

	m.mu.Lock()
	if m.attached && m.gen == gen {
		m.unsubscribe = unsubscribe
		unsubscribe = nil
	}
	m.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// Detach stops every timer and listener. It is safe to call repeatedly.
func (m *Monitor) Detach() {
	m.mu.Lock()
	unsubscribe := m.detachLocked()
	m.mu.Unlock()
	unsubscribe()
}

// Attached reports whether the monitor is running.
func (m *Monitor) Attached() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attached
}

// LastActivity returns the time of the most recent activity signal.
func (m *Monitor) LastActivity() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastActivity
}

func (m *Monitor) onActivity(s Signal) {
	if !IsActivity(s) {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.attached {
		return
	}
	m.lastActivity = m.clock.Now()
	m.armIdleLocked()
}

func (m *Monitor) onIdle(gen, seq uint64) {
	m.mu.Lock()
	if !m.attached || gen != m.gen || seq != m.idleSeq {
		m.mu.Unlock()
		return
	}
	unsubscribe := m.detachLocked()
	m.mu.Unlock()
	unsubscribe()

	m.log.Info().Dur("idle_timeout", m.cfg.IdleTimeout).Msg("session expired after inactivity")
	if err := m.auth.SignOut(context.Background()); err != nil {
		m.log.Warn().Err(err).Msg("sign-out after inactivity failed")
	}
	m.notifier.SessionExpired()
}

func (m *Monitor) onSweep(gen uint64) {
	m.mu.Lock()
	if !m.attached || gen != m.gen {
		m.mu.Unlock()
		return
	}
	m.sweep = m.clock.AfterFunc(m.cfg.SweepInterval, func() { m.onSweep(gen) })
	m.mu.Unlock()

	removed, err := SweepRememberToken(context.Background(), m.store, m.clock.Now())
	if err != nil {
		m.log.Warn().Err(err).Msg("remember token sweep failed")
		return
	}
	if removed {
		m.log.Info().Msg("expired remember token removed")
	}
}

func (m *Monitor) armIdleLocked() {
	if m.idle != nil {
		m.idle.Stop()
	}
	m.idleSeq++
	gen, seq := m.gen, m.idleSeq
	m.idle = m.clock.AfterFunc(m.cfg.IdleTimeout, func() { m.onIdle(gen, seq) })
}

// detachLocked tears down timers and returns the listener removal, which
// must run after m.mu is released.
func (m *Monitor) detachLocked() func() {
	if !m.attached {
		return func() {}
	}
	m.attached = false
	m.gen++
	if m.idle != nil {
		m.idle.Stop()
		m.idle = nil
	}
	if m.sweep != nil {
		m.sweep.Stop()
		m.sweep = nil
	}
	unsubscribe := m.unsubscribe
	m.unsubscribe = nil
	if unsubscribe == nil {
		return func() {}
	}
	return unsubscribe
}
