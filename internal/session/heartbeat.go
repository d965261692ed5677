package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/estatehub/marketplace-access/internal/core/domain"
)

const (
	DefaultHeartbeatInterval = 5 * time.Minute
	defaultHeartbeatTimeout  = 10 * time.Second
)

// Environment reports tab visibility and network reachability.
type Environment interface {
	Visible() bool
	Online() bool
}

// StaticEnvironment is an Environment with fixed answers.
type StaticEnvironment struct {
	IsVisible bool
	IsOnline  bool
}

func (e StaticEnvironment) Visible() bool { return e.IsVisible }
func (e StaticEnvironment) Online() bool  { return e.IsOnline }

// HeartbeatClient delivers a ping to the server. It returns an error
// wrapping domain.ErrReauthRequired on 401/403/JWT failures.
type HeartbeatClient interface {
	Heartbeat(ctx context.Context, hb domain.Heartbeat) error
}

// HeartbeatConfig tunes the heartbeat loop. Zero values take the defaults.
type HeartbeatConfig struct {
	Interval time.Duration
	Timeout  time.Duration
	Device   domain.DeviceInfo
}

// Heartbeat pings the server on a fixed interval while attached, skipping
// ticks while the tab is hidden or the network is down.
type Heartbeat struct {
	cfg      HeartbeatConfig
	clock    Clock
	client   HeartbeatClient
	env      Environment
	store    KVStore
	notifier Notifier
	log      zerolog.Logger

	mu       sync.Mutex
	attached bool
	gen      uint64
	userID   string
	timer    Timer
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewHeartbeat(cfg HeartbeatConfig, clock Clock, client HeartbeatClient, env Environment, store KVStore, notifier Notifier, log zerolog.Logger) *Heartbeat {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultHeartbeatInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultHeartbeatTimeout
	}
	return &Heartbeat{
		cfg:      cfg,
		clock:    clock,
		client:   client,
		env:      env,
		store:    store,
		notifier: notifier,
		log:      log,
	}
}

// Attach starts pinging on behalf of user.
func (h *Heartbeat) Attach(user *domain.User) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.attached || user == nil {
		return
	}
	h.attached = true
	h.gen++
	h.userID = user.ID
	h.ctx, h.cancel = context.WithCancel(context.Background())
	gen := h.gen
	h.timer = h.clock.AfterFunc(h.cfg.Interval, func() { h.tick(gen) })
}

// Detach stops the loop and cancels any in-flight ping.
func (h *Heartbeat) Detach() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.attached {
		return
	}
	h.attached = false
	h.gen++
	h.userID = ""
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// Attached reports whether the loop is running.
func (h *Heartbeat) Attached() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.attached
}

func (h *Heartbeat) tick(gen uint64) {
	h.mu.Lock()
	if !h.attached || gen != h.gen {
		h.mu.Unlock()
		return
	}
	h.timer = h.clock.AfterFunc(h.cfg.Interval, func() { h.tick(gen) })
	ctx, userID := h.ctx, h.userID
	h.mu.Unlock()

	if !h.env.Visible() || !h.env.Online() {
		h.log.Debug().Bool("visible", h.env.Visible()).Bool("online", h.env.Online()).Msg("heartbeat skipped")
		return
	}

	err := h.send(ctx, userID)

	h.mu.Lock()
	stale := !h.attached || gen != h.gen
	h.mu.Unlock()
	if stale {
		return
	}

	switch {
	case err == nil:
	case errors.Is(err, domain.ErrReauthRequired):
		h.log.Warn().Err(err).Msg("heartbeat rejected, re-authentication required")
		h.notifier.ReauthRequired()
	default:
		h.log.Debug().Err(err).Msg("heartbeat failed")
	}
}

func (h *Heartbeat) send(ctx context.Context, userID string) error {
	fp, err := EnsureFingerprint(ctx, h.store, h.cfg.Device)
	if err != nil {
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, h.cfg.Timeout)
	defer cancel()

	return h.client.Heartbeat(callCtx, domain.Heartbeat{
		UserID:      userID,
		Fingerprint: fp,
		Device:      h.cfg.Device,
		SentAt:      h.clock.Now().UTC(),
	})
}
