package session

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/estatehub/marketplace-access/internal/core/domain"
)

type providerFixture struct {
	clock    *fakeClock
	bus      *ActivityBus
	auth     *AuthState
	client   *stubHeartbeatClient
	notifier *countingNotifier
	provider *Provider
	monitor  *Monitor
	hb       *Heartbeat
}

func newProviderFixture() *providerFixture {
	f := &providerFixture{
		clock:    newFakeClock(),
		bus:      NewActivityBus(),
		auth:     NewAuthState(nil),
		client:   &stubHeartbeatClient{},
		notifier: &countingNotifier{},
	}
	store := NewMemoryStore()
	env := StaticEnvironment{IsVisible: true, IsOnline: true}
	f.monitor = NewMonitor(MonitorConfig{}, f.clock, f.bus, store, f.auth, f.notifier, zerolog.Nop())
	f.hb = NewHeartbeat(HeartbeatConfig{Device: device}, f.clock, f.client, env, store, f.notifier, zerolog.Nop())
	f.provider = NewProvider(f.auth, f.monitor, f.hb, zerolog.Nop())
	return f
}

func TestProvider_AttachesOnlyWithUser(t *testing.T) {
	f := newProviderFixture()
	f.provider.Start()
	defer f.provider.Close()

	if f.monitor.Attached() || f.hb.Attached() {
		t.Fatalf("attached while auth is loading")
	}

	f.auth.SetUser(&domain.User{ID: "u1"}, "tok")
	if !f.monitor.Attached() || !f.hb.Attached() {
		t.Fatalf("expected monitors attached after sign-in")
	}

	if err := f.auth.SignOut(context.Background()); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if f.monitor.Attached() || f.hb.Attached() {
		t.Fatalf("monitors still attached after sign-out")
	}
	if f.bus.Listeners() != 0 || f.clock.Active() != 0 {
		t.Fatalf("dangling listeners=%d timers=%d", f.bus.Listeners(), f.clock.Active())
	}
}

func TestProvider_NoTimersSurviveSignInCycles(t *testing.T) {
	f := newProviderFixture()
	f.provider.Start()
	defer f.provider.Close()

	for i := 0; i < 3; i++ {
		f.auth.SetUser(&domain.User{ID: "u1"}, "tok")
		f.clock.Advance(10 * time.Minute)
		_ = f.auth.SignOut(context.Background())
	}

	if f.clock.Active() != 0 || f.bus.Listeners() != 0 {
		t.Fatalf("timers=%d listeners=%d after cycles", f.clock.Active(), f.bus.Listeners())
	}
	// Two pings per 10-minute window, one window per cycle.
	if f.client.count() != 6 {
		t.Fatalf("expected 6 pings, got %d", f.client.count())
	}
}

func TestProvider_IdleExpirySignsOutAndDetachesHeartbeat(t *testing.T) {
	f := newProviderFixture()
	f.provider.Start()
	defer f.provider.Close()

	f.auth.SetUser(&domain.User{ID: "u1"}, "tok")
	f.clock.Advance(30 * time.Minute)

	if user, _ := f.auth.Snapshot(); user != nil {
		t.Fatalf("user still signed in after idle timeout")
	}
	if f.notifier.expired != 1 {
		t.Fatalf("expected one expiry notice, got %d", f.notifier.expired)
	}
	if f.hb.Attached() || f.clock.Active() != 0 {
		t.Fatalf("heartbeat kept running after expiry")
	}
}

func TestProvider_UserSwitchReattaches(t *testing.T) {
	f := newProviderFixture()
	f.provider.Start()
	defer f.provider.Close()

	f.auth.SetUser(&domain.User{ID: "u1"}, "tok1")
	f.clock.Advance(20 * time.Minute)
	f.auth.SetUser(&domain.User{ID: "u2"}, "tok2")

	f.clock.Advance(20 * time.Minute)
	if user, _ := f.auth.Snapshot(); user == nil || user.ID != "u2" {
		t.Fatalf("switching users must restart the idle timer")
	}
	if f.client.pings[len(f.client.pings)-1].UserID != "u2" {
		t.Fatalf("heartbeat still pinging for the previous user")
	}
}

func TestProvider_CloseDetaches(t *testing.T) {
	f := newProviderFixture()
	f.provider.Start()
	f.auth.SetUser(&domain.User{ID: "u1"}, "tok")

	f.provider.Close()
	if f.monitor.Attached() || f.hb.Attached() || f.clock.Active() != 0 {
		t.Fatalf("close left session monitors running")
	}

	f.auth.SetUser(&domain.User{ID: "u2"}, "tok")
	if f.monitor.Attached() {
		t.Fatalf("closed provider reacted to auth change")
	}
}
