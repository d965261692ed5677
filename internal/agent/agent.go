// Package agent is a headless marketplace client session. It signs in,
// keeps the session alive under the lifecycle monitor, and mounts route
// guards for navigation commands.
package agent

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/estatehub/marketplace-access/internal/core/domain"
	"github.com/estatehub/marketplace-access/internal/core/service"
	"github.com/estatehub/marketplace-access/internal/guard"
	"github.com/estatehub/marketplace-access/internal/infrastructure/backend"
	"github.com/estatehub/marketplace-access/internal/infrastructure/cache"
	"github.com/estatehub/marketplace-access/internal/session"
)

const defaultNavigateTimeout = 10 * time.Second

// Options configures an Agent. Zero durations take the session defaults.
type Options struct {
	BackendURL string
	HTTPClient *http.Client
	Email      string
	Password   string
	Remember   bool
	Device     domain.DeviceInfo

	IdleTimeout       time.Duration
	SweepInterval     time.Duration
	HeartbeatInterval time.Duration
	RoleCacheTTL      time.Duration
	NavigateTimeout   time.Duration

	Routes guard.Routes
	Clock  session.Clock
}

// Agent is one signed-in client session.
type Agent struct {
	opts     Options
	store    session.KVStore
	client   *backend.Client
	auth     *session.AuthState
	roles    *service.RoleQuery
	bus      *session.ActivityBus
	env      *environment
	provider *session.Provider
	log      zerolog.Logger

	outMu sync.Mutex
	out   io.Writer

	mu    sync.Mutex
	path  string
	mount *guard.Mount
}

// New wires an Agent on top of store. Output for the operator goes to out.
func New(opts Options, store session.KVStore, out io.Writer, log zerolog.Logger) *Agent {
	if opts.Routes == nil {
		opts.Routes = guard.DefaultRoutes()
	}
	if opts.Clock == nil {
		opts.Clock = session.SystemClock()
	}
	if opts.NavigateTimeout <= 0 {
		opts.NavigateTimeout = defaultNavigateTimeout
	}

	a := &Agent{
		opts:  opts,
		store: store,
		bus:   session.NewActivityBus(),
		env:   newEnvironment(),
		log:   log,
		out:   out,
		path:  guard.DefaultFallback,
	}

	a.auth = session.NewAuthState(nil)
	a.client = backend.New(opts.BackendURL, opts.HTTPClient, a.auth.Token)
	a.roles = service.NewRoleQuery(a.client, cache.NewMemoryRoleCache(), opts.RoleCacheTTL, log.With().Str("component", "roles").Logger())

	notifier := session.NotifierFuncs{
		OnSessionExpired: func() { a.printf("session expired: signed out after inactivity") },
		OnReauthRequired: func() { a.printf("session rejected by server: sign in again") },
	}
	monitor := session.NewMonitor(
		session.MonitorConfig{IdleTimeout: opts.IdleTimeout, SweepInterval: opts.SweepInterval},
		opts.Clock, a.bus, store, a.auth, notifier,
		log.With().Str("component", "monitor").Logger(),
	)
	heartbeat := session.NewHeartbeat(
		session.HeartbeatConfig{Interval: opts.HeartbeatInterval, Device: opts.Device},
		opts.Clock, a.client, a.env, store, notifier,
		log.With().Str("component", "heartbeat").Logger(),
	)
	a.provider = session.NewProvider(a.auth, monitor, heartbeat, log.With().Str("component", "provider").Logger())
	return a
}

// Auth exposes the agent's auth state.
func (a *Agent) Auth() *session.AuthState { return a.auth }

// Activity exposes the bus activity signals are published on.
func (a *Agent) Activity() *session.ActivityBus { return a.bus }

// Path is the path the agent is currently on.
func (a *Agent) Path() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.path
}

// SignIn resolves the initial auth state: a stored remember token is tried
// first, then the configured credentials. With neither, the agent stays
// anonymous. The session monitors start either way.
func (a *Agent) SignIn(ctx context.Context) error {
	a.provider.Start()

	if _, err := session.SweepRememberToken(ctx, a.store, a.opts.Clock.Now()); err != nil {
		a.log.Warn().Err(err).Msg("remember token sweep failed")
	}

	rt, err := session.LoadRememberToken(ctx, a.store)
	if err != nil {
		a.log.Warn().Err(err).Msg("read remember token failed")
	}
	if rt != nil {
		res, err := a.client.Refresh(ctx, rt.Token)
		if err == nil {
			a.accept(ctx, res)
			a.printf("signed in as %s (remembered)", res.User.Email)
			return nil
		}
		a.log.Info().Err(err).Msg("remember token refused, falling back to credentials")
		if errors.Is(err, domain.ErrReauthRequired) {
			if err := session.ClearRememberToken(ctx, a.store); err != nil {
				a.log.Warn().Err(err).Msg("clear remember token failed")
			}
		}
	}

	if a.opts.Email == "" {
		_ = a.auth.SignOut(ctx)
		a.printf("browsing anonymously")
		return nil
	}

	res, err := a.client.Login(ctx, a.opts.Email, a.opts.Password, a.opts.Remember)
	if err != nil {
		_ = a.auth.SignOut(ctx)
		return err
	}
	a.accept(ctx, res)
	a.printf("signed in as %s", res.User.Email)
	return nil
}

func (a *Agent) accept(ctx context.Context, res *backend.LoginResponse) {
	if res.Remember != nil {
		if err := session.SaveRememberToken(ctx, a.store, *res.Remember); err != nil {
			a.log.Warn().Err(err).Msg("store remember token failed")
		}
	}
	a.auth.SetUser(res.User, res.Token)
}

// SignOut ends the session for good: unlike an idle timeout, it also
// forgets the remember token.
func (a *Agent) SignOut(ctx context.Context) error {
	if err := a.auth.SignOut(ctx); err != nil {
		return err
	}
	return session.ClearRememberToken(ctx, a.store)
}

// Navigate mounts the guard for path, if any, and waits for its decision.
// A denial lands the agent on the guard's fallback.
func (a *Agent) Navigate(ctx context.Context, path string) (guard.Decision, error) {
	a.mu.Lock()
	prev := a.mount
	a.mount = nil
	a.path = path
	a.mu.Unlock()
	if prev != nil {
		prev.Unmount()
	}

	g, ok := a.opts.Routes.Match(path)
	if !ok {
		return guard.Decision{State: guard.StateAllowed}, nil
	}

	nav := guard.NavigatorFunc(func(to string, _ guard.NavigateOptions) {
		a.mu.Lock()
		a.path = to
		a.mu.Unlock()
	})
	m := guard.NewMount(ctx, g, a.auth, a.roles, nav, a.log)

	a.mu.Lock()
	a.mount = m
	a.mu.Unlock()

	waitCtx, cancel := context.WithTimeout(ctx, a.opts.NavigateTimeout)
	defer cancel()
	return m.Wait(waitCtx)
}

// Run reads commands from in until "quit", EOF or ctx ends:
//
//	nav <path>        mount the guard for path
//	logout            sign out and forget the remember token
//	hide | show       toggle page visibility
//	offline | online  toggle connectivity
//	whoami            print the session state
//	quit              stop
//
// Any other line counts as keyboard activity.
func (a *Agent) Run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if quit := a.handle(ctx, strings.TrimSpace(line)); quit {
				return nil
			}
		}
	}
}

func (a *Agent) handle(ctx context.Context, line string) (quit bool) {
	cmd, arg, _ := strings.Cut(line, " ")
	switch cmd {
	case "quit", "exit":
		return true
	case "nav":
		path := strings.TrimSpace(arg)
		if path == "" {
			a.printf("usage: nav <path>")
			return false
		}
		a.bus.Publish(session.SignalPointerDown)
		d, err := a.Navigate(ctx, path)
		if err != nil {
			a.printf("%s: %s (%v)", path, d.State, err)
			return false
		}
		if d.State == guard.StateDenied {
			a.printf("%s: denied, redirected to %s", path, d.Redirect)
			return false
		}
		a.printf("%s: %s", path, d.State)
	case "logout":
		if err := a.SignOut(ctx); err != nil {
			a.printf("sign out: %v", err)
			return false
		}
		a.printf("signed out")
	case "hide", "show":
		a.env.visible.Store(cmd == "show")
		a.printf("page %s", map[bool]string{true: "visible", false: "hidden"}[cmd == "show"])
	case "offline", "online":
		a.env.online.Store(cmd == "online")
		a.printf("network %s", cmd)
	case "whoami":
		user, loading := a.auth.Snapshot()
		switch {
		case loading:
			a.printf("auth loading")
		case user == nil:
			a.printf("anonymous at %s", a.Path())
		default:
			roles := a.roles.Roles(ctx, user.ID).Roles
			a.printf("%s (%s) at %s", user.Email, strings.Join(roles.Strings(), ","), a.Path())
		}
	case "":
	default:
		a.bus.Publish(session.SignalKeyDown)
	}
	return false
}

// Close unmounts the current guard and stops the session monitors.
func (a *Agent) Close() {
	a.mu.Lock()
	m := a.mount
	a.mount = nil
	a.mu.Unlock()
	if m != nil {
		m.Unmount()
	}
	a.provider.Close()
}

func (a *Agent) printf(format string, args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintf(a.out, format+"\n", args...)
}

// environment is the agent's stand-in for page visibility and network state.
type environment struct {
	visible atomic.Bool
	online  atomic.Bool
}

func newEnvironment() *environment {
	e := &environment{}
	e.visible.Store(true)
	e.online.Store(true)
	return e
}

func (e *environment) Visible() bool { return e.visible.Load() }
func (e *environment) Online() bool  { return e.online.Load() }
