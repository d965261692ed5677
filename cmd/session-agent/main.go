// Command session-agent runs a headless marketplace session: it signs in,
// keeps the session alive, and gates navigation commands read from stdin.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/estatehub/marketplace-access/internal/agent"
	redisdb "github.com/estatehub/marketplace-access/internal/infrastructure/db/redis"
	"github.com/estatehub/marketplace-access/internal/infrastructure/db/sqlite"
	"github.com/estatehub/marketplace-access/internal/pkg/config"
	"github.com/estatehub/marketplace-access/internal/session"
	"github.com/estatehub/marketplace-access/pkg/logger"
)

const version = "1.0"

func main() {
	cfg := config.LoadAgent()
	opts := logger.OptionsFor(cfg.Env, cfg.LogLevel, "session-agent")
	opts.Output = os.Stderr
	log := logger.Init(opts)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore := openStore(ctx, cfg, log)
	defer closeStore()

	a := agent.New(agent.Options{
		BackendURL:        cfg.BackendURL,
		Email:             cfg.Email,
		Password:          cfg.Password,
		Remember:          cfg.Remember,
		Device:            agent.LocalDevice(version),
		IdleTimeout:       cfg.IdleTimeout,
		SweepInterval:     cfg.SweepInterval,
		HeartbeatInterval: cfg.HeartbeatInterval,
		RoleCacheTTL:      cfg.RoleCacheTTL,
	}, store, os.Stdout, logger.Component("agent"))
	defer a.Close()

	signInCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err := a.SignIn(signInCtx)
	cancel()
	if err != nil {
		log.Error().Err(err).Msg("sign in failed, continuing anonymously")
	}

	if err := a.Run(ctx, os.Stdin); err != nil {
		log.Error().Err(err).Msg("reading commands failed")
	}
	log.Info().Msg("session agent exited")
}

func openStore(ctx context.Context, cfg *config.AgentConfig, log zerolog.Logger) (session.KVStore, func()) {
	switch cfg.StoreBackend {
	case "memory":
		return session.NewMemoryStore(), func() {}
	case "redis":
		client, err := redisdb.Connect(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect redis")
		}
		return redisdb.NewKVStore(client, cfg.StorePrefix), func() {
			if err := client.Close(); err != nil {
				log.Error().Err(err).Msg("redis close error")
			}
		}
	default:
		store, err := sqlite.Open(cfg.StorePath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.StorePath).Msg("failed to open session store")
		}
		return store, func() {
			if err := store.Close(); err != nil {
				log.Error().Err(err).Msg("session store close error")
			}
		}
	}
}
