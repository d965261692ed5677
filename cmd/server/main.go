// Command server runs the marketplace access service.
//
// @title                       Marketplace Access API
// @version                     1.0
// @description                 Role checks, route guards and session heartbeats for the property marketplace.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/estatehub/marketplace-access/internal/api"
	"github.com/estatehub/marketplace-access/internal/api/handler"
	"github.com/estatehub/marketplace-access/internal/core/service"
	mongodb "github.com/estatehub/marketplace-access/internal/infrastructure/db/mongo"
	redisdb "github.com/estatehub/marketplace-access/internal/infrastructure/db/redis"
	"github.com/estatehub/marketplace-access/internal/infrastructure/queue"
	"github.com/estatehub/marketplace-access/internal/jobs"
	"github.com/estatehub/marketplace-access/internal/pkg/config"
	"github.com/estatehub/marketplace-access/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "marketplace-access",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  cfg.Mongo.Timeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect mongodb")
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect redis")
	}

	// --- Repositories ---
	users := mongodb.NewAuthRepository(db)
	roleRepo := mongodb.NewRoleRepository(db)
	rememberRepo := mongodb.NewRememberTokenRepository(db)
	sessionRepo := mongodb.NewSessionRepository(db)

	if err := mongodb.EnsureIndexes(ctx, users, roleRepo, rememberRepo, sessionRepo); err != nil {
		log.Warn().Err(err).Msg("ensure indexes failed")
	}

	// --- Services ---
	roleQuery := service.NewRoleQuery(roleRepo, redisdb.NewRoleCache(rdb), cfg.RoleCacheTTL, logger.Component("roles"))
	roleAdmin := service.NewRoleAdminService(users, roleRepo, roleQuery, logger.Component("roles"))
	authService := service.NewAuthService(users, roleRepo, rememberRepo, cfg.JWTSecret, cfg.TokenTTL, cfg.RememberTTL)
	heartbeats := service.NewHeartbeatService(sessionRepo, logger.Component("heartbeat"))

	dispatcher := queue.NewDispatcher(cfg.HeartbeatWorkers, heartbeats, logger.Component("dispatcher"))
	dispatcher.Start(ctx)

	scheduler := jobs.NewScheduler(rememberRepo, sessionRepo, jobs.Config{
		RememberTokenPurge: cfg.Jobs.RememberTokenPurge,
		SessionPurge:       cfg.Jobs.SessionPurge,
		SessionMaxIdle:     cfg.Jobs.SessionMaxIdle,
	}, logger.Component("jobs"))
	if err := scheduler.Start(); err != nil {
		log.Error().Err(err).Msg("scheduler start failed")
	}

	e := api.NewRouter(api.Deps{
		JWTSecret:  cfg.JWTSecret,
		Auth:       authService,
		Roles:      roleQuery,
		RoleAdmin:  roleAdmin,
		Heartbeats: dispatcher,
		Readiness: map[string]handler.Check{
			"mongodb": func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) },
			"redis":   func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
		Log: logger.Component("http"),
	})

	go func() {
		addr := net.JoinHostPort("", cfg.Port)
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("http server starting")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	waitForShutdown(log, cfg.ShutdownTimeout, e, scheduler, mongoClient, rdb)
}

func waitForShutdown(log zerolog.Logger, timeout time.Duration, e *echo.Echo, scheduler *jobs.Scheduler, mongoClient *mongo.Client, rdb *goredis.Client) {
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		if err := e.Close(); err != nil {
			log.Error().Err(err).Msg("forced shutdown failed")
		}
	}

	select {
	case <-scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		log.Warn().Msg("scheduler jobs still running at shutdown")
	}

	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("mongodb disconnect error")
	}
	if err := rdb.Close(); err != nil {
		log.Error().Err(err).Msg("redis close error")
	}

	log.Info().Msg("server exited cleanly")
}
