// Package jobs runs the periodic cleanup of expired remember tokens and
// stale session records.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/estatehub/marketplace-access/internal/api/metrics"
	"github.com/estatehub/marketplace-access/internal/core/ports"
)

const (
	defaultRememberTokenSpec = "@every 10m"
	defaultSessionSpec       = "@hourly"
	defaultSessionMaxIdle    = 24 * time.Hour
	jobTimeout               = time.Minute
)

// Config holds the job schedules in cron syntax.
type Config struct {
	RememberTokenPurge string
	SessionPurge       string
	SessionMaxIdle     time.Duration
}

type Scheduler struct {
	cron     *cron.Cron
	remember ports.RememberTokenRepository
	sessions ports.SessionRepository
	cfg      Config
	log      zerolog.Logger
	now      func() time.Time
}

func NewScheduler(remember ports.RememberTokenRepository, sessions ports.SessionRepository, cfg Config, log zerolog.Logger) *Scheduler {
	if cfg.RememberTokenPurge == "" {
		cfg.RememberTokenPurge = defaultRememberTokenSpec
	}
	if cfg.SessionPurge == "" {
		cfg.SessionPurge = defaultSessionSpec
	}
	if cfg.SessionMaxIdle <= 0 {
		cfg.SessionMaxIdle = defaultSessionMaxIdle
	}

	cl := cronLogger{log: log}
	c := cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))
	return &Scheduler{
		cron:     c,
		remember: remember,
		sessions: sessions,
		cfg:      cfg,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Start registers the jobs and starts the cron loop. Jobs whose repository
// is nil are skipped.
func (s *Scheduler) Start() error {
	if s.remember != nil {
		if _, err := s.cron.AddFunc(s.cfg.RememberTokenPurge, s.purgeRememberTokens); err != nil {
			return fmt.Errorf("schedule remember token purge: %w", err)
		}
	}
	if s.sessions != nil {
		if _, err := s.cron.AddFunc(s.cfg.SessionPurge, s.purgeIdleSessions); err != nil {
			return fmt.Errorf("schedule session purge: %w", err)
		}
	}

	s.cron.Start()
	s.log.Info().
		Str("remember_tokens", s.cfg.RememberTokenPurge).
		Str("sessions", s.cfg.SessionPurge).
		Msg("scheduler started")
	return nil
}

// Stop halts the scheduler. The returned context is done once running jobs
// have finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) purgeRememberTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := s.remember.DeleteExpired(ctx, s.now())
	if err != nil {
		s.log.Error().Err(err).Msg("purge remember tokens failed")
		return
	}
	metrics.PurgedTotal.WithLabelValues("remember_tokens").Add(float64(n))
	if n > 0 {
		s.log.Info().Int64("count", n).Msg("purged expired remember tokens")
	}
}

func (s *Scheduler) purgeIdleSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	cutoff := s.now().Add(-s.cfg.SessionMaxIdle)
	n, err := s.sessions.DeleteIdleSince(ctx, cutoff)
	if err != nil {
		s.log.Error().Err(err).Msg("purge idle sessions failed")
		return
	}
	metrics.PurgedTotal.WithLabelValues("sessions").Add(float64(n))
	if n > 0 {
		s.log.Info().Int64("count", n).Time("cutoff", cutoff).Msg("purged idle sessions")
	}
}

// cronLogger routes robfig/cron diagnostics into zerolog.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
