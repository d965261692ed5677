package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/estatehub/marketplace-access/internal/core/domain"
)

type stubRememberRepo struct {
	calls   []time.Time
	deleted int64
	err     error
}

func (r *stubRememberRepo) Save(context.Context, domain.RememberToken) error { return nil }
func (r *stubRememberRepo) Find(context.Context, string) (*domain.RememberToken, error) {
	return nil, domain.ErrRememberTokenUnknown
}
func (r *stubRememberRepo) Delete(context.Context, string) error { return nil }
func (r *stubRememberRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.calls = append(r.calls, now)
	return r.deleted, r.err
}

type stubSessionRepo struct {
	cutoffs []time.Time
	deleted int64
}

func (r *stubSessionRepo) Touch(context.Context, domain.Heartbeat) error { return nil }
func (r *stubSessionRepo) DeleteIdleSince(_ context.Context, cutoff time.Time) (int64, error) {
	r.cutoffs = append(r.cutoffs, cutoff)
	return r.deleted, nil
}

var fixedNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func newTestScheduler(remember *stubRememberRepo, sessions *stubSessionRepo, cfg Config) *Scheduler {
	s := NewScheduler(remember, sessions, cfg, zerolog.Nop())
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestScheduler_PurgeRememberTokens(t *testing.T) {
	repo := &stubRememberRepo{deleted: 3}
	s := newTestScheduler(repo, &stubSessionRepo{}, Config{})

	s.purgeRememberTokens()

	if len(repo.calls) != 1 || !repo.calls[0].Equal(fixedNow) {
		t.Fatalf("expected one purge at %v, got %v", fixedNow, repo.calls)
	}
}

func TestScheduler_PurgeRememberTokens_ErrorIsSwallowed(t *testing.T) {
	repo := &stubRememberRepo{err: errors.New("mongo down")}
	s := newTestScheduler(repo, &stubSessionRepo{}, Config{})

	s.purgeRememberTokens()

	if len(repo.calls) != 1 {
		t.Fatalf("expected one attempt, got %d", len(repo.calls))
	}
}

func TestScheduler_PurgeIdleSessions_UsesMaxIdle(t *testing.T) {
	sessions := &stubSessionRepo{deleted: 1}
	s := newTestScheduler(&stubRememberRepo{}, sessions, Config{SessionMaxIdle: 2 * time.Hour})

	s.purgeIdleSessions()

	want := fixedNow.Add(-2 * time.Hour)
	if len(sessions.cutoffs) != 1 || !sessions.cutoffs[0].Equal(want) {
		t.Fatalf("expected cutoff %v, got %v", want, sessions.cutoffs)
	}
}

func TestScheduler_Defaults(t *testing.T) {
	s := NewScheduler(nil, nil, Config{}, zerolog.Nop())
	if s.cfg.RememberTokenPurge != "@every 10m" || s.cfg.SessionPurge != "@hourly" || s.cfg.SessionMaxIdle != 24*time.Hour {
		t.Fatalf("unexpected defaults: %+v", s.cfg)
	}
}

func TestScheduler_StartRejectsBadSpec(t *testing.T) {
	s := newTestScheduler(&stubRememberRepo{}, &stubSessionRepo{}, Config{RememberTokenPurge: "not a schedule"})
	if err := s.Start(); err == nil {
		<-s.Stop().Done()
		t.Fatalf("expected an error for an invalid schedule")
	}
}

func TestScheduler_StartStop(t *testing.T) {
	s := newTestScheduler(&stubRememberRepo{}, &stubSessionRepo{}, Config{})
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(s.cron.Entries()) != 2 {
		t.Fatalf("expected two jobs, got %d", len(s.cron.Entries()))
	}

	select {
	case <-s.Stop().Done():
	case <-time.After(time.Second):
		t.Fatalf("scheduler did not stop")
	}
}
