package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/estatehub/marketplace-access/internal/core/domain"
)

type recordingService struct {
	mu   sync.Mutex
	seen []domain.Heartbeat
	done chan struct{}
	want int
}

func (s *recordingService) Process(_ context.Context, hb domain.Heartbeat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, hb)
	if len(s.seen) == s.want {
		close(s.done)
	}
	return nil
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(8, &recordingService{}, zerolog.Nop())
	first := d.shardIndex("user-42")
	for i := 0; i < 10; i++ {
		if got := d.shardIndex("user-42"); got != first {
			t.Fatalf("shard index changed: %d != %d", got, first)
		}
	}
	if first < 0 || first >= 8 {
		t.Fatalf("shard index out of range: %d", first)
	}
}

func TestDispatcher_PreservesPerUserOrder(t *testing.T) {
	svc := &recordingService{done: make(chan struct{}), want: 5}
	d := NewDispatcher(3, svc, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if !d.Enqueue(domain.Heartbeat{UserID: "u1", Fingerprint: "fp", SentAt: base.Add(time.Duration(i) * time.Minute)}) {
			t.Fatalf("enqueue %d dropped", i)
		}
	}

	select {
	case <-svc.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for workers")
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()
	for i, hb := range svc.seen {
		if !hb.SentAt.Equal(base.Add(time.Duration(i) * time.Minute)) {
			t.Fatalf("heartbeat %d out of order: %v", i, hb.SentAt)
		}
	}
}

func TestDispatcher_DropsWhenShardFull(t *testing.T) {
	d := NewDispatcher(1, &recordingService{}, zerolog.Nop())
	// Workers are not started, so the single shard fills up.
	for i := 0; i < channelBuffer; i++ {
		if !d.Enqueue(domain.Heartbeat{UserID: "u1", Fingerprint: "fp"}) {
			t.Fatalf("enqueue %d dropped early", i)
		}
	}
	if d.Enqueue(domain.Heartbeat{UserID: "u1", Fingerprint: "fp"}) {
		t.Fatalf("expected drop once the shard is full")
	}
}
