package ports

import (
	"context"
	"time"

	"github.com/estatehub/marketplace-access/internal/core/domain"
)

// SessionRepository stores the last heartbeat per user device.
type SessionRepository interface {
	Touch(ctx context.Context, hb domain.Heartbeat) error
	DeleteIdleSince(ctx context.Context, cutoff time.Time) (int64, error)
}

// HeartbeatService validates and persists a single heartbeat.
type HeartbeatService interface {
	Process(ctx context.Context, hb domain.Heartbeat) error
}

// HeartbeatQueue hands heartbeats to background workers. Enqueue reports
// false when the ping was dropped.
type HeartbeatQueue interface {
	Enqueue(hb domain.Heartbeat) bool
}
