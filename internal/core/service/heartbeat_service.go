package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/estatehub/marketplace-access/internal/api/metrics"
	"github.com/estatehub/marketplace-access/internal/core/domain"
	"github.com/estatehub/marketplace-access/internal/core/ports"
)

// maxClockSkew bounds how far in the future a client timestamp may be.
const maxClockSkew = 5 * time.Minute

type heartbeatService struct {
	repo ports.SessionRepository
	log  zerolog.Logger
	now  func() time.Time
}

// NewHeartbeatService returns a HeartbeatService implementation.
func NewHeartbeatService(repo ports.SessionRepository, log zerolog.Logger) ports.HeartbeatService {
	return &heartbeatService{
		repo: repo,
		log:  log,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Process validates a heartbeat and records it as the device's last-seen time.
func (s *heartbeatService) Process(ctx context.Context, hb domain.Heartbeat) error {
	hb.Fingerprint = strings.TrimSpace(hb.Fingerprint)
	if hb.UserID == "" || hb.Fingerprint == "" {
		metrics.HeartbeatsTotal.WithLabelValues("error").Inc()
		return domain.ErrInvalidHeartbeat
	}

	// Client clocks are untrusted; clamp anything outside the skew window.
	now := s.now()
	if hb.SentAt.IsZero() || hb.SentAt.After(now.Add(maxClockSkew)) {
		hb.SentAt = now
	}

	if err := s.repo.Touch(ctx, hb); err != nil {
		metrics.HeartbeatsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("process heartbeat: %w", err)
	}

	metrics.HeartbeatsTotal.WithLabelValues("stored").Inc()
	s.log.Debug().
		Str("user_id", hb.UserID).
		Str("fingerprint", hb.Fingerprint).
		Str("device_type", hb.Device.DeviceType).
		Msg("heartbeat recorded")
	return nil
}
