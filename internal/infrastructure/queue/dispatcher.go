package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/estatehub/marketplace-access/internal/api/metrics"
	"github.com/estatehub/marketplace-access/internal/core/domain"
	"github.com/estatehub/marketplace-access/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher routes heartbeats to a fixed set of workers using consistent
// hashing on the user ID, so one user's pings are applied in arrival order.
type Dispatcher struct {
	workers []chan domain.Heartbeat
	service ports.HeartbeatService
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.HeartbeatService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.Heartbeat, numWorkers),
		service: service,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.Heartbeat, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands a heartbeat to the worker responsible for its user. It never
// blocks: heartbeats are telemetry, so a full shard drops the ping.
func (d *Dispatcher) Enqueue(hb domain.Heartbeat) bool {
	idx := d.shardIndex(hb.UserID)
	select {
	case d.workers[idx] <- hb:
		metrics.HeartbeatQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
		metrics.HeartbeatsTotal.WithLabelValues("accepted").Inc()
		return true
	default:
		metrics.HeartbeatsTotal.WithLabelValues("dropped").Inc()
		d.log.Warn().Str("user_id", hb.UserID).Int("worker_id", idx).Msg("heartbeat queue full, dropping ping")
		return false
	}
}

// shardIndex maps a user ID deterministically to a worker index.
func (d *Dispatcher) shardIndex(userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.Heartbeat) {
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case hb, ok := <-ch:
			if !ok {
				return
			}
			metrics.HeartbeatQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			if err := d.service.Process(ctx, hb); err != nil {
				d.log.Error().Err(err).
					Str("user_id", hb.UserID).
					Int("worker_id", id).
					Msg("heartbeat processing failed")
			}
		}
	}
}
