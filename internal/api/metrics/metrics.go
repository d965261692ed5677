// Package metrics defines and registers all custom Prometheus metrics for the
// marketplace access service. It is the single source of truth for metric
// names, labels, and help strings.
//
// Metrics are registered with the default Prometheus registry at package
// init through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "marketplace_access"

// ── Guard metrics ─────────────────────────────────────────────────────────────

// GuardDecisionsTotal counts route guard outcomes.
// Labels:
//   - guard: guard name (e.g. "admin", "public_only")
//   - state: "loading", "denied" or "allowed"
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of route guard decisions, by guard and resulting state.",
	},
	[]string{"guard", "state"},
)

// ── Role metrics ──────────────────────────────────────────────────────────────

// RoleCacheTotal counts role cache lookups.
// Label:
//   - result: "hit" or "miss"
var RoleCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "role_cache_total",
		Help:      "Total number of role cache lookups, labelled by result (hit/miss).",
	},
	[]string{"result"},
)

// RoleFetchFailuresTotal counts role fetches that degraded to an empty set.
var RoleFetchFailuresTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "role_fetch_failures_total",
		Help:      "Total number of role fetches that failed and degraded to no roles.",
	},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// HeartbeatsTotal counts heartbeats received.
// Label:
//   - result: "accepted", "dropped", "stored" or "error"
var HeartbeatsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "heartbeats_total",
		Help:      "Total number of session heartbeats, by processing result.",
	},
	[]string{"result"},
)

// HeartbeatQueueDepth tracks pending heartbeats in each dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var HeartbeatQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "heartbeat_queue_depth",
		Help:      "Current number of heartbeats pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// PurgedTotal counts records removed by the scheduled cleanup jobs.
// Label:
//   - kind: "remember_tokens" or "sessions"
var PurgedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "purged_total",
		Help:      "Total number of expired records purged by scheduled jobs.",
	},
	[]string{"kind"},
)
