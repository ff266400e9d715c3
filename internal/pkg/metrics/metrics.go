// Package metrics defines and registers all custom Prometheus metrics for the
// courier booking service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Collectors are registered with the default Prometheus registry on import
// (promauto) and exposed by the /metrics route.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "courier"

// ── Pricing metrics ───────────────────────────────────────────────────────────

// QuotesTotal counts pricing outcomes.
// Label:
//   - result: "ok" or a rejection reason ("invalid_input", "invalid_destination", "no_tier_found")
var QuotesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "quotes_total",
		Help:      "Total number of quotes computed, by result.",
	},
	[]string{"result"},
)

// ── Booking metrics ───────────────────────────────────────────────────────────

// ShipmentsBookedTotal counts newly booked shipments.
// Label:
//   - destination: destination code (e.g. "US")
var ShipmentsBookedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "shipments_booked_total",
		Help:      "Total number of shipments booked, by destination.",
	},
	[]string{"destination"},
)

// TrackingAllocationsTotal counts tracking id allocations.
// Label:
//   - path: "sequential", "fallback" or "exhausted"
var TrackingAllocationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tracking_allocations_total",
		Help:      "Total number of tracking id allocations, by path.",
	},
	[]string{"path"},
)

// TrackingAllocationAttempts observes how many candidates an allocation tried.
var TrackingAllocationAttempts = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "tracking_allocation_attempts",
		Help:      "Number of candidate ids tried per allocation.",
		Buckets:   []float64{1, 2, 3, 5, 10, 15},
	},
)

// ── Event metrics ─────────────────────────────────────────────────────────────

// EventsProcessedTotal counts status updates that completed processing successfully.
// Labels:
//   - status: the new shipment status applied (e.g. "in_transit")
//   - source: the source reported by the sender (e.g. "branch_scanner")
var EventsProcessedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_processed_total",
		Help:      "Total number of status updates successfully processed.",
	},
	[]string{"status", "source"},
)

// EventsErrorsTotal counts status updates that failed processing.
// Label:
//   - reason: "invalid_transition", "shipment_not_found" or "update_failed"
var EventsErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_errors_total",
		Help:      "Total number of status updates that failed processing.",
	},
	[]string{"reason"},
)

// EventsDedupTotal counts deduplication decisions.
// Label:
//   - result: "hit" (duplicate, skipped) or "miss" (new event, processed)
var EventsDedupTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dedup_total",
		Help:      "Total number of deduplication checks, labelled by result (hit/miss).",
	},
	[]string{"result"},
)

// ── Rollup metrics ────────────────────────────────────────────────────────────

// RollupRefreshDuration measures a single rollup refresh.
// Label:
//   - period: "daily" or "monthly"
var RollupRefreshDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "rollup_refresh_duration_seconds",
		Help:      "Duration of a rollup refresh from load to upsert.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"period"},
)

// RollupQueueDepth tracks pending refresh jobs in each dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var RollupQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "rollup_queue_depth",
		Help:      "Current number of refresh jobs pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ── Maintenance metrics ───────────────────────────────────────────────────────

// DuplicatesRemovedTotal counts shipments deleted by duplicate cleanup.
var DuplicatesRemovedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "duplicates_removed_total",
		Help:      "Total number of duplicate shipments removed by cleanup.",
	},
)
