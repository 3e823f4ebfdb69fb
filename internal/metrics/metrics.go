// Package metrics exposes the Prometheus instrumentation for the indexer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsApplied counts canonical events applied by catch-up, per instance stream and event type.
	EventsApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indexer_events_applied_total",
			Help: "Total number of canonical events applied by the catch-up engine",
		},
		[]string{"stream", "event_type"},
	)

	// CatchupDuration tracks the wall-clock time of a single apply_catchup invocation.
	CatchupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "indexer_catchup_duration_seconds",
			Help:    "Duration of apply_catchup invocations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stream"},
	)

	// RollbacksTotal counts suffix rollbacks triggered by canonicality flips.
	RollbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indexer_rollbacks_total",
			Help: "Total number of rollback_from invocations",
		},
		[]string{"stream"},
	)

	// RolledBackEvents is a per-stream distribution of how many events each rollback undid.
	RolledBackEvents = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "indexer_rollback_events",
			Help:    "Number of events undone per rollback_from invocation",
			Buckets: []float64{1, 2, 5, 10, 50, 100, 500},
		},
		[]string{"stream"},
	)

	// InterpreterErrors counts integrity errors raised by stream interpreters.
	InterpreterErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indexer_interpreter_errors_total",
			Help: "Total number of integrity errors raised while applying events",
		},
		[]string{"stream", "kind"},
	)

	// CursorLag tracks applied_through_seq per instance for staleness monitoring.
	CursorLag = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "indexer_cursor_applied_through_seq",
			Help: "Last applied event_seq per instance",
		},
		[]string{"stream", "chain_id", "contract_address"},
	)

	// IngestedEvents counts rows written into the event store by the ingester.
	IngestedEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indexer_ingested_events_total",
			Help: "Total number of rows appended to the event store",
		},
		[]string{"stream", "chain_id"},
	)

	// ReorgsDetected counts canonicality flips detected by the ingester.
	ReorgsDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indexer_reorgs_detected_total",
			Help: "Total number of reorgs detected by the ingester",
		},
		[]string{"stream", "chain_id"},
	)
)
