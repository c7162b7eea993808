// Package metrics exposes the process-wide Prometheus collectors for the
// authority core (A5): connected sessions, trust-boundary violations,
// replication queue depth, tick duration, and conflict-resolution counts.
// Serving the registry over HTTP is the embedding launcher's job; this
// package only builds and registers the collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds the authority-specific collectors, separate from the
// default global registry so the composition root chooses how (and
// whether) to expose it.
var Registry = prometheus.NewRegistry()

var (
	ConnectedSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "authority",
		Subsystem: "session",
		Name:      "connected_total",
		Help:      "Current number of connected player sessions.",
	})

	PreservedSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "authority",
		Subsystem: "session",
		Name:      "preserved_total",
		Help:      "Current number of sessions preserved pending reconnect.",
	})

	Violations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "authority",
		Subsystem: "trust",
		Name:      "violations_total",
		Help:      "Total trust-boundary violations by kind.",
	}, []string{"kind"})

	Escalations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "authority",
		Subsystem: "trust",
		Name:      "escalations_total",
		Help:      "Total escalation actions taken (warn/kick/ban) by kind.",
	}, []string{"action"})

	ReplicationQueueDepth = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "authority",
		Subsystem: "replication",
		Name:      "queue_depth",
		Help:      "Pending replication entries by tier.",
	}, []string{"tier"})

	ReplicationRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "authority",
		Subsystem: "replication",
		Name:      "retries_total",
		Help:      "Total replication retry attempts by tier.",
	}, []string{"tier"})

	TickDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "authority",
		Subsystem: "tick",
		Name:      "duration_seconds",
		Help:      "Wall-clock duration of a tick callback invocation.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 10), // 0.5ms to ~256ms
	}, []string{"clock"})

	TickDrift = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "authority",
		Subsystem: "tick",
		Name:      "client_drift",
		Help:      "Most recent observed client tick drift.",
	}, []string{"player"})

	ConflictResolutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "authority",
		Subsystem: "conflict",
		Name:      "resolutions_total",
		Help:      "Total conflict resolutions by strategy.",
	}, []string{"strategy"})

	SaveWrites = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "authority",
		Subsystem: "save",
		Name:      "writes_total",
		Help:      "Total save-store writes by outcome.",
	}, []string{"kind", "outcome"})
)

func init() {
	Registry.MustRegister(
		ConnectedSessions,
		PreservedSessions,
		Violations,
		Escalations,
		ReplicationQueueDepth,
		ReplicationRetries,
		TickDuration,
		TickDrift,
		ConflictResolutions,
		SaveWrites,
	)
}
