// Package observability holds the Prometheus collectors for the tracker.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	workoutMutations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tracker",
		Subsystem: "session",
		Name:      "workout_mutations_total",
		Help:      "Workouts created, revised or deleted, by kind and operation.",
	}, []string{"kind", "operation"})

	validationFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tracker",
		Subsystem: "session",
		Name:      "validation_failures_total",
		Help:      "Form submissions rejected by validation.",
	}, []string{"kind"})

	snapshotWrites = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tracker",
		Subsystem: "persistence",
		Name:      "snapshot_writes_total",
		Help:      "Snapshot writes grouped by result.",
	}, []string{"result"})

	snapshotBytes = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "tracker",
		Subsystem: "persistence",
		Name:      "snapshot_size_bytes",
		Help:      "Size of the most recent snapshot written per backend.",
	}, []string{"backend"})

	snapshotWriteDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "tracker",
		Subsystem: "persistence",
		Name:      "snapshot_write_duration_seconds",
		Help:      "Time spent encoding and writing one snapshot.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
	})

	restoredWorkouts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tracker",
		Subsystem: "persistence",
		Name:      "restored_workouts_total",
		Help:      "Workouts restored from snapshots, split into kept and dropped entries.",
	}, []string{"outcome"})

	activeSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "tracker",
		Subsystem: "ws",
		Name:      "active_sessions",
		Help:      "Number of connected pages.",
	})

	pageEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tracker",
		Subsystem: "ws",
		Name:      "events_total",
		Help:      "Page events received, by type and outcome.",
	}, []string{"type", "outcome"})
)

func init() {
	prometheus.MustRegister(workoutMutations, validationFailures, snapshotWrites, snapshotWriteDuration, snapshotBytes, restoredWorkouts, activeSessions, pageEvents)
}

// RecordWorkoutMutation counts a create, revise or delete.
func RecordWorkoutMutation(kind, operation string) {
	workoutMutations.WithLabelValues(kind, operation).Inc()
}

// RecordValidationFailure counts a rejected submission.
func RecordValidationFailure(kind string) {
	if kind == "" {
		kind = "unknown"
	}
	validationFailures.WithLabelValues(kind).Inc()
}

// RecordSnapshotWrite counts a snapshot write attempt and observes how long it
// took.
func RecordSnapshotWrite(err error, took time.Duration) {
	snapshotWriteDuration.Observe(took.Seconds())
	if err != nil {
		snapshotWrites.WithLabelValues("error").Inc()
		return
	}
	snapshotWrites.WithLabelValues("ok").Inc()
}

// RecordSnapshotBytes updates the snapshot size gauge.
func RecordSnapshotBytes(backend string, size int) {
	snapshotBytes.WithLabelValues(backend).Set(float64(size))
}

// RecordRestore counts restored and dropped snapshot entries.
func RecordRestore(restored, dropped int) {
	restoredWorkouts.WithLabelValues("restored").Add(float64(restored))
	restoredWorkouts.WithLabelValues("dropped").Add(float64(dropped))
}

// SessionOpened increments the connected page gauge.
func SessionOpened() { activeSessions.Inc() }

// SessionClosed decrements the connected page gauge.
func SessionClosed() { activeSessions.Dec() }

// RecordPageEvent counts an inbound page event.
func RecordPageEvent(eventType, outcome string) {
	pageEvents.WithLabelValues(eventType, outcome).Inc()
}

// WorkoutMutations exposes the mutation counter for assertions in tests.
func WorkoutMutations() *prometheus.CounterVec { return workoutMutations }

// ValidationFailures exposes the validation counter for assertions in tests.
func ValidationFailures() *prometheus.CounterVec { return validationFailures }
