package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// AttemptsTotal counts Tier 1 provider attempts by outcome.
	AttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stockmeta",
		Subsystem: "pipeline",
		Name:      "attempts_total",
		Help:      "Provider attempts labeled by provider and outcome (success, retryable, fatal).",
	}, []string{"provider", "outcome"})

	// AttemptDurationSeconds measures a single provider round trip.
	AttemptDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "stockmeta",
		Subsystem: "pipeline",
		Name:      "attempt_duration_seconds",
		Help:      "Duration of a single provider attempt including response parsing.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 45, 90, 120},
	}, []string{"provider"})

	// RotationsTotal counts credential rotations after Tier 1 exhaustion.
	RotationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stockmeta",
		Subsystem: "pipeline",
		Name:      "rotations_total",
		Help:      "Credential rotations labeled by provider.",
	}, []string{"provider"})

	// ItemsTotal counts finished work items by result.
	ItemsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stockmeta",
		Subsystem: "pipeline",
		Name:      "items_total",
		Help:      "Work items finished by a run, labeled by provider and result (complete, error).",
	}, []string{"provider", "result"})

	// WorkersInFlight is the number of items currently being processed.
	WorkersInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "stockmeta",
		Subsystem: "pipeline",
		Name:      "workers_in_flight",
		Help:      "Current number of work items being processed by worker goroutines.",
	})
)

// Register registers pipeline metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			AttemptsTotal,
			AttemptDurationSeconds,
			RotationsTotal,
			ItemsTotal,
			WorkersInFlight,
		)
	})
}
