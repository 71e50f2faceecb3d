// Package metrics exposes Prometheus collectors for the screening
// pipeline and the register lifecycle.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ScreeningsTotal counts finished screenings by outcome and method.
	ScreeningsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pep_screenings_total",
			Help: "Total number of completed screenings",
		},
		[]string{"outcome", "method"},
	)

	// ScreeningDuration observes end-to-end screening latency.
	ScreeningDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pep_screening_duration_seconds",
			Help:    "Screening duration from request to finalized result",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"outcome"},
	)

	// ExternalLookupsTotal counts fallback classifier calls by provider
	// and status (ok, error, malformed).
	ExternalLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pep_external_lookups_total",
			Help: "Total number of external classifier lookups",
		},
		[]string{"provider", "status"},
	)

	// RecordsCreatedTotal counts register additions by source.
	RecordsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pep_records_created_total",
			Help: "Total number of PEP records added to the register",
		},
		[]string{"source"},
	)

	// ReviewsFlaggedTotal counts records flagged for EDD review.
	ReviewsFlaggedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pep_reviews_flagged_total",
			Help: "Total number of records flagged for enhanced due diligence review",
		},
	)

	// SweepRunsTotal counts completed review sweeps.
	SweepRunsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pep_sweep_runs_total",
			Help: "Total number of completed review sweeps",
		},
	)

	// SweepDuration observes how long a full review sweep takes.
	SweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pep_sweep_duration_seconds",
			Help:    "Duration of a full review sweep",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(
		ScreeningsTotal,
		ScreeningDuration,
		ExternalLookupsTotal,
		RecordsCreatedTotal,
		ReviewsFlaggedTotal,
		SweepRunsTotal,
		SweepDuration,
	)
}
