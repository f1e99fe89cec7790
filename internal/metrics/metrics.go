// Package metrics bundles Prometheus collectors for the ingestion
// pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all pipeline collectors on a dedicated registry.
type Metrics struct {
	Registry         *prometheus.Registry
	RecordsTotal     *prometheus.CounterVec
	JobsTotal        *prometheus.CounterVec
	JobDuration      prometheus.Histogram
	TaxonomyMisses   prometheus.Counter
	SecondaryMatches prometheus.Counter
}

// Record outcome label values.
const (
	OutcomeInserted  = "inserted"
	OutcomeMerged    = "merged"
	OutcomeRejected  = "rejected"
	OutcomeStoreFail = "store_error"
)

// New constructs and registers all collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	records := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestor_records_total",
			Help: "Records processed by the pipeline, by outcome.",
		},
		[]string{"outcome"},
	)
	jobs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestor_jobs_total",
			Help: "Ingestion jobs by terminal state.",
		},
		[]string{"state"},
	)
	jobDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingestor_job_duration_seconds",
			Help:    "Wall-clock duration of ingestion jobs.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)
	taxonomyMisses := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ingestor_taxonomy_misses_total",
			Help: "Raw terms that failed taxonomy resolution.",
		},
	)
	secondaryMatches := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ingestor_dedup_secondary_matches_total",
			Help: "Deduplication matches made by the secondary heuristic.",
		},
	)

	registry.MustRegister(records, jobs, jobDuration, taxonomyMisses, secondaryMatches)

	return &Metrics{
		Registry:         registry,
		RecordsTotal:     records,
		JobsTotal:        jobs,
		JobDuration:      jobDuration,
		TaxonomyMisses:   taxonomyMisses,
		SecondaryMatches: secondaryMatches,
	}
}

// IncRecord increments the record counter for an outcome.
func (m *Metrics) IncRecord(outcome string) {
	if m == nil {
		return
	}
	m.RecordsTotal.WithLabelValues(outcome).Inc()
}

// IncJob increments the job counter for a terminal state.
func (m *Metrics) IncJob(state string) {
	if m == nil {
		return
	}
	m.JobsTotal.WithLabelValues(state).Inc()
}

// ObserveJobDuration records a completed job's duration.
func (m *Metrics) ObserveJobDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.JobDuration.Observe(d.Seconds())
}

// IncTaxonomyMiss increments the unresolved-term counter.
func (m *Metrics) IncTaxonomyMiss() {
	if m == nil {
		return
	}
	m.TaxonomyMisses.Inc()
}

// IncSecondaryMatch increments the secondary-match counter.
func (m *Metrics) IncSecondaryMatch() {
	if m == nil {
		return
	}
	m.SecondaryMatches.Inc()
}
