package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder exposes Prometheus counters for the fetch and budget pipeline.
type Recorder struct {
	cacheLookups    *prometheus.CounterVec
	budgetDecisions *prometheus.CounterVec
	budgetRemaining *prometheus.GaugeVec
	providerCalls   *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
	coalesced       *prometheus.CounterVec
	reportSections  *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		cacheLookups: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockresearch_cache_lookups_total",
				Help: "Cache lookups by TTL class and outcome (fresh, stale, miss)",
			},
			[]string{"class", "outcome"},
		),
		budgetDecisions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockresearch_budget_decisions_total",
				Help: "Budget reservation decisions by provider (granted, denied)",
			},
			[]string{"provider", "decision"},
		),
		budgetRemaining: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stockresearch_budget_remaining",
				Help: "Remaining reservations in the current window per provider",
			},
			[]string{"provider"},
		),
		providerCalls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockresearch_provider_calls_total",
				Help: "Upstream provider calls by outcome (ok, error)",
			},
			[]string{"provider", "outcome"},
		),
		providerLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockresearch_provider_call_duration_seconds",
				Help:    "Upstream call latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		coalesced: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockresearch_coalesced_requests_total",
				Help: "Requests that attached to an already in-flight fetch",
			},
			[]string{"class"},
		),
		reportSections: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockresearch_report_sections_total",
				Help: "Research report sections by outcome (ok, failed, timeout)",
			},
			[]string{"section", "outcome"},
		),
	}
}

// RecordCacheLookup records a cache lookup outcome for a TTL class.
func (r *Recorder) RecordCacheLookup(class, outcome string) {
	r.cacheLookups.WithLabelValues(class, outcome).Inc()
}

// RecordBudgetDecision records a reservation grant or denial.
func (r *Recorder) RecordBudgetDecision(provider string, granted bool) {
	decision := "granted"
	if !granted {
		decision = "denied"
	}
	r.budgetDecisions.WithLabelValues(provider, decision).Inc()
}

// RecordBudgetRemaining records remaining reservations for a provider.
func (r *Recorder) RecordBudgetRemaining(provider string, remaining int) {
	r.budgetRemaining.WithLabelValues(provider).Set(float64(remaining))
}

// RecordProviderCall records an upstream call outcome and latency.
func (r *Recorder) RecordProviderCall(provider string, ok bool, seconds float64) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	r.providerCalls.WithLabelValues(provider, outcome).Inc()
	r.providerLatency.WithLabelValues(provider).Observe(seconds)
}

// RecordCoalesced records a request that joined an in-flight fetch.
func (r *Recorder) RecordCoalesced(class string) {
	r.coalesced.WithLabelValues(class).Inc()
}

// RecordReportSection records a report section outcome.
func (r *Recorder) RecordReportSection(section, outcome string) {
	r.reportSections.WithLabelValues(section, outcome).Inc()
}
