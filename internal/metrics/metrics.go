// Package metrics exposes Prometheus instrumentation for the analysis
// pipeline and its hosting surfaces.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all LeaseLens metrics.
type Registry struct {
	AnalysesTotal    *prometheus.CounterVec
	AnalysisDuration prometheus.Histogram
	BatchSize        prometheus.Gauge
	BatchesTotal     prometheus.Counter
	TierAssigned     *prometheus.CounterVec
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter
	StoreErrors      prometheus.Counter
}

// NewRegistry creates the metric set and registers it with reg. Pass
// prometheus.NewRegistry() in tests to keep them isolated.
func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		AnalysesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leaselens_analyses_total",
				Help: "Total property analyses by outcome",
			},
			[]string{"status"},
		),
		AnalysisDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "leaselens_analysis_duration_seconds",
				Help:    "Duration of a single property analysis",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
		),
		BatchSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "leaselens_batch_size",
				Help: "Size of the most recent analysis batch",
			},
		),
		BatchesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "leaselens_batches_total",
				Help: "Total analysis batches executed",
			},
		),
		TierAssigned: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leaselens_tier_assigned_total",
				Help: "Results by assigned opportunity tier",
			},
			[]string{"tier"},
		),
		CacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "leaselens_cache_hits_total",
				Help: "Result cache hits",
			},
		),
		CacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "leaselens_cache_misses_total",
				Help: "Result cache misses",
			},
		),
		StoreErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "leaselens_store_errors_total",
				Help: "Result store write failures",
			},
		),
	}

	reg.MustRegister(
		r.AnalysesTotal,
		r.AnalysisDuration,
		r.BatchSize,
		r.BatchesTotal,
		r.TierAssigned,
		r.CacheHits,
		r.CacheMisses,
		r.StoreErrors,
	)
	return r
}

// ObserveAnalysis records one per-property analysis outcome.
func (r *Registry) ObserveAnalysis(d time.Duration, err error) {
	if r == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.AnalysesTotal.WithLabelValues(status).Inc()
	r.AnalysisDuration.Observe(d.Seconds())
}

// ObserveBatch records batch-level stats.
func (r *Registry) ObserveBatch(size int) {
	if r == nil {
		return
	}
	r.BatchesTotal.Inc()
	r.BatchSize.Set(float64(size))
}

// ObserveTier counts a tier assignment.
func (r *Registry) ObserveTier(tier string) {
	if r == nil {
		return
	}
	r.TierAssigned.WithLabelValues(tier).Inc()
}
