package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// audit pipeline.
type Metrics struct {
	EventsConsumed       prometheus.Counter
	ReportsProduced      prometheus.Counter
	ClassificationErrors prometheus.Counter
	PipelineRunning      prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Classification outcome metrics.
	EventsByTier           *prometheus.CounterVec // labels: tier={verified,pattern_validated,unverified,no_signal,error}
	ClassificationDuration prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		EventsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gale_audit",
			Name:      "events_consumed_total",
			Help:      "Total audit jobs read from the source topic.",
		}),
		ReportsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gale_audit",
			Name:      "reports_produced_total",
			Help:      "Total event reports written to the sink topic.",
		}),
		ClassificationErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gale_audit",
			Name:      "classification_errors_total",
			Help:      "Total jobs that could not be parsed into an event.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gale_audit",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gale_audit",
			Name:      "batch_size",
			Help:      "Number of audit jobs per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gale_audit",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-classify-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		EventsByTier: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gale_audit",
			Name:      "events_by_tier_total",
			Help:      "Classified events by resulting tier.",
		}, []string{"tier"}),
		ClassificationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gale_audit",
			Name:      "classification_duration_seconds",
			Help:      "Duration of a single event classification.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
	}

	prometheus.MustRegister(
		m.EventsConsumed,
		m.ReportsProduced,
		m.ClassificationErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.EventsByTier,
		m.ClassificationDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		EventsConsumed:          prometheus.NewCounter(prometheus.CounterOpts{Namespace: "gale_audit", Name: "events_consumed_total"}),
		ReportsProduced:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "gale_audit", Name: "reports_produced_total"}),
		ClassificationErrors:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "gale_audit", Name: "classification_errors_total"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "gale_audit", Name: "pipeline_running"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "gale_audit", Name: "batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "gale_audit", Name: "batch_processing_duration_seconds"}),
		EventsByTier:            prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "gale_audit", Name: "events_by_tier_total"}, []string{"tier"}),
		ClassificationDuration:  prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "gale_audit", Name: "classification_duration_seconds"}),
	}
}
