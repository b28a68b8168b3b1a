package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the risk
// assessment pipeline and the alert dispatcher.
type Metrics struct {
	MessagesConsumed    prometheus.Counter
	AssessmentsProduced prometheus.Counter
	ValidationRejects   prometheus.Counter
	PipelineRunning     prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Model service metrics.
	ModelRequests    *prometheus.CounterVec // labels: outcome={success,fallback}
	ModelAPIDuration prometheus.Histogram
	ModelEnabled     prometheus.Gauge

	// Alert dispatch metrics.
	AlertsDispatched  *prometheus.CounterVec // labels: status={sent,rate_limited}
	PersistenceErrors prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.MessagesConsumed,
		m.AssessmentsProduced,
		m.ValidationRejects,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.ModelRequests,
		m.ModelAPIDuration,
		m.ModelEnabled,
		m.AlertsDispatched,
		m.PersistenceErrors,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "disaster_warning",
			Name:      "messages_consumed_total",
			Help:      "Total telemetry messages read from the source topic.",
		}),
		AssessmentsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "disaster_warning",
			Name:      "assessments_produced_total",
			Help:      "Total risk assessments published to the sink topic.",
		}),
		ValidationRejects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "disaster_warning",
			Name:      "validation_rejects_total",
			Help:      "Total telemetry messages rejected before scoring.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "disaster_warning",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "disaster_warning",
			Name:      "batch_size",
			Help:      "Number of telemetry messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "disaster_warning",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete extract-assess-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		ModelRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "disaster_warning",
			Name:      "model_requests_total",
			Help:      "Prediction requests by outcome; fallback counts rule-based substitutions.",
		}, []string{"outcome"}),
		ModelAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "disaster_warning",
			Name:      "model_api_duration_seconds",
			Help:      "Model service request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		ModelEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "disaster_warning",
			Name:      "model_enabled",
			Help:      "1 when the external model service is configured, 0 otherwise.",
		}),
		AlertsDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "disaster_warning",
			Name:      "alerts_dispatched_total",
			Help:      "Alert dispatch outcomes by status (sent or rate_limited).",
		}, []string{"status"}),
		PersistenceErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "disaster_warning",
			Name:      "persistence_errors_total",
			Help:      "Best-effort persistence failures that did not block delivery.",
		}),
	}
}
