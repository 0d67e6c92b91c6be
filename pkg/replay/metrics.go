package replay

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus metrics for the facade. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	initialized       prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates a metrics instance with its own registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		operationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "replay_facade_operations_total",
				Help: "Total number of facade operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),

		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "replay_facade_operation_duration_seconds",
				Help:    "Time spent in facade operations, including the SDK call",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		initialized: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "replay_facade_initialized",
				Help: "1 once the replay SDK has been initialized",
			},
		),

		registry: registry,
	}

	registry.MustRegister(
		m.operationsTotal,
		m.operationDuration,
		m.initialized,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// RecordOperation counts an operation and observes its duration.
func (m *Metrics) RecordOperation(operation string, outcome Outcome, duration time.Duration) {
	if m == nil {
		return
	}
	m.operationsTotal.WithLabelValues(operation, string(outcome)).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetInitialized sets the initialization gauge.
func (m *Metrics) SetInitialized(initialized bool) {
	if m == nil {
		return
	}
	if initialized {
		m.initialized.Set(1)
	} else {
		m.initialized.Set(0)
	}
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler serving the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
