package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics exported by the dev server.
type Metrics struct {
	buildsTotal   *prometheus.CounterVec
	buildDuration prometheus.Histogram
	reloadClients prometheus.Gauge
	registry      *prometheus.Registry
}

// NewMetrics creates the dev server metric set on its own registry, so
// each server instance (and each test) gets independent collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		buildsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "packd",
			Name:      "builds_total",
			Help:      "Total number of compile passes by status",
		}, []string{"status"}),

		buildDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "packd",
			Name:      "build_duration_seconds",
			Help:      "Compile pass duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		reloadClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "packd",
			Name:      "reload_clients",
			Help:      "Number of connected hot-reload clients",
		}),
	}
}

// Registry returns the registry backing these metrics, for the /metrics
// endpoint.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordBuild records one compile pass.
func (m *Metrics) RecordBuild(seconds float64, failed bool) {
	status := "success"
	if failed {
		status = "error"
	}
	m.buildsTotal.WithLabelValues(status).Inc()
	m.buildDuration.Observe(seconds)
}

// SetReloadClients updates the connected client gauge.
func (m *Metrics) SetReloadClients(n int) {
	m.reloadClients.Set(float64(n))
}
