// Package observability provides the dispatch instrumentation: a prometheus
// metrics collector fed by the router and an OpenTelemetry tracer provider.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects per-route request metrics. It satisfies shared.Metrics
// and owns a dedicated registry, so two apps in one process never collide
// on collector registration.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestsActive  *prometheus.GaugeVec
}

// NewMetrics creates a metrics collector under the given namespace.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "gantry"
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, route pattern and status.",
		}, []string{"method", "pattern", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "pattern"}),
		requestsActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_active",
			Help:      "In-flight HTTP requests by method and route pattern.",
		}, []string{"method", "pattern"}),
	}

	registry.MustRegister(m.requestsTotal, m.requestDuration, m.requestsActive)

	return m
}

// RequestStarted records the start of a dispatch.
func (m *Metrics) RequestStarted(method, pattern string) {
	m.requestsActive.WithLabelValues(method, pattern).Inc()
}

// RequestCompleted records a finished dispatch with its status and latency.
func (m *Metrics) RequestCompleted(method, pattern string, status int, elapsed time.Duration) {
	m.requestsActive.WithLabelValues(method, pattern).Dec()
	m.requestsTotal.WithLabelValues(method, pattern, statusLabel(status)).Inc()
	m.requestDuration.WithLabelValues(method, pattern).Observe(elapsed.Seconds())
}

// Handler exposes the registry in prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry for custom collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
