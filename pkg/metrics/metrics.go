package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rbac_admin"

// Metrics holds all Prometheus metrics
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	CommandsTotal *prometheus.CounterVec

	AIRequestsTotal   *prometheus.CounterVec
	AIRequestDuration *prometheus.HistogramVec

	RBACEventsTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates a registry with process and Go collectors and registers all metrics on it.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return NewMetrics(registry)
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		CommandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commands_total",
				Help:      "Natural-language commands by type and outcome",
			},
			[]string{"type", "outcome"},
		),
		AIRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ai_requests_total",
				Help:      "Text generation calls by outcome",
			},
			[]string{"outcome"},
		),
		AIRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "ai_request_duration_seconds",
				Help:      "Text generation latency including retries",
				Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"outcome"},
		),
		RBACEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rbac_events_total",
				Help:      "RBAC mutations by event type",
			},
			[]string{"event_type"},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.CommandsTotal,
		m.AIRequestsTotal,
		m.AIRequestDuration,
		m.RBACEventsTotal,
	)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveHTTP(method, route string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, statusClass(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (m *Metrics) CommandProcessed(commandType, outcome string) {
	m.CommandsTotal.WithLabelValues(commandType, outcome).Inc()
}

func (m *Metrics) AIRequest(outcome string, duration time.Duration) {
	m.AIRequestsTotal.WithLabelValues(outcome).Inc()
	if duration > 0 {
		m.AIRequestDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	}
}

func (m *Metrics) EventPublished(eventType string) {
	m.RBACEventsTotal.WithLabelValues(eventType).Inc()
}

func statusClass(status int) string {
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
