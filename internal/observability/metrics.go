package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal     *prometheus.CounterVec
	httpRequestDuration   *prometheus.HistogramVec
	upstreamRequestsTotal *prometheus.CounterVec
	upstreamDuration      *prometheus.HistogramVec
	transformationsTotal  *prometheus.CounterVec
	cushionScore          prometheus.Histogram
	breakerTransitions    *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cushionflow_http_requests_total",
				Help: "Total number of HTTP requests handled.",
			},
			[]string{"route", "method", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cushionflow_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method", "status"},
		),
		upstreamRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cushionflow_upstream_requests_total",
				Help: "Total Gemini API requests.",
			},
			[]string{"endpoint", "status"},
		),
		upstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cushionflow_upstream_request_duration_seconds",
				Help:    "Gemini API request duration in seconds.",
				Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
			},
			[]string{"endpoint", "status"},
		),
		transformationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cushionflow_transformations_total",
				Help: "Transformation requests by outcome (ok or the failure kind).",
			},
			[]string{"outcome"},
		),
		cushionScore: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cushionflow_cushion_score",
				Help:    "Cushion score assigned to original messages.",
				Buckets: prometheus.LinearBuckets(10, 10, 10),
			},
		),
		breakerTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cushionflow_breaker_transitions_total",
				Help: "Circuit breaker state transitions around the Gemini client.",
			},
			[]string{"from", "to"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.upstreamRequestsTotal,
		m.upstreamDuration,
		m.transformationsTotal,
		m.cushionScore,
		m.breakerTransitions,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveHTTP(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unknown"
	}
	if method == "" {
		method = "UNKNOWN"
	}
	statusLabel := strconv.Itoa(status)
	m.httpRequestsTotal.WithLabelValues(route, method, statusLabel).Inc()
	m.httpRequestDuration.WithLabelValues(route, method, statusLabel).Observe(duration.Seconds())
}

func (m *Metrics) ObserveUpstream(endpoint string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	statusLabel := strconv.Itoa(status)
	m.upstreamRequestsTotal.WithLabelValues(endpoint, statusLabel).Inc()
	m.upstreamDuration.WithLabelValues(endpoint, statusLabel).Observe(duration.Seconds())
}

// ObserveTransformation records one pipeline run. score is only recorded for
// successful runs.
func (m *Metrics) ObserveTransformation(outcome string, score int) {
	if m == nil {
		return
	}
	m.transformationsTotal.WithLabelValues(outcome).Inc()
	if outcome == "ok" {
		m.cushionScore.Observe(float64(score))
	}
}

func (m *Metrics) ObserveBreakerTransition(from, to string) {
	if m == nil {
		return
	}
	m.breakerTransitions.WithLabelValues(from, to).Inc()
}
