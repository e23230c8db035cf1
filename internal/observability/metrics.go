package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Model call outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeQuota   = "quota"
	OutcomeError   = "error"
)

// Metrics holds the Prometheus collectors for the service. Every method is safe
// to call on a nil *Metrics so components can run without instrumentation.
type Metrics struct {
	registry *prometheus.Registry

	ModelCalls     *prometheus.CounterVec
	ModelDuration  *prometheus.HistogramVec
	KeyRotations   prometheus.Counter
	StageDegraded  *prometheus.CounterVec
	Runs           *prometheus.CounterVec
	Fallbacks      prometheus.Counter
	HTTPRequests   *prometheus.CounterVec
	HTTPDuration   *prometheus.HistogramVec
	BreakerChanges *prometheus.CounterVec
}

// NewMetrics creates collectors under namespace, registered on a private registry.
func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		ModelCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_calls_total",
				Help:      "Model call attempts by operation and outcome",
			},
			[]string{"op", "outcome"},
		),
		ModelDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "model_call_duration_seconds",
				Help:      "Model call attempt latency in seconds",
				Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
			},
			[]string{"op"},
		),
		KeyRotations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "key_rotations_total",
				Help:      "Credential rotations performed by the key pool",
			},
		),
		StageDegraded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stage_degraded_total",
				Help:      "Generation stages that substituted a default after a failure",
			},
			[]string{"stage"},
		),
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generation_runs_total",
				Help:      "Generation runs by outcome",
			},
			[]string{"outcome"},
		),
		Fallbacks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "last_resort_generations_total",
				Help:      "Last-resort generations attempted after a failed run",
			},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		BreakerChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_transitions_total",
				Help:      "Circuit breaker state transitions",
			},
			[]string{"name", "to"},
		),
	}

	registry.MustRegister(
		m.ModelCalls,
		m.ModelDuration,
		m.KeyRotations,
		m.StageDegraded,
		m.Runs,
		m.Fallbacks,
		m.HTTPRequests,
		m.HTTPDuration,
		m.BreakerChanges,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveModelCall records one model call attempt.
func (m *Metrics) ObserveModelCall(op, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.ModelCalls.WithLabelValues(op, outcome).Inc()
	m.ModelDuration.WithLabelValues(op).Observe(d.Seconds())
}

// IncKeyRotation records a credential rotation.
func (m *Metrics) IncKeyRotation() {
	if m == nil {
		return
	}
	m.KeyRotations.Inc()
}

// IncStageDegraded records a stage that fell back to its default.
func (m *Metrics) IncStageDegraded(stage string) {
	if m == nil {
		return
	}
	m.StageDegraded.WithLabelValues(stage).Inc()
}

// IncRun records a finished generation run.
func (m *Metrics) IncRun(outcome string) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(outcome).Inc()
}

// IncFallback records a last-resort generation.
func (m *Metrics) IncFallback() {
	if m == nil {
		return
	}
	m.Fallbacks.Inc()
}

// ObserveHTTP records a served HTTP request.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// IncBreakerTransition records a circuit breaker state change.
func (m *Metrics) IncBreakerTransition(name, to string) {
	if m == nil {
		return
	}
	m.BreakerChanges.WithLabelValues(name, to).Inc()
}
