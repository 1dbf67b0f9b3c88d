package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the gateway.
type Metrics struct {
	attempts  *prometheus.CounterVec
	fallbacks *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// NewMetrics creates and registers the gateway collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "llm_attempts_total",
			Help: "Completion attempts by provider, model, and outcome.",
		}, []string{"provider", "model", "outcome"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "llm_fallbacks_total",
			Help: "Candidates skipped or exhausted during chain walks, by reason.",
		}, []string{"provider", "reason"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "End-to-end gateway call duration by outcome.",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.attempts, m.fallbacks, m.duration)
	return m
}

// ObserveAttempt records one adapter attempt.
func (m *Metrics) ObserveAttempt(provider, model, outcome string) {
	m.attempts.WithLabelValues(provider, model, outcome).Inc()
}

// ObserveFallback records a candidate skipped or abandoned.
func (m *Metrics) ObserveFallback(provider, reason string) {
	m.fallbacks.WithLabelValues(provider, reason).Inc()
}

// ObserveRequest records a finished gateway call.
func (m *Metrics) ObserveRequest(outcome string, duration time.Duration) {
	m.duration.WithLabelValues(outcome).Observe(duration.Seconds())
}
