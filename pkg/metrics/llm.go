package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LLM call outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeTimeout  = "timeout"
	OutcomeUpstream = "upstream_error"
	OutcomeCanceled = "canceled"
)

// LLMMetrics records gateway calls to the language model provider.
type LLMMetrics struct {
	duration  *prometheus.HistogramVec
	calls     *prometheus.CounterVec
	abandoned prometheus.Counter
	inFlight  prometheus.Gauge
}

// NewLLMMetrics registers the LLM metrics on the provided registerer.
func NewLLMMetrics(reg prometheus.Registerer) *LLMMetrics {
	if reg == nil {
		return &LLMMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "llm_call_duration_seconds",
		Help:    "Wall-clock duration of LLM gateway calls including queue time.",
		Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30},
	}, []string{"provider", "outcome"})
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_calls_total",
		Help: "LLM gateway calls by outcome.",
	}, []string{"provider", "outcome"})
	abandoned := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "llm_abandoned_results_total",
		Help: "Provider results that completed after their caller gave up.",
	})
	inFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "llm_in_flight",
		Help: "Provider calls currently holding a worker slot.",
	})
	reg.MustRegister(duration, calls, abandoned, inFlight)
	return &LLMMetrics{
		duration:  duration,
		calls:     calls,
		abandoned: abandoned,
		inFlight:  inFlight,
	}
}

// Observe records one gateway call.
func (m *LLMMetrics) Observe(provider, outcome string, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	provider = normalizeLabel(provider)
	outcome = normalizeLabel(outcome)
	m.duration.WithLabelValues(provider, outcome).Observe(d.Seconds())
	m.calls.WithLabelValues(provider, outcome).Inc()
}

// IncAbandoned counts a late provider result that nobody waited for.
func (m *LLMMetrics) IncAbandoned() {
	if m == nil || m.abandoned == nil {
		return
	}
	m.abandoned.Inc()
}

// WorkerStarted and WorkerDone track occupied worker slots.
func (m *LLMMetrics) WorkerStarted() {
	if m == nil || m.inFlight == nil {
		return
	}
	m.inFlight.Inc()
}

func (m *LLMMetrics) WorkerDone() {
	if m == nil || m.inFlight == nil {
		return
	}
	m.inFlight.Dec()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
