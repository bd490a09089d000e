package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification module.
type Metrics struct {
	// Decision outcomes by decision and service type
	Outcome *prometheus.CounterVec

	// Usage-ledger and rule-store query latencies by source
	StoreLatency *prometheus.HistogramVec

	// Overall evaluation latency
	EvaluateLatency prometheus.Histogram
}

// New creates a Metrics instance with all verification metrics registered.
func New() *Metrics {
	return &Metrics{
		Outcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sahaya_verification_outcomes_total",
			Help: "Total verification outcomes by decision and service type",
		}, []string{"decision", "service"}), // decision: "granted", "denied", "fault"

		StoreLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sahaya_verification_store_duration_seconds",
			Help:    "Duration of store queries during evaluation by source",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"source"}), // source: "rules", "last_verification", "month_count", "token", "append"

		EvaluateLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sahaya_verification_evaluate_duration_seconds",
			Help:    "Duration of full eligibility evaluation including store access",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

// ObserveStoreLatency records the duration of one store query.
func (m *Metrics) ObserveStoreLatency(source string, d time.Duration) {
	if m != nil {
		m.StoreLatency.WithLabelValues(source).Observe(d.Seconds())
	}
}

// IncrementOutcome records a verification outcome.
func (m *Metrics) IncrementOutcome(decision, service string) {
	if m != nil {
		m.Outcome.WithLabelValues(decision, service).Inc()
	}
}

// ObserveEvaluateLatency records the total evaluation duration.
func (m *Metrics) ObserveEvaluateLatency(d time.Duration) {
	if m != nil {
		m.EvaluateLatency.Observe(d.Seconds())
	}
}
