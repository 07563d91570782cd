package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the decision orchestrator.
type Metrics struct {
	Outcomes        *prometheus.CounterVec
	ProtectDuration prometheus.Histogram
	EngineDuration  *prometheus.HistogramVec
	RiskScores      prometheus.Histogram
	LedgerDegraded  prometheus.Counter
}

// New creates a Metrics instance with all decision metrics registered.
func New() *Metrics {
	return &Metrics{
		Outcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "govgate_decisions_total",
			Help: "Total protect decisions by outcome",
		}, []string{"outcome"}),

		ProtectDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "govgate_protect_duration_seconds",
			Help:    "End-to-end protect latency",
			Buckets: prometheus.DefBuckets,
		}),

		EngineDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "govgate_engine_duration_seconds",
			Help:    "Per-engine evaluation latency",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
		}, []string{"engine"}),

		RiskScores: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "govgate_risk_score",
			Help:    "Distribution of computed risk scores",
			Buckets: []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),

		LedgerDegraded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "govgate_decisions_ledger_degraded_total",
			Help: "Decisions returned without a ledger record",
		}),
	}
}

// RecordOutcome records one finished decision.
func (m *Metrics) RecordOutcome(allowed bool) {
	if m != nil {
		outcome := "denied"
		if allowed {
			outcome = "allowed"
		}
		m.Outcomes.WithLabelValues(outcome).Inc()
	}
}

// ObserveProtect records the end-to-end latency of one protect call.
func (m *Metrics) ObserveProtect(d time.Duration) {
	if m != nil {
		m.ProtectDuration.Observe(d.Seconds())
	}
}

// ObserveEngine records one engine pass.
func (m *Metrics) ObserveEngine(engine string, d time.Duration) {
	if m != nil {
		m.EngineDuration.WithLabelValues(engine).Observe(d.Seconds())
	}
}

// ObserveRiskScore records a computed score.
func (m *Metrics) ObserveRiskScore(score int) {
	if m != nil {
		m.RiskScores.Observe(float64(score))
	}
}

// IncrementLedgerDegraded records a decision whose ledger append failed.
func (m *Metrics) IncrementLedgerDegraded() {
	if m != nil {
		m.LedgerDegraded.Inc()
	}
}
