package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the governance ledger.
type Metrics struct {
	Appends        *prometheus.CounterVec
	AppendErrors   prometheus.Counter
	VerifyFailures prometheus.Counter
}

// New creates a Metrics instance with all ledger metrics registered.
func New() *Metrics {
	return &Metrics{
		Appends: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "govgate_ledger_appends_total",
			Help: "Total ledger entries appended by kind",
		}, []string{"kind"}),

		AppendErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "govgate_ledger_append_errors_total",
			Help: "Total ledger append failures (audit gaps)",
		}),

		VerifyFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "govgate_ledger_verify_failures_total",
			Help: "Total chain verifications that found a break",
		}),
	}
}

// IncrementAppend records a successful append.
func (m *Metrics) IncrementAppend(kind string) {
	if m != nil {
		m.Appends.WithLabelValues(kind).Inc()
	}
}

// IncrementAppendError records a failed append.
func (m *Metrics) IncrementAppendError() {
	if m != nil {
		m.AppendErrors.Inc()
	}
}

// IncrementVerifyFailure records a verification that found a break.
func (m *Metrics) IncrementVerifyFailure() {
	if m != nil {
		m.VerifyFailures.Inc()
	}
}
