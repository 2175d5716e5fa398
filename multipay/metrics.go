package multipay

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sputn1ck/boostsplit/rail"
)

const metricsNamespace = "boostsplit"

// Metrics collects payment statistics of an Orchestrator.
type Metrics struct {
	payments *prometheus.CounterVec
	amount   *prometheus.CounterVec
	duration prometheus.Histogram
	boosts   *prometheus.CounterVec
}

// NewMetrics creates the orchestrator metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "multipay",
			Name:      "payments_total",
			Help:      "Number of recipient payments by result.",
		}, []string{"result", "reason"}),

		amount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "multipay",
			Name:      "payment_sats_total",
			Help:      "Amount of recipient payments in sats by result.",
		}, []string{"result"}),

		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "multipay",
			Name:      "payment_duration_seconds",
			Help:      "Duration of single recipient payments.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30},
		}),

		boosts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "multipay",
			Name:      "boosts_total",
			Help:      "Number of multi recipient payments by outcome.",
		}, []string{"outcome"}),
	}

	collectors := []prometheus.Collector{
		m.payments, m.amount, m.duration, m.boosts,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// observePayment records a single recipient payment.
func (m *Metrics) observePayment(p *SplitPayment, took time.Duration) {
	if m == nil {
		return
	}

	result, reason := string(StatusSuccess), ""
	if !p.Outcome.Success {
		result = string(StatusFailed)
		reason = failureReason(p.Outcome)
	}

	m.payments.WithLabelValues(result, reason).Inc()
	m.amount.WithLabelValues(result).Add(float64(p.Amount))
	m.duration.Observe(took.Seconds())
}

// observeResult records the outcome of a whole multi recipient payment.
func (m *Metrics) observeResult(r *MultiRecipientResult) {
	if m == nil {
		return
	}

	var outcome string
	switch {
	case r.Attempted() == 0:
		outcome = "empty"
	case r.IsPartialSuccess:
		outcome = "partial"
	case r.Success && len(r.Failed) == 0:
		outcome = "success"
	case r.Success:
		outcome = "degraded"
	default:
		outcome = "failed"
	}

	m.boosts.WithLabelValues(outcome).Inc()
}

// failureReason returns a low cardinality label for a failed outcome.
func failureReason(o *rail.PaymentOutcome) string {
	if _, ok := o.Err.(*PaymentTimeoutError); ok {
		return "orchestrator_timeout"
	}

	return o.Kind().String()
}
