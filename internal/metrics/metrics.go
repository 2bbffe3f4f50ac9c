// Package metrics exposes till counters on a caller-provided Prometheus
// registerer.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// CheckoutMetrics records committed and failed checkouts. A nil registerer
// yields a no-op instance, which tests and throwaway runs use.
type CheckoutMetrics struct {
	committed prometheus.Counter
	failed    *prometheus.CounterVec
	revenue   prometheus.Counter
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	committed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "till_sales_committed_total",
		Help: "Sales committed to the ledger.",
	})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "till_checkout_failures_total",
		Help: "Checkout attempts that did not produce a sale.",
	}, []string{"reason"})
	revenue := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "till_revenue_total",
		Help: "Gross revenue of committed sales.",
	})
	reg.MustRegister(committed, failed, revenue)
	return &CheckoutMetrics{
		committed: committed,
		failed:    failed,
		revenue:   revenue,
	}
}

// IncCommitted counts one committed sale and its revenue.
func (m *CheckoutMetrics) IncCommitted(total float64) {
	if m == nil || m.committed == nil {
		return
	}
	m.committed.Inc()
	m.revenue.Add(total)
}

// IncFailure counts one failed checkout with the given reason.
func (m *CheckoutMetrics) IncFailure(reason string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(reason).Inc()
}
