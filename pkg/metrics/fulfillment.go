package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// FulfillmentMetrics records lifecycle and reconciliation outcomes.
type FulfillmentMetrics struct {
	transitions *prometheus.CounterVec
	shortages   *prometheus.HistogramVec
	reconcile   *prometheus.HistogramVec
}

// NewFulfillmentMetrics registers the fulfillment metrics on the provided registerer.
func NewFulfillmentMetrics(reg prometheus.Registerer) *FulfillmentMetrics {
	if reg == nil {
		return &FulfillmentMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transitions_total",
		Help: "Order status transition attempts by edge and outcome.",
	}, []string{"from", "to", "outcome"})
	shortages := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reconciliation_shortage_lines",
		Help:    "Number of shortfall lines per reconciliation run.",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
	}, []string{"branch"})
	reconcile := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reconciliation_duration_seconds",
		Help:    "Duration of reconciliation computations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"branch"})
	reg.MustRegister(transitions, shortages, reconcile)
	return &FulfillmentMetrics{
		transitions: transitions,
		shortages:   shortages,
		reconcile:   reconcile,
	}
}

// IncTransition counts one transition attempt for the given edge.
func (m *FulfillmentMetrics) IncTransition(from, to, outcome string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to), normalizeLabel(outcome)).Inc()
}

// ObserveShortages records how many lines came up short in one run.
func (m *FulfillmentMetrics) ObserveShortages(branch string, count int) {
	if m == nil || m.shortages == nil {
		return
	}
	m.shortages.WithLabelValues(normalizeLabel(branch)).Observe(float64(count))
}

// ObserveReconcileDuration records how long a reconciliation run took.
func (m *FulfillmentMetrics) ObserveReconcileDuration(branch string, duration time.Duration) {
	if m == nil || m.reconcile == nil {
		return
	}
	m.reconcile.WithLabelValues(normalizeLabel(branch)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
