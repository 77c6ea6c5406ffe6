// Package metrics provides observability for the requisition lifecycle.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks requisition lifecycle outcomes. Methods are nil-safe so
// services can run without metrics in tests.
type Metrics struct {
	Created     prometheus.Counter
	Transitions *prometheus.CounterVec
	SweepLag    prometheus.Histogram
}

// New registers all requisition metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		Created: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lifelink_requisitions_created_total",
			Help: "Total requisitions created",
		}),

		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lifelink_requisition_transitions_total",
			Help: "Requisition status transitions by target status and trigger",
		}, []string{"to", "trigger"}), // trigger: "requester", "auto", "sweeper"

		SweepLag: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "lifelink_expiry_sweep_duration_seconds",
			Help:    "Duration of a full expiry sweep pass",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
	}
}

// IncCreated records a new requisition.
func (m *Metrics) IncCreated() {
	if m != nil {
		m.Created.Inc()
	}
}

// IncTransition records a completed status transition.
func (m *Metrics) IncTransition(to, trigger string) {
	if m != nil {
		m.Transitions.WithLabelValues(to, trigger).Inc()
	}
}

// ObserveSweep records the duration of one expiry sweep.
func (m *Metrics) ObserveSweep(d time.Duration) {
	if m != nil {
		m.SweepLag.Observe(d.Seconds())
	}
}
