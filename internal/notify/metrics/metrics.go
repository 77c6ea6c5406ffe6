// Package metrics provides observability for the notification fan-out.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks fan-out outcomes. Methods are nil-safe so services can run
// without metrics in tests.
type Metrics struct {
	Outcomes *prometheus.CounterVec
	InFlight prometheus.Gauge
}

// New registers all notification metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		Outcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lifelink_notifications_total",
			Help: "Donor notification attempts by outcome",
		}, []string{"outcome"}), // outcome: "notified", "skipped", "failed"

		InFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "lifelink_notification_dispatches_in_flight",
			Help: "Dispatch calls currently in flight",
		}),
	}
}

// IncOutcome records one fan-out attempt by its outcome.
func (m *Metrics) IncOutcome(outcome string) {
	if m != nil {
		m.Outcomes.WithLabelValues(outcome).Inc()
	}
}

// TrackInFlight brackets one dispatch call; call the returned func when done.
func (m *Metrics) TrackInFlight() func() {
	if m == nil {
		return func() {}
	}
	m.InFlight.Inc()
	return func() { m.InFlight.Dec() }
}
