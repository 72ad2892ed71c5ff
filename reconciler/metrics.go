package reconciler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	outcomes *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		outcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "robe_scan_outcomes_total",
			Help: "Scan outcomes by action and result.",
		}, []string{"action", "outcome"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "robe_scan_duration_seconds",
			Help:    "Time spent reconciling one scan, store call included.",
			Buckets: prometheus.DefBuckets,
		}, []string{"action"}),
	}
}

func (m *Metrics) observe(action string, o Outcome, seconds float64) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(action, string(o.Kind)).Inc()
	m.duration.WithLabelValues(action).Observe(seconds)
}
