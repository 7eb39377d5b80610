package watcher

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the watcher's prometheus collectors.
type Metrics struct {
	EventsTotal     *prometheus.CounterVec
	AlertsTotal     *prometheus.CounterVec
	PollErrorsTotal prometheus.Counter
	LastBlock       prometheus.Gauge
}

// NewMetrics creates and registers the watcher collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arcpay",
			Subsystem: "watcher",
			Name:      "events_total",
			Help:      "Decoded invoice events by name.",
		}, []string{"event"}),
		AlertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arcpay",
			Subsystem: "watcher",
			Name:      "alerts_total",
			Help:      "Alerts raised by level.",
		}, []string{"level"}),
		PollErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "arcpay",
			Subsystem: "watcher",
			Name:      "poll_errors_total",
			Help:      "Failed poll cycles.",
		}),
		LastBlock: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "arcpay",
			Subsystem: "watcher",
			Name:      "last_block",
			Help:      "Highest block the watcher has processed.",
		}),
	}

	reg.MustRegister(m.EventsTotal, m.AlertsTotal, m.PollErrorsTotal, m.LastBlock)

	return m
}
