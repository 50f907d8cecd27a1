package payouts

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ticks    prometheus.Counter
	failures prometheus.Counter
	outcomes *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewMetrics registers the scheduler collectors on reg. A nil registerer
// yields working but unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{
		ticks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "susu",
			Subsystem: "payout_scheduler",
			Name:      "ticks_total",
			Help:      "Payout scheduler ticks run.",
		}),
		failures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "susu",
			Subsystem: "payout_scheduler",
			Name:      "tick_failures_total",
			Help:      "Ticks that could not list due groups.",
		}),
		outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "susu",
			Subsystem: "payout_scheduler",
			Name:      "group_evaluations_total",
			Help:      "Group evaluations by outcome.",
		}, []string{"outcome"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "susu",
			Subsystem: "payout_scheduler",
			Name:      "tick_duration_seconds",
			Help:      "Wall time of a scheduler tick.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	for _, outcome := range allOutcomes {
		m.outcomes.WithLabelValues(string(outcome))
	}
	return m
}

func (m *Metrics) observe(report TickReport) {
	m.ticks.Inc()
	m.duration.Observe(report.Duration.Seconds())
	for _, result := range report.Results {
		m.outcomes.WithLabelValues(string(result.Outcome)).Inc()
	}
}
