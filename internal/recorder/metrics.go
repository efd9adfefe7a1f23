package recorder

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricFunnelEventsTotal   = "funnel_events_total"
	MetricEventRecordDuration = "funnel_event_record_duration_seconds"
)

// Outcome labels for recorded events.
const (
	OutcomeRecorded = "recorded"
	OutcomeNoop     = "noop"
	OutcomeUnknown  = "unknown"
)

// Metrics contains Prometheus collectors for the event recorder.
// All operations are thread-safe.
type Metrics struct {
	eventsTotal    *prometheus.CounterVec
	recordDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors. They are not registered; call Register
// to attach them to a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		eventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricFunnelEventsTotal,
				Help: "Total number of funnel events received by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		recordDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricEventRecordDuration,
				Help:    "Histogram of event record duration in seconds by kind",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
			[]string{"kind"},
		),
	}
}

// Register registers all collectors with the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.eventsTotal, m.recordDuration} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) observe(kind string, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.eventsTotal.WithLabelValues(kind, outcome).Inc()
	m.recordDuration.WithLabelValues(kind).Observe(seconds)
}
