package waitlist

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeCreated   = "created"
	outcomeDuplicate = "duplicate"
	outcomeInvalid   = "invalid"
	outcomeError     = "error"

	storageNone = "none"
)

type Metrics struct {
	signups   *prometheus.CounterVec
	fallbacks *prometheus.CounterVec
}

// NewMetrics registers the waitlist collectors with reg. A nil reg keeps them
// unregistered, which is what tests and METRICS_ENABLED=false use.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		signups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waitlist_signups_total",
				Help: "Waitlist submissions by storage stage and outcome.",
			},
			[]string{"storage", "outcome"},
		),
		fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waitlist_storage_fallbacks_total",
				Help: "Database errors that moved an operation on to the next storage stage.",
			},
			[]string{"operation"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.signups, m.fallbacks)
	}
	return m
}

func (m *Metrics) observeSignup(storage, outcome string) {
	m.signups.WithLabelValues(storage, outcome).Inc()
}

func (m *Metrics) observeFallback(operation string) {
	m.fallbacks.WithLabelValues(operation).Inc()
}
