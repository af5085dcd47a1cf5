package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the outcome tracker.
type Metrics struct {
	// Tracked outcomes by result ("created", "updated", "validation_error",
	// "not_found", "error")
	OutcomesTracked *prometheus.CounterVec

	// Outcomes recorded by type, for harm dashboards
	OutcomesByType *prometheus.CounterVec

	// Incidents actually created by escalation (idempotent repeats excluded)
	IncidentsEscalated prometheus.Counter
}

// New creates a Metrics instance with all outcome metrics registered.
func New() *Metrics {
	return &Metrics{
		OutcomesTracked: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veritas_outcomes_tracked_total",
			Help: "Outcome track attempts by result",
		}, []string{"result"}),

		OutcomesByType: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veritas_outcomes_by_type_total",
			Help: "Successfully tracked outcomes by outcome type",
		}, []string{"outcome_type"}),

		IncidentsEscalated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veritas_outcome_incidents_escalated_total",
			Help: "Incidents created by harm escalation",
		}),
	}
}

// IncrementTracked records a track attempt.
func (m *Metrics) IncrementTracked(result string) {
	if m != nil {
		m.OutcomesTracked.WithLabelValues(result).Inc()
	}
}

// IncrementByType records a successfully tracked outcome.
func (m *Metrics) IncrementByType(outcomeType string) {
	if m != nil {
		m.OutcomesByType.WithLabelValues(outcomeType).Inc()
	}
}

// IncrementEscalated records a newly created incident.
func (m *Metrics) IncrementEscalated() {
	if m != nil {
		m.IncidentsEscalated.Inc()
	}
}
