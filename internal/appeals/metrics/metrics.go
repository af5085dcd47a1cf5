package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the appeals engine.
type Metrics struct {
	// Created appeals by category
	AppealsCreated *prometheus.CounterVec

	// Resolved appeals by terminal status
	AppealsResolved *prometheus.CounterVec

	// Time from creation to resolution
	ResolutionLatency prometheus.Histogram

	// Illegal transition attempts by requested transition
	IllegalTransitions *prometheus.CounterVec
}

// New creates a Metrics instance with all appeals metrics registered.
func New() *Metrics {
	return &Metrics{
		AppealsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veritas_appeals_created_total",
			Help: "Appeals created by category",
		}, []string{"category"}),

		AppealsResolved: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veritas_appeals_resolved_total",
			Help: "Appeals resolved by terminal status",
		}, []string{"resolution"}),

		ResolutionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "veritas_appeals_resolution_duration_hours",
			Help:    "Hours from appeal creation to terminal resolution",
			Buckets: []float64{1, 6, 12, 24, 48, 72, 96, 168},
		}),

		IllegalTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veritas_appeals_illegal_transitions_total",
			Help: "Rejected state transition attempts by requested transition",
		}, []string{"transition"}),
	}
}

// IncrementCreated records a created appeal.
func (m *Metrics) IncrementCreated(category string) {
	if m != nil {
		m.AppealsCreated.WithLabelValues(category).Inc()
	}
}

// IncrementResolved records a terminal resolution.
func (m *Metrics) IncrementResolved(resolution string) {
	if m != nil {
		m.AppealsResolved.WithLabelValues(resolution).Inc()
	}
}

// ObserveResolutionLatency records time from creation to resolution.
func (m *Metrics) ObserveResolutionLatency(d time.Duration) {
	if m != nil {
		m.ResolutionLatency.Observe(d.Hours())
	}
}

// IncrementIllegalTransition records a rejected transition attempt.
func (m *Metrics) IncrementIllegalTransition(transition string) {
	if m != nil {
		m.IllegalTransitions.WithLabelValues(transition).Inc()
	}
}
