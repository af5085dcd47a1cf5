package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the ledger module.
type Metrics struct {
	// Appended decisions by outcome of the write ("ok", "conflict", "error")
	DecisionsLogged *prometheus.CounterVec

	// Chain tip races that triggered an internal retry
	ChainConflicts prometheus.Counter

	// Full append latency including registry resolution and hashing
	AppendLatency prometheus.Histogram

	// Verification runs by result ("valid", "invalid", "error")
	VerifyRuns *prometheus.CounterVec

	// Verification latency over the requested range
	VerifyLatency prometheus.Histogram
}

// New creates a Metrics instance with all ledger metrics registered.
func New() *Metrics {
	return &Metrics{
		DecisionsLogged: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veritas_ledger_decisions_logged_total",
			Help: "Total decision log attempts by result",
		}, []string{"result"}),

		ChainConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veritas_ledger_chain_conflicts_total",
			Help: "Chain tip races detected during append, including retried ones",
		}),

		AppendLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "veritas_ledger_append_duration_seconds",
			Help:    "Duration of full decision append including hashing and registry lookup",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),

		VerifyRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veritas_ledger_verify_runs_total",
			Help: "Chain verification runs by result",
		}, []string{"result"}),

		VerifyLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "veritas_ledger_verify_duration_seconds",
			Help:    "Duration of chain verification over the requested range",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

// IncrementLogged records a decision log attempt.
func (m *Metrics) IncrementLogged(result string) {
	if m != nil {
		m.DecisionsLogged.WithLabelValues(result).Inc()
	}
}

// IncrementChainConflict records a tip race.
func (m *Metrics) IncrementChainConflict() {
	if m != nil {
		m.ChainConflicts.Inc()
	}
}

// ObserveAppendLatency records the duration of an append.
func (m *Metrics) ObserveAppendLatency(d time.Duration) {
	if m != nil {
		m.AppendLatency.Observe(d.Seconds())
	}
}

// IncrementVerify records a verification run.
func (m *Metrics) IncrementVerify(result string) {
	if m != nil {
		m.VerifyRuns.WithLabelValues(result).Inc()
	}
}

// ObserveVerifyLatency records the duration of a verification run.
func (m *Metrics) ObserveVerifyLatency(d time.Duration) {
	if m != nil {
		m.VerifyLatency.Observe(d.Seconds())
	}
}
