package outcome

import (
	"context"

	"veritas/internal/ledger"
	"veritas/pkg/domain"
)

// Store persists outcomes keyed by decision. Save upserts: the second report
// for a decision overwrites the first. A previously recorded incident_id is
// preserved when the incoming outcome carries none.
type Store interface {
	// Save inserts or overwrites the outcome for o.DecisionID and reports
	// whether an existing row was overwritten.
	Save(ctx context.Context, o *Outcome) (isUpdate bool, err error)

	// GetByDecision returns the outcome for a decision, or
	// sentinel.ErrNotFound when none has been reported.
	GetByDecision(ctx context.Context, decisionID domain.DecisionID) (*Outcome, error)
}

// IncidentSink escalates qualifying outcomes to the external incident
// management system. CreateIncident is idempotent per decision: the first
// call creates and returns created=true, later calls return the existing
// incident with created=false.
type IncidentSink interface {
	CreateIncident(ctx context.Context, decisionID domain.DecisionID, severity HarmSeverity) (domain.IncidentID, bool, error)
}

// DecisionLookup resolves decisions against the ledger. Satisfied by the
// ledger service.
type DecisionLookup interface {
	GetByID(ctx context.Context, id domain.DecisionID) (*ledger.DecisionRecord, error)
}
