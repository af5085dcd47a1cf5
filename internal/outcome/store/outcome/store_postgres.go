package outcome

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	outcomes "veritas/internal/outcome"
	"veritas/pkg/domain"
	"veritas/pkg/platform/sentinel"
)

// PostgresStore persists outcomes in PostgreSQL, one row per decision.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the outcome table when it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS decision_outcomes (
    id                UUID PRIMARY KEY,
    decision_id       UUID NOT NULL UNIQUE,
    outcome_type      TEXT NOT NULL,
    harm_category     TEXT NOT NULL,
    harm_severity     TEXT NOT NULL,
    outcome_details   TEXT NOT NULL DEFAULT '',
    remediation_taken TEXT NOT NULL DEFAULT '',
    verified_by       TEXT NOT NULL DEFAULT '',
    incident_id       UUID,
    detected_at       TIMESTAMPTZ NOT NULL
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure outcome schema: %w", err)
	}
	return nil
}

// Save upserts the outcome row for a decision. The stable outcome id and a
// previously recorded incident_id survive overwrites; xmax distinguishes an
// update from a fresh insert.
func (s *PostgresStore) Save(ctx context.Context, o *outcomes.Outcome) (bool, error) {
	var (
		id         domain.OutcomeID
		incidentID uuid.NullUUID
		isUpdate   bool
	)
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO decision_outcomes
			(id, decision_id, outcome_type, harm_category, harm_severity,
			 outcome_details, remediation_taken, verified_by, incident_id, detected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (decision_id) DO UPDATE SET
			outcome_type      = EXCLUDED.outcome_type,
			harm_category     = EXCLUDED.harm_category,
			harm_severity     = EXCLUDED.harm_severity,
			outcome_details   = EXCLUDED.outcome_details,
			remediation_taken = EXCLUDED.remediation_taken,
			verified_by       = EXCLUDED.verified_by,
			incident_id       = COALESCE(EXCLUDED.incident_id, decision_outcomes.incident_id),
			detected_at       = EXCLUDED.detected_at
		RETURNING id, incident_id, (xmax <> 0)`,
		o.ID, o.DecisionID, o.Type, o.HarmCategory, o.HarmSeverity,
		o.Details, o.RemediationTaken, o.VerifiedBy, nullableIncident(o.IncidentID), o.DetectedAt,
	).Scan(&id, &incidentID, &isUpdate)
	if err != nil {
		return false, fmt.Errorf("save outcome: %w", err)
	}

	o.ID = id
	o.IncidentID = incidentFromNull(incidentID)
	return isUpdate, nil
}

func (s *PostgresStore) GetByDecision(ctx context.Context, decisionID domain.DecisionID) (*outcomes.Outcome, error) {
	var (
		o          outcomes.Outcome
		incidentID uuid.NullUUID
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, decision_id, outcome_type, harm_category, harm_severity,
		       outcome_details, remediation_taken, verified_by, incident_id, detected_at
		FROM decision_outcomes
		WHERE decision_id = $1`, decisionID,
	).Scan(
		&o.ID, &o.DecisionID, &o.Type, &o.HarmCategory, &o.HarmSeverity,
		&o.Details, &o.RemediationTaken, &o.VerifiedBy, &incidentID, &o.DetectedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get outcome: %w", err)
	}

	o.IncidentID = incidentFromNull(incidentID)
	o.DetectedAt = o.DetectedAt.UTC()
	return &o, nil
}

func nullableIncident(id *domain.IncidentID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

func incidentFromNull(n uuid.NullUUID) *domain.IncidentID {
	if !n.Valid {
		return nil
	}
	id := domain.IncidentID(n.UUID)
	return &id
}
