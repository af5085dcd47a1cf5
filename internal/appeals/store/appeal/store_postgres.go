package appeal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"veritas/internal/appeals"
	"veritas/pkg/domain"
	"veritas/pkg/platform/sentinel"
)

// PostgresStore persists appeals in PostgreSQL. Concurrent transitions are
// guarded by an optimistic version column.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the appeals table when it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS decision_appeals (
    id                  UUID PRIMARY KEY,
    decision_id         UUID NOT NULL,
    decision_ref        TEXT NOT NULL,
    appellant_reference TEXT NOT NULL,
    appeal_category     TEXT NOT NULL,
    appeal_reason       TEXT NOT NULL,
    status              TEXT NOT NULL,
    assigned_to         TEXT NOT NULL DEFAULT '',
    resolution_notes    TEXT NOT NULL DEFAULT '',
    resolved_by         TEXT NOT NULL DEFAULT '',
    resolved_at         TIMESTAMPTZ,
    sla_deadline        TIMESTAMPTZ NOT NULL,
    created_at          TIMESTAMPTZ NOT NULL,
    updated_at          TIMESTAMPTZ NOT NULL,
    version             BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_decision_appeals_decision ON decision_appeals (decision_id);
CREATE INDEX IF NOT EXISTS idx_decision_appeals_open_deadline
    ON decision_appeals (sla_deadline)
    WHERE status IN ('pending', 'under_review');
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure appeals schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, a *appeals.Appeal) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO decision_appeals
			(id, decision_id, decision_ref, appellant_reference, appeal_category,
			 appeal_reason, status, assigned_to, resolution_notes, resolved_by,
			 resolved_at, sla_deadline, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		a.ID, a.DecisionID, a.DecisionRef, a.AppellantReference, a.Category,
		a.Reason, a.Status, a.AssignedTo, a.ResolutionNotes, a.ResolvedBy,
		a.ResolvedAt, a.SLADeadline, a.CreatedAt, a.UpdatedAt, a.Version,
	)
	if err != nil {
		return fmt.Errorf("insert appeal: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id domain.AppealID) (*appeals.Appeal, error) {
	a, err := scanAppeal(s.db.QueryRowContext(ctx, selectColumns+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get appeal: %w", err)
	}
	return a, nil
}

// Update writes the appeal iff the stored version is unchanged, then bumps
// the version on both sides.
func (s *PostgresStore) Update(ctx context.Context, a *appeals.Appeal) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE decision_appeals SET
			status           = $1,
			assigned_to      = $2,
			resolution_notes = $3,
			resolved_by      = $4,
			resolved_at      = $5,
			updated_at       = $6,
			version          = version + 1
		WHERE id = $7 AND version = $8`,
		a.Status, a.AssignedTo, a.ResolutionNotes, a.ResolvedBy,
		a.ResolvedAt, a.UpdatedAt, a.ID, a.Version,
	)
	if err != nil {
		return fmt.Errorf("update appeal: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update appeal: %w", err)
	}
	if affected == 0 {
		// Either the row is gone or another transition won the race.
		if _, err := s.Get(ctx, a.ID); errors.Is(err, sentinel.ErrNotFound) {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrVersionConflict
	}

	a.Version++
	return nil
}

func (s *PostgresStore) ListByDecision(ctx context.Context, decisionID domain.DecisionID) ([]*appeals.Appeal, error) {
	rows, err := s.db.QueryContext(ctx,
		selectColumns+` WHERE decision_id = $1 ORDER BY created_at ASC, id ASC`, decisionID)
	if err != nil {
		return nil, fmt.Errorf("list appeals by decision: %w", err)
	}
	defer rows.Close()
	return scanAppeals(rows)
}

func (s *PostgresStore) ListOverdue(ctx context.Context, now time.Time) ([]*appeals.Appeal, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+`
		WHERE status IN ('pending', 'under_review') AND sla_deadline < $1
		ORDER BY sla_deadline ASC`, now)
	if err != nil {
		return nil, fmt.Errorf("list overdue appeals: %w", err)
	}
	defer rows.Close()
	return scanAppeals(rows)
}

const selectColumns = `
	SELECT id, decision_id, decision_ref, appellant_reference, appeal_category,
	       appeal_reason, status, assigned_to, resolution_notes, resolved_by,
	       resolved_at, sla_deadline, created_at, updated_at, version
	FROM decision_appeals`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppeal(row rowScanner) (*appeals.Appeal, error) {
	var a appeals.Appeal
	var resolvedAt sql.NullTime
	err := row.Scan(
		&a.ID, &a.DecisionID, &a.DecisionRef, &a.AppellantReference, &a.Category,
		&a.Reason, &a.Status, &a.AssignedTo, &a.ResolutionNotes, &a.ResolvedBy,
		&resolvedAt, &a.SLADeadline, &a.CreatedAt, &a.UpdatedAt, &a.Version,
	)
	if err != nil {
		return nil, err
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time.UTC()
		a.ResolvedAt = &t
	}
	a.SLADeadline = a.SLADeadline.UTC()
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return &a, nil
}

func scanAppeals(rows *sql.Rows) ([]*appeals.Appeal, error) {
	var out []*appeals.Appeal
	for rows.Next() {
		a, err := scanAppeal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appeal: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate appeals: %w", err)
	}
	return out, nil
}
