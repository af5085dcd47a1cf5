package record

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"veritas/internal/ledger"
	"veritas/pkg/domain"
	"veritas/pkg/platform/sentinel"
)

// PostgresStore persists decision records in PostgreSQL.
//
// The chain tip lives in a single-row chain_tip table. Append runs one
// transaction that inserts the record and advances the tip with
// UPDATE ... WHERE tip = expectedTip; zero rows updated means another
// writer won the race and the append is rejected without inserting.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the ledger tables when they do not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS decision_records (
    id                 UUID PRIMARY KEY,
    seq                BIGINT NOT NULL UNIQUE,
    decision_ref       TEXT NOT NULL UNIQUE,
    model_id           TEXT NOT NULL,
    model_version      TEXT NOT NULL,
    decision_value     TEXT NOT NULL,
    confidence         DOUBLE PRECISION,
    context            JSONB,
    input_hash         CHAR(64) NOT NULL,
    output_hash        CHAR(64) NOT NULL,
    previous_hash      TEXT NOT NULL,
    record_hash        CHAR(64) NOT NULL UNIQUE,
    decision_timestamp TIMESTAMPTZ NOT NULL,
    created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_decision_records_model ON decision_records (model_id, model_version);

CREATE TABLE IF NOT EXISTS chain_tip (
    singleton  BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (singleton),
    tip        TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
INSERT INTO chain_tip (singleton, tip) VALUES (TRUE, 'GENESIS') ON CONFLICT DO NOTHING;
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure ledger schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Tip(ctx context.Context) (string, error) {
	var tip string
	err := s.db.QueryRowContext(ctx, `SELECT tip FROM chain_tip WHERE singleton`).Scan(&tip)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.Genesis, nil
		}
		return "", fmt.Errorf("read chain tip: %w", err)
	}
	return tip, nil
}

func (s *PostgresStore) Append(ctx context.Context, rec *ledger.DecisionRecord, expectedTip string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx,
		`UPDATE chain_tip SET tip = $1, updated_at = now() WHERE singleton AND tip = $2`,
		rec.RecordHash, expectedTip,
	)
	if err != nil {
		return fmt.Errorf("advance chain tip: %w", err)
	}
	moved, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("advance chain tip: %w", err)
	}
	if moved == 0 {
		return sentinel.ErrChainConflict
	}

	// seq stays gapless because the chain_tip row lock above serializes
	// appends; identity columns would leak gaps on rolled-back inserts.
	err = tx.QueryRowContext(ctx, `
		INSERT INTO decision_records
			(seq, id, decision_ref, model_id, model_version, decision_value,
			 confidence, context, input_hash, output_hash,
			 previous_hash, record_hash, decision_timestamp)
		SELECT COALESCE(MAX(seq), 0) + 1,
		       $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		FROM decision_records
		RETURNING seq`,
		rec.ID, rec.DecisionRef, rec.ModelID, rec.ModelVersion, rec.DecisionValue,
		rec.Confidence, nullableJSON(rec.Context), rec.InputHash, rec.OutputHash,
		rec.PreviousHash, rec.RecordHash, rec.DecisionTimestamp,
	).Scan(&rec.Seq)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert decision record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id domain.DecisionID) (*ledger.DecisionRecord, error) {
	return s.getOne(ctx, `WHERE id = $1`, id)
}

func (s *PostgresStore) GetByRef(ctx context.Context, ref string) (*ledger.DecisionRecord, error) {
	return s.getOne(ctx, `WHERE decision_ref = $1`, ref)
}

func (s *PostgresStore) GetBySeq(ctx context.Context, seq int64) (*ledger.DecisionRecord, error) {
	return s.getOne(ctx, `WHERE seq = $1`, seq)
}

func (s *PostgresStore) Range(ctx context.Context, from, to int64) ([]*ledger.DecisionRecord, error) {
	query := selectColumns + ` WHERE seq >= $1`
	args := []any{max(from, 1)}
	if to > 0 {
		query += ` AND seq <= $2`
		args = append(args, to)
	}
	query += ` ORDER BY seq ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("range decision records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (s *PostgresStore) List(ctx context.Context, limit, offset int) ([]*ledger.DecisionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		selectColumns+` ORDER BY seq DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list decision records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

const selectColumns = `
	SELECT id, seq, decision_ref, model_id, model_version, decision_value,
	       confidence, context, input_hash, output_hash,
	       previous_hash, record_hash, decision_timestamp
	FROM decision_records`

func (s *PostgresStore) getOne(ctx context.Context, where string, arg any) (*ledger.DecisionRecord, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx, selectColumns+" "+where, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get decision record: %w", err)
	}
	return rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*ledger.DecisionRecord, error) {
	var rec ledger.DecisionRecord
	var contextJSON []byte
	err := row.Scan(
		&rec.ID, &rec.Seq, &rec.DecisionRef, &rec.ModelID, &rec.ModelVersion,
		&rec.DecisionValue, &rec.Confidence, &contextJSON,
		&rec.InputHash, &rec.OutputHash,
		&rec.PreviousHash, &rec.RecordHash, &rec.DecisionTimestamp,
	)
	if err != nil {
		return nil, err
	}
	rec.Context = contextJSON
	rec.DecisionTimestamp = rec.DecisionTimestamp.UTC()
	return &rec, nil
}

func scanRecords(rows *sql.Rows) ([]*ledger.DecisionRecord, error) {
	var out []*ledger.DecisionRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan decision record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decision records: %w", err)
	}
	return out, nil
}

func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return raw
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
