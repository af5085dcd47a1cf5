package ledger

import (
	"context"

	"veritas/pkg/domain"
)

// Store persists decision records. Implementations must make Append atomic
// with respect to the chain tip: the record is inserted only if the tip
// still equals expectedTip, otherwise sentinel.ErrChainConflict is
// returned. A duplicate decision_ref returns sentinel.ErrConflict.
type Store interface {
	// Tip returns the record_hash of the most recently appended record,
	// or Genesis when the ledger is empty.
	Tip(ctx context.Context) (string, error)

	// Append inserts rec iff the chain tip still equals expectedTip.
	// The store assigns rec.Seq.
	Append(ctx context.Context, rec *DecisionRecord, expectedTip string) error

	GetByID(ctx context.Context, id domain.DecisionID) (*DecisionRecord, error)
	GetByRef(ctx context.Context, ref string) (*DecisionRecord, error)
	GetBySeq(ctx context.Context, seq int64) (*DecisionRecord, error)

	// Range returns records with from <= seq <= to in insertion order.
	// from <= 0 means from the first record; to <= 0 means to the tip.
	Range(ctx context.Context, from, to int64) ([]*DecisionRecord, error)

	// List returns records newest first for dashboard reads.
	List(ctx context.Context, limit, offset int) ([]*DecisionRecord, error)
}

// ModelRegistry resolves model identifiers against the external model
// registry. Decision logging refuses to record decisions for unknown models.
type ModelRegistry interface {
	ResolveModel(ctx context.Context, modelID string) (exists bool, err error)
}
