package appeals

import (
	"context"
	"time"

	"veritas/internal/ledger"
	"veritas/pkg/domain"
)

// Store persists appeals.
type Store interface {
	Create(ctx context.Context, a *Appeal) error

	// Get returns an appeal, or sentinel.ErrNotFound.
	Get(ctx context.Context, id domain.AppealID) (*Appeal, error)

	// Update writes a modified appeal iff the stored version still equals
	// a.Version; sentinel.ErrVersionConflict otherwise. On success the
	// stored and in-memory versions are incremented.
	Update(ctx context.Context, a *Appeal) error

	ListByDecision(ctx context.Context, decisionID domain.DecisionID) ([]*Appeal, error)

	// ListOverdue returns non-terminal appeals whose deadline has passed.
	ListOverdue(ctx context.Context, now time.Time) ([]*Appeal, error)
}

// DecisionLookup resolves decision references against the ledger. Satisfied
// by the ledger service.
type DecisionLookup interface {
	GetByRef(ctx context.Context, ref string) (*ledger.DecisionRecord, error)
}
