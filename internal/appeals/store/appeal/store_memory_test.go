package appeal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"veritas/internal/appeals"
	"veritas/pkg/domain"
	"veritas/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
}

func newAppeal(decisionID domain.DecisionID, created time.Time) *appeals.Appeal {
	return &appeals.Appeal{
		ID:                 domain.NewAppealID(),
		DecisionID:         decisionID,
		DecisionRef:        "DEC-TEST-000001",
		AppellantReference: "APPL-4471",
		Category:           "process",
		Reason:             "stale data",
		Status:             appeals.StatusPending,
		SLADeadline:        created.Add(72 * time.Hour),
		CreatedAt:          created,
		UpdatedAt:          created,
		Version:            1,
	}
}

func (s *InMemoryStoreSuite) TestCreateAndGet() {
	a := newAppeal(domain.NewDecisionID(), time.Now())
	s.Require().NoError(s.store.Create(s.ctx, a))

	got, err := s.store.Get(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(a.ID, got.ID)

	s.Run("duplicate id is rejected", func() {
		s.Require().ErrorIs(s.store.Create(s.ctx, a), sentinel.ErrConflict)
	})

	s.Run("unknown id is not found", func() {
		_, err := s.store.Get(s.ctx, domain.NewAppealID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestUpdateVersionCheck() {
	a := newAppeal(domain.NewDecisionID(), time.Now())
	s.Require().NoError(s.store.Create(s.ctx, a))

	fresh, err := s.store.Get(s.ctx, a.ID)
	s.Require().NoError(err)
	stale, err := s.store.Get(s.ctx, a.ID)
	s.Require().NoError(err)

	fresh.Status = appeals.StatusUnderReview
	s.Require().NoError(s.store.Update(s.ctx, fresh))
	s.Equal(int64(2), fresh.Version)

	// The copy still carries version 1: its update must lose.
	stale.Status = appeals.StatusEscalated
	s.Require().ErrorIs(s.store.Update(s.ctx, stale), sentinel.ErrVersionConflict)

	got, err := s.store.Get(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(appeals.StatusUnderReview, got.Status)
}

func (s *InMemoryStoreSuite) TestListOverdue() {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	decisionID := domain.NewDecisionID()

	open := newAppeal(decisionID, now.Add(-100*time.Hour))
	s.Require().NoError(s.store.Create(s.ctx, open))

	resolved := newAppeal(decisionID, now.Add(-100*time.Hour))
	resolved.Status = appeals.StatusUpheld
	s.Require().NoError(s.store.Create(s.ctx, resolved))

	fresh := newAppeal(decisionID, now)
	s.Require().NoError(s.store.Create(s.ctx, fresh))

	overdue, err := s.store.ListOverdue(s.ctx, now)
	s.Require().NoError(err)
	s.Require().Len(overdue, 1)
	s.Equal(open.ID, overdue[0].ID)
}
