package outcome

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	outcomes "veritas/internal/outcome"
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

func newOutcome(decisionID domain.DecisionID) *outcomes.Outcome {
	return &outcomes.Outcome{
		ID:           domain.NewOutcomeID(),
		DecisionID:   decisionID,
		Type:         outcomes.TypeIncorrect,
		HarmCategory: outcomes.HarmCategoryNone,
		HarmSeverity: outcomes.HarmSeverityNone,
		DetectedAt:   time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	}
}

func (s *InMemoryStoreSuite) TestSave() {
	decisionID := domain.NewDecisionID()

	s.Run("first save inserts", func() {
		isUpdate, err := s.store.Save(s.ctx, newOutcome(decisionID))
		s.Require().NoError(err)
		s.False(isUpdate)
	})

	s.Run("second save overwrites and keeps the id", func() {
		first := newOutcome(decisionID)
		_, err := s.store.Save(s.ctx, first)
		s.Require().NoError(err)

		second := newOutcome(decisionID)
		second.Type = outcomes.TypeReversed
		isUpdate, err := s.store.Save(s.ctx, second)
		s.Require().NoError(err)
		s.True(isUpdate)
		s.Equal(first.ID, second.ID)

		stored, err := s.store.GetByDecision(s.ctx, decisionID)
		s.Require().NoError(err)
		s.Equal(outcomes.TypeReversed, stored.Type)
	})

	s.Run("incident id survives an overwrite without one", func() {
		withIncident := newOutcome(decisionID)
		incidentID := domain.IncidentID(uuid.New())
		withIncident.IncidentID = &incidentID
		_, err := s.store.Save(s.ctx, withIncident)
		s.Require().NoError(err)

		plain := newOutcome(decisionID)
		_, err = s.store.Save(s.ctx, plain)
		s.Require().NoError(err)
		s.Require().NotNil(plain.IncidentID)
		s.Equal(incidentID, *plain.IncidentID)
	})
}

func (s *InMemoryStoreSuite) TestGetByDecision() {
	s.Run("missing outcome is not found", func() {
		_, err := s.store.GetByDecision(s.ctx, domain.NewDecisionID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returned outcome is a copy", func() {
		decisionID := domain.NewDecisionID()
		_, err := s.store.Save(s.ctx, newOutcome(decisionID))
		s.Require().NoError(err)

		got, err := s.store.GetByDecision(s.ctx, decisionID)
		s.Require().NoError(err)
		got.Type = outcomes.TypeHarmful

		again, err := s.store.GetByDecision(s.ctx, decisionID)
		s.Require().NoError(err)
		s.Equal(outcomes.TypeIncorrect, again.Type)
	})
}
