package appeals_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"veritas/internal/appeals"
	"veritas/internal/appeals/store/appeal"
	"veritas/internal/ledger"
	"veritas/pkg/domain"
	dErrors "veritas/pkg/domain-errors"
	"veritas/pkg/platform/sentinel"
	"veritas/pkg/requestcontext"
)

var testNow = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

type refLookup map[string]*ledger.DecisionRecord

func (l refLookup) GetByRef(_ context.Context, ref string) (*ledger.DecisionRecord, error) {
	if rec, ok := l[ref]; ok {
		return rec, nil
	}
	return nil, dErrors.Newf(dErrors.CodeNotFound, "decision %q not found", ref)
}

type ServiceSuite struct {
	suite.Suite
	store *appeal.InMemoryStore
	svc   *appeals.Service
	ctx   context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = appeal.NewInMemoryStore()
	lookup := refLookup{
		"DEC-KNOWN-000001": {ID: domain.NewDecisionID(), DecisionRef: "DEC-KNOWN-000001"},
	}

	svc, err := appeals.NewService(s.store, lookup)
	s.Require().NoError(err)
	s.svc = svc
	s.ctx = requestcontext.WithTime(context.Background(), testNow)
}

func (s *ServiceSuite) createRequest() appeals.CreateRequest {
	return appeals.CreateRequest{
		DecisionRef:        "DEC-KNOWN-000001",
		AppellantReference: "APPL-4471",
		Category:           "process",
		Reason:             "decision used stale employment data",
	}
}

func (s *ServiceSuite) createAppeal() *appeals.Appeal {
	a, err := s.svc.Create(s.ctx, s.createRequest())
	s.Require().NoError(err)
	return a
}

func (s *ServiceSuite) TestCreate() {
	s.Run("starts pending with the default SLA window", func() {
		a := s.createAppeal()
		s.Equal(appeals.StatusPending, a.Status)
		s.Equal(testNow.Add(72*time.Hour), a.SLADeadline)
		s.Equal(testNow, a.CreatedAt)
		s.Empty(a.AssignedTo)
		s.Equal(int64(1), a.Version)
	})

	s.Run("safety appeals get a 24 hour window", func() {
		req := s.createRequest()
		req.Category = "safety"
		a, err := s.svc.Create(s.ctx, req)
		s.Require().NoError(err)
		s.Equal(testNow.Add(24*time.Hour), a.SLADeadline)
	})

	s.Run("discrimination appeals get a 48 hour window", func() {
		req := s.createRequest()
		req.Category = "Discrimination"
		a, err := s.svc.Create(s.ctx, req)
		s.Require().NoError(err)
		s.Equal("discrimination", a.Category)
		s.Equal(testNow.Add(48*time.Hour), a.SLADeadline)
	})

	s.Run("unknown decision ref is not found", func() {
		req := s.createRequest()
		req.DecisionRef = "DEC-MISSING-000001"
		_, err := s.svc.Create(s.ctx, req)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("missing fields are validation errors", func() {
		mutations := []func(*appeals.CreateRequest){
			func(r *appeals.CreateRequest) { r.DecisionRef = "" },
			func(r *appeals.CreateRequest) { r.AppellantReference = "" },
			func(r *appeals.CreateRequest) { r.Category = "" },
			func(r *appeals.CreateRequest) { r.Reason = "  " },
		}
		for _, mutate := range mutations {
			req := s.createRequest()
			mutate(&req)
			_, err := s.svc.Create(s.ctx, req)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		}
	})
}

func (s *ServiceSuite) TestAssign() {
	s.Run("pending appeal moves under review", func() {
		a := s.createAppeal()
		assigned, err := s.svc.Assign(s.ctx, a.ID, "reviewer-9")
		s.Require().NoError(err)
		s.Equal(appeals.StatusUnderReview, assigned.Status)
		s.Equal("reviewer-9", assigned.AssignedTo)
	})

	s.Run("assigning twice is an illegal transition", func() {
		a := s.createAppeal()
		_, err := s.svc.Assign(s.ctx, a.ID, "reviewer-9")
		s.Require().NoError(err)

		_, err = s.svc.Assign(s.ctx, a.ID, "reviewer-10")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown appeal is not found", func() {
		_, err := s.svc.Assign(s.ctx, domain.NewAppealID(), "reviewer-9")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("missing user is a validation error", func() {
		a := s.createAppeal()
		_, err := s.svc.Assign(s.ctx, a.ID, " ")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestResolve() {
	underReview := func() *appeals.Appeal {
		a := s.createAppeal()
		assigned, err := s.svc.Assign(s.ctx, a.ID, "reviewer-9")
		s.Require().NoError(err)
		return assigned
	}

	s.Run("review terminates in the requested resolution", func() {
		for _, resolution := range []appeals.Status{
			appeals.StatusUpheld, appeals.StatusOverturned, appeals.StatusEscalated,
		} {
			a := underReview()
			resolved, err := s.svc.Resolve(s.ctx, a.ID, resolution, "reviewed the input evidence", "reviewer-9")
			s.Require().NoError(err)
			s.Equal(resolution, resolved.Status)
			s.Equal("reviewed the input evidence", resolved.ResolutionNotes)
			s.Equal("reviewer-9", resolved.ResolvedBy)
			s.Require().NotNil(resolved.ResolvedAt)
			s.Equal(testNow, *resolved.ResolvedAt)
		}
	})

	s.Run("resolving a pending appeal is an illegal transition", func() {
		a := s.createAppeal()
		_, err := s.svc.Resolve(s.ctx, a.ID, appeals.StatusUpheld, "", "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("resolving twice is an illegal transition", func() {
		a := underReview()
		_, err := s.svc.Resolve(s.ctx, a.ID, appeals.StatusOverturned, "", "reviewer-9")
		s.Require().NoError(err)

		_, err = s.svc.Resolve(s.ctx, a.ID, appeals.StatusUpheld, "", "reviewer-9")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("pending is not a legal resolution", func() {
		a := underReview()
		_, err := s.svc.Resolve(s.ctx, a.ID, appeals.StatusPending, "", "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// conflictStore makes every Update lose its optimistic version check.
type conflictStore struct {
	*appeal.InMemoryStore
}

func (c *conflictStore) Update(context.Context, *appeals.Appeal) error {
	return sentinel.ErrVersionConflict
}

func (s *ServiceSuite) TestConcurrentTransitionConflict() {
	store := &conflictStore{InMemoryStore: s.store}
	lookup := refLookup{"DEC-KNOWN-000001": {ID: domain.NewDecisionID(), DecisionRef: "DEC-KNOWN-000001"}}
	svc, err := appeals.NewService(store, lookup)
	s.Require().NoError(err)

	a, err := svc.Create(s.ctx, s.createRequest())
	s.Require().NoError(err)

	_, err = svc.Assign(s.ctx, a.ID, "reviewer-9")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestSLAStatus() {
	a := s.createAppeal()

	s.Run("fresh appeal is ok", func() {
		s.Equal(appeals.SLAOK, a.SLAStatusAt(testNow))
	})

	s.Run("under 12 hours remaining is urgent", func() {
		s.Equal(appeals.SLAUrgent, a.SLAStatusAt(a.SLADeadline.Add(-11*time.Hour)))
	})

	s.Run("past the deadline is overdue", func() {
		s.Equal(appeals.SLAOverdue, a.SLAStatusAt(a.SLADeadline.Add(time.Minute)))
	})

	s.Run("terminal appeals are never overdue", func() {
		assigned, err := s.svc.Assign(s.ctx, a.ID, "reviewer-9")
		s.Require().NoError(err)
		resolved, err := s.svc.Resolve(s.ctx, assigned.ID, appeals.StatusUpheld, "", "reviewer-9")
		s.Require().NoError(err)
		s.Equal(appeals.SLAOK, resolved.SLAStatusAt(resolved.SLADeadline.Add(time.Hour)))
	})
}

func (s *ServiceSuite) TestListing() {
	first := s.createAppeal()
	second := s.createAppeal()

	s.Run("by decision", func() {
		listed, err := s.svc.ListByDecision(s.ctx, first.DecisionID)
		s.Require().NoError(err)
		s.Len(listed, 2)
	})

	s.Run("overdue only includes open appeals past deadline", func() {
		assigned, err := s.svc.Assign(s.ctx, second.ID, "reviewer-9")
		s.Require().NoError(err)
		_, err = s.svc.Resolve(s.ctx, assigned.ID, appeals.StatusUpheld, "", "reviewer-9")
		s.Require().NoError(err)

		afterDeadline := requestcontext.WithTime(context.Background(), testNow.Add(80*time.Hour))
		overdue, err := s.svc.ListOverdue(afterDeadline)
		s.Require().NoError(err)
		s.Require().Len(overdue, 1)
		s.Equal(first.ID, overdue[0].ID)
	})
}
