package handler_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"veritas/internal/incidents"
	"veritas/internal/ledger"
	"veritas/internal/outcome"
	"veritas/internal/outcome/handler"
	"veritas/internal/outcome/mocks"
	outcomestore "veritas/internal/outcome/store/outcome"
	"veritas/pkg/domain"
	dErrors "veritas/pkg/domain-errors"
	"veritas/pkg/testutil"
)

type OutcomeHandlerSuite struct {
	suite.Suite
	router        chi.Router
	knownDecision domain.DecisionID
}

func TestOutcomeHandlerSuite(t *testing.T) {
	suite.Run(t, new(OutcomeHandlerSuite))
}

func (s *OutcomeHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.T().Cleanup(ctrl.Finish)

	s.knownDecision = domain.NewDecisionID()
	decisions := mocks.NewMockDecisionLookup(ctrl)
	decisions.EXPECT().GetByID(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, id domain.DecisionID) (*ledger.DecisionRecord, error) {
			if id == s.knownDecision {
				return &ledger.DecisionRecord{ID: id}, nil
			}
			return nil, dErrors.Newf(dErrors.CodeNotFound, "decision %s not found", id)
		},
	).AnyTimes()

	svc, err := outcome.NewService(outcomestore.NewInMemoryStore(), decisions, incidents.NewInMemorySink())
	s.Require().NoError(err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := handler.New(svc, logger)

	s.router = chi.NewRouter()
	s.router.Route("/v1", h.Register)
}

func (s *OutcomeHandlerSuite) outcomePath() string {
	return "/v1/decisions/" + s.knownDecision.String() + "/outcome"
}

func (s *OutcomeHandlerSuite) TestTrackOutcome() {
	s.Run("first report is created", func() {
		body := map[string]any{"outcome_type": "correct"}
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, s.outcomePath(), body))
		s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())

		var resp map[string]any
		testutil.DecodeJSON(s.T(), rr, &resp)
		s.Equal(false, resp["is_update"])
		s.Equal(false, resp["incident_created"])
		s.Equal("none", resp["harm_category"])
	})

	s.Run("second report is an update", func() {
		body := map[string]any{"outcome_type": "incorrect"}
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, s.outcomePath(), body))
		s.Require().Equal(http.StatusOK, rr.Code)

		var resp map[string]any
		testutil.DecodeJSON(s.T(), rr, &resp)
		s.Equal(true, resp["is_update"])
	})

	s.Run("harmful critical report escalates", func() {
		s.SetupTest()
		body := map[string]any{
			"outcome_type":  "harmful",
			"harm_category": "discrimination",
			"harm_severity": "critical",
		}
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, s.outcomePath(), body))
		s.Require().Equal(http.StatusCreated, rr.Code)

		var resp map[string]any
		testutil.DecodeJSON(s.T(), rr, &resp)
		s.Equal(true, resp["incident_created"])
		s.NotEmpty(resp["incident_id"])

		// Same qualifying report again: no duplicate incident.
		rr = testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, s.outcomePath(), body))
		s.Require().Equal(http.StatusOK, rr.Code)
		testutil.DecodeJSON(s.T(), rr, &resp)
		s.Equal(false, resp["incident_created"])
	})

	s.Run("harm classification violations are validation errors", func() {
		for _, body := range []map[string]any{
			{"outcome_type": "harmful", "harm_category": "none", "harm_severity": "high"},
			{"outcome_type": "harmful", "harm_category": "financial"},
			{"outcome_type": "correct", "harm_category": "financial"},
			{"outcome_type": "sideways"},
		} {
			rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, s.outcomePath(), body))
			s.Equal(http.StatusBadRequest, rr.Code, "body %v", body)

			var resp map[string]any
			testutil.DecodeJSON(s.T(), rr, &resp)
			s.Equal("validation_error", resp["error"])
		}
	})

	s.Run("unknown decision is not found", func() {
		body := map[string]any{"outcome_type": "correct"}
		path := "/v1/decisions/" + domain.NewDecisionID().String() + "/outcome"
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, path, body))
		s.Equal(http.StatusNotFound, rr.Code)
	})

	s.Run("malformed decision id is rejected", func() {
		body := map[string]any{"outcome_type": "correct"}
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/decisions/not-a-uuid/outcome", body))
		s.Equal(http.StatusBadRequest, rr.Code)
	})
}

func (s *OutcomeHandlerSuite) TestGetOutcome() {
	s.Run("no outcome recorded is not found", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, s.outcomePath()))
		s.Equal(http.StatusNotFound, rr.Code)
	})

	s.Run("returns the stored outcome", func() {
		body := map[string]any{
			"outcome_type":    "harmful",
			"harm_category":   "safety",
			"harm_severity":   "high",
			"outcome_details": "braking decision delayed past threshold",
			"verified_by":     "auditor-17",
		}
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, s.outcomePath(), body))
		s.Require().Equal(http.StatusCreated, rr.Code)

		rr = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, s.outcomePath()))
		s.Require().Equal(http.StatusOK, rr.Code)

		var resp map[string]any
		testutil.DecodeJSON(s.T(), rr, &resp)
		s.Equal("harmful", resp["outcome_type"])
		s.Equal("safety", resp["harm_category"])
		s.Equal("high", resp["harm_severity"])
		s.Equal("auditor-17", resp["verified_by"])
		s.NotEmpty(resp["incident_id"])
	})
}
