package handler_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"veritas/internal/appeals"
	"veritas/internal/appeals/handler"
	"veritas/internal/appeals/store/appeal"
	"veritas/internal/ledger"
	"veritas/pkg/domain"
	dErrors "veritas/pkg/domain-errors"
	"veritas/pkg/testutil"
)

var testNow = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

type refLookup map[string]*ledger.DecisionRecord

func (l refLookup) GetByRef(_ context.Context, ref string) (*ledger.DecisionRecord, error) {
	if rec, ok := l[ref]; ok {
		return rec, nil
	}
	return nil, dErrors.Newf(dErrors.CodeNotFound, "decision %q not found", ref)
}

type AppealHandlerSuite struct {
	suite.Suite
	router        chi.Router
	knownDecision domain.DecisionID
}

func TestAppealHandlerSuite(t *testing.T) {
	suite.Run(t, new(AppealHandlerSuite))
}

func (s *AppealHandlerSuite) SetupTest() {
	s.knownDecision = domain.NewDecisionID()
	lookup := refLookup{
		"DEC-KNOWN-000001": {ID: s.knownDecision, DecisionRef: "DEC-KNOWN-000001"},
	}

	svc, err := appeals.NewService(appeal.NewInMemoryStore(), lookup)
	s.Require().NoError(err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := handler.New(svc, logger)

	s.router = chi.NewRouter()
	s.router.Route("/v1", h.Register)
}

func (s *AppealHandlerSuite) post(path string, body map[string]any, at time.Time) map[string]any {
	req := testutil.WithRequestTime(testutil.NewJSONRequest(s.T(), http.MethodPost, path, body), at)
	rr := testutil.DoRequest(s.router, req)
	s.Require().Contains([]int{http.StatusOK, http.StatusCreated}, rr.Code, rr.Body.String())

	var resp map[string]any
	testutil.DecodeJSON(s.T(), rr, &resp)
	return resp
}

func (s *AppealHandlerSuite) createBody() map[string]any {
	return map[string]any{
		"decision_ref":        "DEC-KNOWN-000001",
		"appellant_reference": "APPL-4471",
		"appeal_category":     "process",
		"appeal_reason":       "decision used stale employment data",
	}
}

func (s *AppealHandlerSuite) createAppeal() map[string]any {
	return s.post("/v1/appeals", s.createBody(), testNow)
}

func (s *AppealHandlerSuite) TestCreateAppeal() {
	s.Run("creates a pending appeal with its deadline", func() {
		req := testutil.WithRequestTime(testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/appeals", s.createBody()), testNow)
		rr := testutil.DoRequest(s.router, req)
		s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())

		var resp map[string]any
		testutil.DecodeJSON(s.T(), rr, &resp)
		s.NotEmpty(resp["appeal_id"])
		s.Equal(s.knownDecision.String(), resp["decision_id"])
		s.Equal("pending", resp["status"])
		s.Equal("OK", resp["sla_status"])

		deadline, err := time.Parse(time.RFC3339, resp["sla_deadline"].(string))
		s.Require().NoError(err)
		s.True(deadline.Equal(testNow.Add(72 * time.Hour)))
	})

	s.Run("safety category tightens the deadline", func() {
		body := s.createBody()
		body["appeal_category"] = "safety"
		resp := s.post("/v1/appeals", body, testNow)

		deadline, err := time.Parse(time.RFC3339, resp["sla_deadline"].(string))
		s.Require().NoError(err)
		s.True(deadline.Equal(testNow.Add(24 * time.Hour)))
	})

	s.Run("unknown decision ref is not found", func() {
		body := s.createBody()
		body["decision_ref"] = "DEC-MISSING-000001"
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/appeals", body))
		s.Equal(http.StatusNotFound, rr.Code)
	})

	s.Run("missing fields are validation errors", func() {
		for _, field := range []string{"decision_ref", "appellant_reference", "appeal_category", "appeal_reason"} {
			body := s.createBody()
			body[field] = " "
			rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/appeals", body))
			s.Equal(http.StatusBadRequest, rr.Code, "field %s", field)

			var resp map[string]any
			testutil.DecodeJSON(s.T(), rr, &resp)
			s.Equal("validation_error", resp["error"])
		}
	})
}

func (s *AppealHandlerSuite) TestAssignAppeal() {
	s.Run("pending appeal moves under review", func() {
		created := s.createAppeal()
		resp := s.post("/v1/appeals/"+created["appeal_id"].(string)+"/assign",
			map[string]any{"user_id": "reviewer-9"}, testNow)
		s.Equal("under_review", resp["status"])
		s.Equal("reviewer-9", resp["assigned_to"])
	})

	s.Run("assigning twice is rejected", func() {
		created := s.createAppeal()
		path := "/v1/appeals/" + created["appeal_id"].(string) + "/assign"
		s.post(path, map[string]any{"user_id": "reviewer-9"}, testNow)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, path, map[string]any{"user_id": "reviewer-10"}))
		s.Equal(http.StatusBadRequest, rr.Code)
	})

	s.Run("unknown appeal is not found", func() {
		path := "/v1/appeals/" + domain.NewAppealID().String() + "/assign"
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, path, map[string]any{"user_id": "reviewer-9"}))
		s.Equal(http.StatusNotFound, rr.Code)
	})

	s.Run("malformed appeal id is rejected", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/appeals/not-a-uuid/assign", map[string]any{"user_id": "reviewer-9"}))
		s.Equal(http.StatusBadRequest, rr.Code)
	})
}

func (s *AppealHandlerSuite) TestResolveAppeal() {
	underReview := func() string {
		created := s.createAppeal()
		id := created["appeal_id"].(string)
		s.post("/v1/appeals/"+id+"/assign", map[string]any{"user_id": "reviewer-9"}, testNow)
		return id
	}

	s.Run("review terminates in the requested resolution", func() {
		id := underReview()
		resolvedAt := testNow.Add(6 * time.Hour)
		resp := s.post("/v1/appeals/"+id+"/resolve", map[string]any{
			"resolution":  "overturned",
			"notes":       "input evidence was stale",
			"resolved_by": "reviewer-9",
		}, resolvedAt)
		s.Equal("overturned", resp["status"])
		s.Equal("input evidence was stale", resp["resolution_notes"])
		s.Equal("reviewer-9", resp["resolved_by"])
		s.NotEmpty(resp["resolved_at"])
		s.Equal("OK", resp["sla_status"])
	})

	s.Run("unknown resolution is a validation error", func() {
		id := underReview()
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/appeals/"+id+"/resolve", map[string]any{"resolution": "dismissed"}))
		s.Equal(http.StatusBadRequest, rr.Code)
	})

	s.Run("resolving a pending appeal is rejected", func() {
		created := s.createAppeal()
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/appeals/"+created["appeal_id"].(string)+"/resolve", map[string]any{"resolution": "upheld"}))
		s.Equal(http.StatusBadRequest, rr.Code)

		var resp map[string]any
		testutil.DecodeJSON(s.T(), rr, &resp)
		s.Equal("validation_error", resp["error"])
	})
}

func (s *AppealHandlerSuite) TestGetAppeal() {
	s.Run("returns the appeal with derived sla status", func() {
		created := s.createAppeal()
		path := "/v1/appeals/" + created["appeal_id"].(string)

		// 11 hours before the 72 hour deadline: urgent.
		at := testNow.Add(72*time.Hour - 11*time.Hour)
		rr := testutil.DoRequest(s.router, testutil.WithRequestTime(testutil.NewRequest(s.T(), http.MethodGet, path), at))
		s.Require().Equal(http.StatusOK, rr.Code)

		var resp map[string]any
		testutil.DecodeJSON(s.T(), rr, &resp)
		s.Equal("URGENT", resp["sla_status"])

		rr = testutil.DoRequest(s.router, testutil.WithRequestTime(testutil.NewRequest(s.T(), http.MethodGet, path), testNow.Add(80*time.Hour)))
		s.Require().Equal(http.StatusOK, rr.Code)
		testutil.DecodeJSON(s.T(), rr, &resp)
		s.Equal("OVERDUE", resp["sla_status"])
	})

	s.Run("unknown appeal is not found", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/appeals/"+domain.NewAppealID().String()))
		s.Equal(http.StatusNotFound, rr.Code)
	})
}

func (s *AppealHandlerSuite) TestListing() {
	s.Run("lists appeals for a decision", func() {
		s.createAppeal()
		s.createAppeal()

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/decisions/"+s.knownDecision.String()+"/appeals"))
		s.Require().Equal(http.StatusOK, rr.Code)

		var resp map[string]any
		testutil.DecodeJSON(s.T(), rr, &resp)
		s.Equal(float64(2), resp["count"])
	})

	s.Run("overdue lists only open appeals past deadline", func() {
		s.SetupTest()
		created := s.createAppeal()
		resolved := s.createAppeal()

		id := resolved["appeal_id"].(string)
		s.post("/v1/appeals/"+id+"/assign", map[string]any{"user_id": "reviewer-9"}, testNow)
		s.post("/v1/appeals/"+id+"/resolve", map[string]any{"resolution": "upheld", "resolved_by": "reviewer-9"}, testNow)

		at := testNow.Add(80 * time.Hour)
		rr := testutil.DoRequest(s.router, testutil.WithRequestTime(testutil.NewRequest(s.T(), http.MethodGet, "/v1/appeals/overdue"), at))
		s.Require().Equal(http.StatusOK, rr.Code)

		var resp map[string]any
		testutil.DecodeJSON(s.T(), rr, &resp)
		s.Require().Equal(float64(1), resp["count"])
		listed := resp["appeals"].([]any)
		first := listed[0].(map[string]any)
		s.Equal(created["appeal_id"], first["appeal_id"])
		s.Equal("OVERDUE", first["sla_status"])
	})
}
