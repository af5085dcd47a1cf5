package handler_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"veritas/internal/ledger"
	"veritas/internal/ledger/handler"
	"veritas/internal/ledger/store/record"
	"veritas/pkg/testutil"
)

type LedgerHandlerSuite struct {
	suite.Suite
	store  *record.InMemoryStore
	router chi.Router
}

func TestLedgerHandlerSuite(t *testing.T) {
	suite.Run(t, new(LedgerHandlerSuite))
}

type allowAllRegistry struct{}

func (allowAllRegistry) ResolveModel(_ context.Context, modelID string) (bool, error) {
	return modelID != "unknown-model", nil
}

func (s *LedgerHandlerSuite) SetupTest() {
	s.store = record.NewInMemoryStore()
	svc, err := ledger.NewService(s.store, allowAllRegistry{})
	s.Require().NoError(err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := handler.New(svc, logger)

	s.router = chi.NewRouter()
	s.router.Route("/v1", h.Register)
}

func (s *LedgerHandlerSuite) logBody() map[string]any {
	return map[string]any{
		"model_id":       "credit-scorer",
		"model_version":  "2.1.0",
		"input_data":     map[string]any{"income": 52000},
		"output_data":    map[string]any{"score": 0.91},
		"decision_value": "approved",
	}
}

func (s *LedgerHandlerSuite) postDecision() map[string]any {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/decisions", s.logBody())
	rr := testutil.DoRequest(s.router, req)
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())

	var resp map[string]any
	testutil.DecodeJSON(s.T(), rr, &resp)
	return resp
}

func (s *LedgerHandlerSuite) TestLogDecision() {
	s.Run("created with chain fields", func() {
		resp := s.postDecision()
		s.Equal("GENESIS", resp["previous_hash"])
		s.Len(resp["record_hash"], 64)
		s.Len(resp["input_hash"], 64)
		s.Len(resp["output_hash"], 64)
		s.Contains(resp["decision_ref"], "DEC-")
	})

	s.Run("second decision links to the first", func() {
		first := s.postDecision()
		second := s.postDecision()
		s.Equal(first["record_hash"], second["previous_hash"])
	})

	s.Run("missing model_id is a validation error", func() {
		body := s.logBody()
		delete(body, "model_id")
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/decisions", body)
		rr := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusBadRequest, rr.Code)

		var resp map[string]any
		testutil.DecodeJSON(s.T(), rr, &resp)
		s.Equal("validation_error", resp["error"])
	})

	s.Run("malformed body is a bad request", func() {
		req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/v1/decisions", `{"model_id":`)
		rr := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusBadRequest, rr.Code)
	})

	s.Run("unknown model is not found", func() {
		body := s.logBody()
		body["model_id"] = "unknown-model"
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/decisions", body)
		rr := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusNotFound, rr.Code)
	})

	s.Run("duplicate caller ref is a conflict", func() {
		body := s.logBody()
		body["decision_ref"] = "loan-application-7781"

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/decisions", body))
		s.Require().Equal(http.StatusCreated, rr.Code)

		rr = testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/decisions", body))
		s.Equal(http.StatusConflict, rr.Code)

		var resp map[string]any
		testutil.DecodeJSON(s.T(), rr, &resp)
		s.Equal("conflict", resp["error"])
	})
}

func (s *LedgerHandlerSuite) TestGetDecision() {
	created := s.postDecision()
	ref := created["decision_ref"].(string)

	s.Run("found by ref", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/decisions/"+ref))
		s.Require().Equal(http.StatusOK, rr.Code)

		var resp map[string]any
		testutil.DecodeJSON(s.T(), rr, &resp)
		s.Equal(ref, resp["decision_ref"])
		s.Equal(created["record_hash"], resp["record_hash"])

		// Raw payloads are never served back, only digests.
		s.NotContains(resp, "input_data")
		s.NotContains(resp, "output_data")
	})

	s.Run("unknown ref is not found", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/decisions/DEC-MISSING-000001"))
		s.Equal(http.StatusNotFound, rr.Code)
	})
}

func (s *LedgerHandlerSuite) TestListDecisions() {
	first := s.postDecision()
	second := s.postDecision()

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/decisions?limit=10"))
	s.Require().Equal(http.StatusOK, rr.Code)

	var resp struct {
		Decisions []map[string]any `json:"decisions"`
		Count     int              `json:"count"`
	}
	testutil.DecodeJSON(s.T(), rr, &resp)
	s.Equal(2, resp.Count)
	s.Equal(second["decision_ref"], resp.Decisions[0]["decision_ref"])
	s.Equal(first["decision_ref"], resp.Decisions[1]["decision_ref"])

	s.Run("negative limit is a validation error", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/decisions?limit=-1"))
		s.Equal(http.StatusBadRequest, rr.Code)
	})
}

func (s *LedgerHandlerSuite) TestVerifyChain() {
	s.postDecision()
	s.postDecision()
	s.postDecision()

	s.Run("intact chain verifies", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/decisions/verify"))
		s.Require().Equal(http.StatusOK, rr.Code)

		var resp map[string]any
		testutil.DecodeJSON(s.T(), rr, &resp)
		s.Equal(true, resp["valid"])
		s.Equal(float64(3), resp["checked"])
	})

	s.Run("tampered record is reported", func() {
		s.Require().True(s.store.Tamper(2, func(rec *ledger.DecisionRecord) {
			rec.DecisionValue = "denied"
		}))

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/decisions/verify"))
		s.Require().Equal(http.StatusOK, rr.Code)

		var resp struct {
			Valid        bool `json:"valid"`
			FirstInvalid *struct {
				Seq    int64  `json:"seq"`
				Reason string `json:"reason"`
			} `json:"first_invalid"`
		}
		testutil.DecodeJSON(s.T(), rr, &resp)
		s.False(resp.Valid)
		s.Require().NotNil(resp.FirstInvalid)
		s.Equal(int64(2), resp.FirstInvalid.Seq)
		s.Equal("TAMPERED_RECORD", resp.FirstInvalid.Reason)
	})

	s.Run("full report lists every invalid record", func() {
		s.Require().True(s.store.Tamper(3, func(rec *ledger.DecisionRecord) {
			rec.ModelVersion = "0.0.1"
		}))

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/decisions/verify?full=true"))
		s.Require().Equal(http.StatusOK, rr.Code)

		var resp struct {
			Valid   bool `json:"valid"`
			Invalid []struct {
				Seq    int64  `json:"seq"`
				Reason string `json:"reason"`
			} `json:"invalid"`
		}
		testutil.DecodeJSON(s.T(), rr, &resp)
		s.False(resp.Valid)
		s.Len(resp.Invalid, 2)
	})

	s.Run("bad range parameter is a validation error", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/decisions/verify?from=abc"))
		s.Equal(http.StatusBadRequest, rr.Code)
	})
}
