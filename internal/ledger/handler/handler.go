// Package handler exposes the decision ledger over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"veritas/internal/ledger"
	dErrors "veritas/pkg/domain-errors"
	"veritas/pkg/platform/httputil"
	"veritas/pkg/requestcontext"
)

// Service defines the interface for ledger operations.
type Service interface {
	LogDecision(ctx context.Context, req ledger.LogDecisionRequest) (*ledger.LogDecisionResult, error)
	GetByRef(ctx context.Context, ref string) (*ledger.DecisionRecord, error)
	List(ctx context.Context, limit, offset int) ([]*ledger.DecisionRecord, error)
	VerifyChain(ctx context.Context, from, to int64) (*ledger.VerifyResult, error)
	VerifyChainFull(ctx context.Context, from, to int64) (*ledger.VerifyReport, error)
}

// Handler wires ledger endpoints to the ledger service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a ledger handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts ledger endpoints on the router. The static verify route
// must coexist with the {ref} wildcard; chi gives static segments priority.
func (h *Handler) Register(r chi.Router) {
	r.Post("/decisions", h.HandleLogDecision)
	r.Get("/decisions", h.HandleListDecisions)
	r.Get("/decisions/verify", h.HandleVerifyChain)
	r.Get("/decisions/{ref}", h.HandleGetDecision)
}

// HandleLogDecision handles POST /v1/decisions requests.
func (h *Handler) HandleLogDecision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[LogDecisionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.LogDecision(ctx, req.ToDomain())
	if err != nil {
		h.logger.ErrorContext(ctx, "decision append failed",
			"request_id", requestID,
			"model_id", req.ModelID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "decision appended",
		"request_id", requestID,
		"decision_ref", result.DecisionRef,
		"model_id", req.ModelID,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusCreated, FromLogResult(result))
}

// HandleGetDecision handles GET /v1/decisions/{ref} requests.
func (h *Handler) HandleGetDecision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ref := chi.URLParam(r, "ref")
	rec, err := h.service.GetByRef(ctx, ref)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromRecord(rec))
}

// HandleListDecisions handles GET /v1/decisions requests.
func (h *Handler) HandleListDecisions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	recs, err := h.service.List(ctx, limit, offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromRecords(recs))
}

// HandleVerifyChain handles GET /v1/decisions/verify requests.
func (h *Handler) HandleVerifyChain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	from, err := queryInt64(r, "from")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	to, err := queryInt64(r, "to")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	full := r.URL.Query().Get("full") == "true"

	var resp *VerifyResponse
	if full {
		report, err := h.service.VerifyChainFull(ctx, from, to)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		resp = FromVerifyReport(report)
	} else {
		result, err := h.service.VerifyChain(ctx, from, to)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		resp = FromVerifyResult(result)
	}

	h.logger.InfoContext(ctx, "chain verified",
		"request_id", requestID,
		"valid", resp.Valid,
		"checked", resp.Checked,
		"full", full,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, resp)
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, dErrors.Newf(dErrors.CodeValidation, "%s must be a non-negative integer", name)
	}
	return v, nil
}

func queryInt64(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0, dErrors.Newf(dErrors.CodeValidation, "%s must be a non-negative integer", name)
	}
	return v, nil
}
