// Package handler exposes the outcome tracker over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"veritas/internal/outcome"
	"veritas/pkg/domain"
	"veritas/pkg/platform/httputil"
	"veritas/pkg/requestcontext"
)

// Service defines the interface for outcome operations.
type Service interface {
	Track(ctx context.Context, req outcome.TrackRequest) (*outcome.TrackResult, error)
	Get(ctx context.Context, decisionID domain.DecisionID) (*outcome.Outcome, error)
}

// Handler wires outcome endpoints to the outcome service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an outcome handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts outcome endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/decisions/{id}/outcome", h.HandleTrackOutcome)
	r.Get("/decisions/{id}/outcome", h.HandleGetOutcome)
}

// HandleTrackOutcome handles POST /v1/decisions/{id}/outcome requests.
// Responds 201 on first report, 200 on overwrite.
func (h *Handler) HandleTrackOutcome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	decisionID, err := domain.ParseDecisionID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[TrackOutcomeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	domainReq := req.ToDomain()
	domainReq.DecisionID = decisionID

	result, err := h.service.Track(ctx, domainReq)
	if err != nil {
		h.logger.ErrorContext(ctx, "outcome tracking failed",
			"request_id", requestID,
			"decision_id", decisionID,
			"outcome_type", req.OutcomeType,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	status := http.StatusCreated
	if result.IsUpdate {
		status = http.StatusOK
	}
	httputil.WriteJSON(w, status, FromTrackResult(result))
}

// HandleGetOutcome handles GET /v1/decisions/{id}/outcome requests.
func (h *Handler) HandleGetOutcome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	decisionID, err := domain.ParseDecisionID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	o, err := h.service.Get(ctx, decisionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromOutcome(o))
}
