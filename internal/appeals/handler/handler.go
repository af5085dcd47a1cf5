// Package handler exposes the appeal workflow over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"veritas/internal/appeals"
	"veritas/pkg/domain"
	"veritas/pkg/platform/httputil"
	"veritas/pkg/requestcontext"
)

// Service defines the interface for appeal operations.
type Service interface {
	Create(ctx context.Context, req appeals.CreateRequest) (*appeals.Appeal, error)
	Assign(ctx context.Context, appealID domain.AppealID, userID string) (*appeals.Appeal, error)
	Resolve(ctx context.Context, appealID domain.AppealID, resolution appeals.Status, notes, resolvedBy string) (*appeals.Appeal, error)
	Get(ctx context.Context, appealID domain.AppealID) (*appeals.Appeal, error)
	ListByDecision(ctx context.Context, decisionID domain.DecisionID) ([]*appeals.Appeal, error)
	ListOverdue(ctx context.Context) ([]*appeals.Appeal, error)
}

// Handler wires appeal endpoints to the appeal service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an appeal handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts appeal endpoints on the router. chi matches static
// segments before parameters, so /appeals/overdue never shadows an id.
func (h *Handler) Register(r chi.Router) {
	r.Post("/appeals", h.HandleCreateAppeal)
	r.Get("/appeals/overdue", h.HandleListOverdue)
	r.Get("/appeals/{id}", h.HandleGetAppeal)
	r.Post("/appeals/{id}/assign", h.HandleAssignAppeal)
	r.Post("/appeals/{id}/resolve", h.HandleResolveAppeal)
	r.Get("/decisions/{id}/appeals", h.HandleListByDecision)
}

// HandleCreateAppeal handles POST /v1/appeals requests.
func (h *Handler) HandleCreateAppeal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateAppealRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	appeal, err := h.service.Create(ctx, req.ToDomain())
	if err != nil {
		h.logger.ErrorContext(ctx, "appeal creation failed",
			"request_id", requestID,
			"decision_ref", req.DecisionRef,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, FromAppeal(appeal, requestcontext.Now(ctx)))
}

// HandleGetAppeal handles GET /v1/appeals/{id} requests.
func (h *Handler) HandleGetAppeal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	appealID, err := domain.ParseAppealID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	appeal, err := h.service.Get(ctx, appealID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromAppeal(appeal, requestcontext.Now(ctx)))
}

// HandleAssignAppeal handles POST /v1/appeals/{id}/assign requests.
func (h *Handler) HandleAssignAppeal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	appealID, err := domain.ParseAppealID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[AssignAppealRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	appeal, err := h.service.Assign(ctx, appealID, req.UserID)
	if err != nil {
		h.logger.ErrorContext(ctx, "appeal assignment failed",
			"request_id", requestID,
			"appeal_id", appealID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromAppeal(appeal, requestcontext.Now(ctx)))
}

// HandleResolveAppeal handles POST /v1/appeals/{id}/resolve requests.
func (h *Handler) HandleResolveAppeal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	appealID, err := domain.ParseAppealID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[ResolveAppealRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	appeal, err := h.service.Resolve(ctx, appealID, req.ParsedResolution(), req.Notes, req.ResolvedBy)
	if err != nil {
		h.logger.ErrorContext(ctx, "appeal resolution failed",
			"request_id", requestID,
			"appeal_id", appealID,
			"resolution", req.Resolution,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromAppeal(appeal, requestcontext.Now(ctx)))
}

// HandleListByDecision handles GET /v1/decisions/{id}/appeals requests.
func (h *Handler) HandleListByDecision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	decisionID, err := domain.ParseDecisionID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	listed, err := h.service.ListByDecision(ctx, decisionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromAppeals(listed, requestcontext.Now(ctx)))
}

// HandleListOverdue handles GET /v1/appeals/overdue requests.
func (h *Handler) HandleListOverdue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	listed, err := h.service.ListOverdue(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromAppeals(listed, requestcontext.Now(ctx)))
}
