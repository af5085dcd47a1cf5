package appeals

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"veritas/internal/appeals/metrics"
	"veritas/internal/events"
	"veritas/pkg/domain"
	dErrors "veritas/pkg/domain-errors"
	"veritas/pkg/platform/sentinel"
	"veritas/pkg/requestcontext"
)

// DefaultSLAWindow applies to categories without a specific policy window.
const DefaultSLAWindow = 72 * time.Hour

// slaPolicy maps appeal categories to tighter review windows. Safety and
// discrimination disputes get priority handling.
var slaPolicy = map[string]time.Duration{
	"safety":         24 * time.Hour,
	"discrimination": 48 * time.Hour,
}

// Service drives the appeal workflow.
type Service struct {
	store         Store
	decisions     DecisionLookup
	emitter       events.Emitter
	logger        *slog.Logger
	metrics       *metrics.Metrics
	tracer        trace.Tracer
	defaultWindow time.Duration
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithEmitter(emitter events.Emitter) Option {
	return func(s *Service) { s.emitter = emitter }
}

// WithDefaultSLAWindow overrides the fallback review window.
func WithDefaultSLAWindow(window time.Duration) Option {
	return func(s *Service) {
		if window > 0 {
			s.defaultWindow = window
		}
	}
}

func NewService(store Store, decisions DecisionLookup, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("appeal store is required")
	}
	if decisions == nil {
		return nil, errors.New("decision lookup is required")
	}

	svc := &Service{
		store:         store,
		decisions:     decisions,
		emitter:       events.Noop{},
		logger:        slog.Default(),
		tracer:        otel.Tracer("veritas/appeals"),
		defaultWindow: DefaultSLAWindow,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// windowFor returns the policy review window for a category.
func (s *Service) windowFor(category string) time.Duration {
	if w, ok := slaPolicy[category]; ok {
		return w
	}
	return s.defaultWindow
}

// CreateRequest opens a dispute against a logged decision.
type CreateRequest struct {
	DecisionRef        string
	AppellantReference string
	Category           string
	Reason             string
}

func (r *CreateRequest) validate() error {
	r.DecisionRef = strings.TrimSpace(r.DecisionRef)
	r.AppellantReference = strings.TrimSpace(r.AppellantReference)
	r.Category = strings.TrimSpace(strings.ToLower(r.Category))
	r.Reason = strings.TrimSpace(r.Reason)

	switch {
	case r.DecisionRef == "":
		return dErrors.New(dErrors.CodeValidation, "decision_ref is required")
	case r.AppellantReference == "":
		return dErrors.New(dErrors.CodeValidation, "appellant_reference is required")
	case r.Category == "":
		return dErrors.New(dErrors.CodeValidation, "appeal_category is required")
	case r.Reason == "":
		return dErrors.New(dErrors.CodeValidation, "appeal_reason is required")
	}
	return nil
}

// Create opens a new appeal in pending with its SLA deadline computed from
// the category policy window.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Appeal, error) {
	ctx, span := s.tracer.Start(ctx, "appeals.Create")
	defer span.End()

	if err := req.validate(); err != nil {
		return nil, err
	}

	rec, err := s.decisions.GetByRef(ctx, req.DecisionRef)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	appeal := &Appeal{
		ID:                 domain.NewAppealID(),
		DecisionID:         rec.ID,
		DecisionRef:        rec.DecisionRef,
		AppellantReference: req.AppellantReference,
		Category:           req.Category,
		Reason:             req.Reason,
		Status:             StatusPending,
		SLADeadline:        now.Add(s.windowFor(req.Category)),
		CreatedAt:          now,
		UpdatedAt:          now,
		Version:            1,
	}

	if err := s.store.Create(ctx, appeal); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create appeal")
	}

	s.metrics.IncrementCreated(appeal.Category)
	span.SetAttributes(attribute.String("appeal.id", appeal.ID.String()))

	s.logger.InfoContext(ctx, "appeal created",
		"request_id", requestcontext.RequestID(ctx),
		"appeal_id", appeal.ID,
		"decision_ref", appeal.DecisionRef,
		"category", appeal.Category,
		"sla_deadline", appeal.SLADeadline,
	)

	s.emitter.Emit(ctx, events.Event{
		Type:       events.TypeAppealCreated,
		Key:        appeal.DecisionRef,
		OccurredAt: now,
		Data: map[string]any{
			"appeal_id":    appeal.ID.String(),
			"decision_ref": appeal.DecisionRef,
			"category":     appeal.Category,
			"sla_deadline": appeal.SLADeadline,
		},
	})

	return appeal, nil
}

// Assign moves a pending appeal into review.
func (s *Service) Assign(ctx context.Context, appealID domain.AppealID, userID string) (*Appeal, error) {
	ctx, span := s.tracer.Start(ctx, "appeals.Assign")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "user_id is required")
	}

	appeal, err := s.get(ctx, appealID)
	if err != nil {
		return nil, err
	}

	if appeal.Status != StatusPending {
		s.metrics.IncrementIllegalTransition("assign")
		return nil, dErrors.Newf(dErrors.CodeValidation,
			"appeal in status %q cannot be assigned, only pending appeals can", appeal.Status)
	}

	appeal.Status = StatusUnderReview
	appeal.AssignedTo = userID
	appeal.UpdatedAt = requestcontext.Now(ctx)

	if err := s.update(ctx, appeal); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "appeal assigned",
		"request_id", requestcontext.RequestID(ctx),
		"appeal_id", appeal.ID,
		"assigned_to", userID,
	)
	return appeal, nil
}

// Resolve terminates an appeal under review.
func (s *Service) Resolve(ctx context.Context, appealID domain.AppealID, resolution Status, notes, resolvedBy string) (*Appeal, error) {
	ctx, span := s.tracer.Start(ctx, "appeals.Resolve")
	defer span.End()

	if _, err := ParseResolution(string(resolution)); err != nil {
		return nil, err
	}

	appeal, err := s.get(ctx, appealID)
	if err != nil {
		return nil, err
	}

	if appeal.Status != StatusUnderReview {
		s.metrics.IncrementIllegalTransition("resolve")
		return nil, dErrors.Newf(dErrors.CodeValidation,
			"appeal in status %q cannot be resolved, only appeals under review can", appeal.Status)
	}

	now := requestcontext.Now(ctx)
	appeal.Status = resolution
	appeal.ResolutionNotes = strings.TrimSpace(notes)
	appeal.ResolvedBy = strings.TrimSpace(resolvedBy)
	appeal.ResolvedAt = &now
	appeal.UpdatedAt = now

	if err := s.update(ctx, appeal); err != nil {
		return nil, err
	}

	s.metrics.IncrementResolved(string(resolution))
	s.metrics.ObserveResolutionLatency(now.Sub(appeal.CreatedAt))

	s.logger.InfoContext(ctx, "appeal resolved",
		"request_id", requestcontext.RequestID(ctx),
		"appeal_id", appeal.ID,
		"resolution", resolution,
		"overdue", appeal.SLADeadline.Before(now),
	)

	s.emitter.Emit(ctx, events.Event{
		Type:       events.TypeAppealResolved,
		Key:        appeal.DecisionRef,
		OccurredAt: now,
		Data: map[string]any{
			"appeal_id":    appeal.ID.String(),
			"decision_ref": appeal.DecisionRef,
			"resolution":   string(resolution),
		},
	})

	return appeal, nil
}

// Get returns one appeal.
func (s *Service) Get(ctx context.Context, appealID domain.AppealID) (*Appeal, error) {
	return s.get(ctx, appealID)
}

// ListByDecision returns all appeals raised against one decision.
func (s *Service) ListByDecision(ctx context.Context, decisionID domain.DecisionID) ([]*Appeal, error) {
	appeals, err := s.store.ListByDecision(ctx, decisionID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list appeals")
	}
	return appeals, nil
}

// ListOverdue returns open appeals past their SLA deadline.
func (s *Service) ListOverdue(ctx context.Context) ([]*Appeal, error) {
	appeals, err := s.store.ListOverdue(ctx, requestcontext.Now(ctx))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list overdue appeals")
	}
	return appeals, nil
}

func (s *Service) get(ctx context.Context, appealID domain.AppealID) (*Appeal, error) {
	appeal, err := s.store.Get(ctx, appealID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "appeal %s not found", appealID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "get appeal")
	}
	return appeal, nil
}

func (s *Service) update(ctx context.Context, appeal *Appeal) error {
	if err := s.store.Update(ctx, appeal); err != nil {
		if errors.Is(err, sentinel.ErrVersionConflict) {
			return dErrors.New(dErrors.CodeConflict, "appeal was modified concurrently, retry with fresh state")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "update appeal")
	}
	return nil
}
