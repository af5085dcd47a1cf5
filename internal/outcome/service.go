package outcome

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"veritas/internal/events"
	"veritas/internal/outcome/metrics"
	"veritas/pkg/domain"
	dErrors "veritas/pkg/domain-errors"
	"veritas/pkg/platform/sentinel"
	"veritas/pkg/requestcontext"
)

// Service records decision outcomes and escalates qualifying harm.
type Service struct {
	store     Store
	decisions DecisionLookup
	incidents IncidentSink
	emitter   events.Emitter
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
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

func NewService(store Store, decisions DecisionLookup, incidents IncidentSink, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("outcome store is required")
	}
	if decisions == nil {
		return nil, errors.New("decision lookup is required")
	}
	if incidents == nil {
		return nil, errors.New("incident sink is required")
	}

	svc := &Service{
		store:     store,
		decisions: decisions,
		incidents: incidents,
		emitter:   events.Noop{},
		logger:    slog.Default(),
		tracer:    otel.Tracer("veritas/outcome"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// TrackRequest carries one outcome report.
type TrackRequest struct {
	DecisionID       domain.DecisionID
	Type             Type
	HarmCategory     HarmCategory
	HarmSeverity     HarmSeverity
	Details          string
	RemediationTaken string
	VerifiedBy       string
}

// TrackResult reports what the upsert did.
type TrackResult struct {
	OutcomeID       domain.OutcomeID
	DecisionID      domain.DecisionID
	Type            Type
	HarmCategory    HarmCategory
	HarmSeverity    HarmSeverity
	IsUpdate        bool
	IncidentCreated bool
	IncidentID      *domain.IncidentID
}

// Track upserts the outcome for a decision.
//
// Escalation is idempotent per decision: the first harmful high/critical
// report creates an incident, repeats reuse it, and a later downgrade never
// retracts it.
func (s *Service) Track(ctx context.Context, req TrackRequest) (*TrackResult, error) {
	ctx, span := s.tracer.Start(ctx, "outcome.Track")
	defer span.End()

	o := &Outcome{
		ID:               domain.NewOutcomeID(),
		DecisionID:       req.DecisionID,
		Type:             req.Type,
		HarmCategory:     req.HarmCategory,
		HarmSeverity:     req.HarmSeverity,
		Details:          req.Details,
		RemediationTaken: req.RemediationTaken,
		VerifiedBy:       req.VerifiedBy,
		DetectedAt:       requestcontext.Now(ctx),
	}

	if req.DecisionID.IsNil() {
		s.metrics.IncrementTracked("validation_error")
		return nil, dErrors.New(dErrors.CodeValidation, "decision_id is required")
	}
	if _, err := ParseType(string(req.Type)); err != nil {
		s.metrics.IncrementTracked("validation_error")
		return nil, err
	}
	if err := o.ValidateClassification(); err != nil {
		s.metrics.IncrementTracked("validation_error")
		return nil, err
	}

	if _, err := s.decisions.GetByID(ctx, req.DecisionID); err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			s.metrics.IncrementTracked("not_found")
			return nil, err
		}
		s.metrics.IncrementTracked("error")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "resolve decision")
	}

	// Keep the stable outcome identity across overwrites. The overwritten
	// classification is logged so it stays traceable after the upsert.
	existing, err := s.store.GetByDecision(ctx, req.DecisionID)
	switch {
	case err == nil:
		o.ID = existing.ID
		o.IncidentID = existing.IncidentID
		s.logger.InfoContext(ctx, "overwriting prior outcome",
			"request_id", requestcontext.RequestID(ctx),
			"decision_id", o.DecisionID,
			"prior_type", existing.Type,
			"prior_harm_category", existing.HarmCategory,
			"prior_harm_severity", existing.HarmSeverity,
		)
	case errors.Is(err, sentinel.ErrNotFound):
	default:
		s.metrics.IncrementTracked("error")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load existing outcome")
	}

	incidentCreated := false
	if o.ShouldEscalate() {
		incidentID, created, err := s.incidents.CreateIncident(ctx, o.DecisionID, o.HarmSeverity)
		if err != nil {
			s.metrics.IncrementTracked("error")
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "escalate incident")
		}
		o.IncidentID = &incidentID
		incidentCreated = created
		if created {
			s.metrics.IncrementEscalated()
			s.logger.WarnContext(ctx, "harmful outcome escalated",
				"request_id", requestcontext.RequestID(ctx),
				"decision_id", o.DecisionID,
				"harm_severity", o.HarmSeverity,
				"incident_id", incidentID,
			)
		}
	}

	isUpdate, err := s.store.Save(ctx, o)
	if err != nil {
		s.metrics.IncrementTracked("error")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "save outcome")
	}

	result := "created"
	if isUpdate {
		result = "updated"
	}
	s.metrics.IncrementTracked(result)
	s.metrics.IncrementByType(string(o.Type))
	span.SetAttributes(
		attribute.String("decision.id", o.DecisionID.String()),
		attribute.String("outcome.type", string(o.Type)),
	)

	s.logger.InfoContext(ctx, "outcome tracked",
		"request_id", requestcontext.RequestID(ctx),
		"decision_id", o.DecisionID,
		"outcome_type", o.Type,
		"harm_severity", o.HarmSeverity,
		"is_update", isUpdate,
		"incident_created", incidentCreated,
	)

	s.emitter.Emit(ctx, events.Event{
		Type:       events.TypeOutcomeRecorded,
		Key:        o.DecisionID.String(),
		OccurredAt: o.DetectedAt,
		Data: map[string]any{
			"decision_id":      o.DecisionID.String(),
			"outcome_type":     string(o.Type),
			"harm_category":    string(o.HarmCategory),
			"harm_severity":    string(o.HarmSeverity),
			"is_update":        isUpdate,
			"incident_created": incidentCreated,
		},
	})

	return &TrackResult{
		OutcomeID:       o.ID,
		DecisionID:      o.DecisionID,
		Type:            o.Type,
		HarmCategory:    o.HarmCategory,
		HarmSeverity:    o.HarmSeverity,
		IsUpdate:        isUpdate,
		IncidentCreated: incidentCreated,
		IncidentID:      o.IncidentID,
	}, nil
}

// Get returns the outcome reported for a decision.
func (s *Service) Get(ctx context.Context, decisionID domain.DecisionID) (*Outcome, error) {
	o, err := s.store.GetByDecision(ctx, decisionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "no outcome recorded for decision %s", decisionID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "get outcome")
	}
	return o, nil
}
