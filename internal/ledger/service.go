package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"veritas/internal/events"
	"veritas/internal/ledger/metrics"
	"veritas/pkg/canonical"
	"veritas/pkg/domain"
	dErrors "veritas/pkg/domain-errors"
	"veritas/pkg/platform/sentinel"
	"veritas/pkg/requestcontext"
)

// maxAppendAttempts bounds internal retries when concurrent writers race
// for the chain tip.
const maxAppendAttempts = 5

// retryBackoff is the base delay between tip-race retries; attempt n waits
// n*retryBackoff.
const retryBackoff = 10 * time.Millisecond

// Service is the ledger writer and verifier.
type Service struct {
	store    Store
	registry ModelRegistry
	emitter  events.Emitter
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
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

func NewService(store Store, registry ModelRegistry, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("ledger store is required")
	}
	if registry == nil {
		return nil, errors.New("model registry is required")
	}

	svc := &Service{
		store:    store,
		registry: registry,
		emitter:  events.Noop{},
		logger:   slog.Default(),
		tracer:   otel.Tracer("veritas/ledger"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// LogDecisionRequest carries one decision to be appended. InputData and
// OutputData are opaque payloads: they are digested and discarded, never
// persisted.
type LogDecisionRequest struct {
	ModelID       string
	ModelVersion  string
	InputData     json.RawMessage
	OutputData    json.RawMessage
	DecisionValue string
	Confidence    *float64
	Context       json.RawMessage

	// DecisionRef is optional; generated when empty.
	DecisionRef string
}

// LogDecisionResult reports the appended record's identity and digests.
type LogDecisionResult struct {
	DecisionID   domain.DecisionID
	DecisionRef  string
	RecordHash   string
	PreviousHash string
	InputHash    string
	OutputHash   string
	LatencyMs    int64
}

// LogDecision appends exactly one immutable record to the ledger.
//
// The tip-read-then-append sequence is linearized by the store's
// compare-and-swap: when another writer advances the tip between our read
// and append, the append fails and is retried against the fresh tip, up to
// maxAppendAttempts. Exhaustion surfaces CodeChainConflict to the caller.
func (s *Service) LogDecision(ctx context.Context, req LogDecisionRequest) (*LogDecisionResult, error) {
	ctx, span := s.tracer.Start(ctx, "ledger.LogDecision")
	defer span.End()

	start := time.Now()

	if err := req.validate(); err != nil {
		s.metrics.IncrementLogged("validation_error")
		return nil, err
	}

	exists, err := s.registry.ResolveModel(ctx, req.ModelID)
	if err != nil {
		s.metrics.IncrementLogged("error")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "resolve model")
	}
	if !exists {
		s.metrics.IncrementLogged("not_found")
		return nil, dErrors.Newf(dErrors.CodeNotFound, "model %q is not registered", req.ModelID)
	}

	inputHash, err := canonical.DigestRaw(req.InputData)
	if err != nil {
		s.metrics.IncrementLogged("validation_error")
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "input_data is not valid JSON")
	}
	outputHash, err := canonical.DigestRaw(req.OutputData)
	if err != nil {
		s.metrics.IncrementLogged("validation_error")
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "output_data is not valid JSON")
	}

	ref := req.DecisionRef
	callerRef := ref != ""
	if !callerRef {
		if ref, err = NewDecisionRef(requestcontext.Now(ctx)); err != nil {
			s.metrics.IncrementLogged("error")
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "generate decision ref")
		}
	}

	timestamp := HashTimestamp(requestcontext.Now(ctx))

	var rec *DecisionRecord
	for attempt := 1; ; attempt++ {
		tip, err := s.store.Tip(ctx)
		if err != nil {
			s.metrics.IncrementLogged("error")
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "read chain tip")
		}

		rec = &DecisionRecord{
			ID:                domain.NewDecisionID(),
			DecisionRef:       ref,
			ModelID:           req.ModelID,
			ModelVersion:      req.ModelVersion,
			DecisionValue:     req.DecisionValue,
			Confidence:        req.Confidence,
			Context:           req.Context,
			InputHash:         inputHash,
			OutputHash:        outputHash,
			PreviousHash:      tip,
			DecisionTimestamp: timestamp,
		}
		rec.RecordHash = ComputeRecordHash(rec)

		err = s.store.Append(ctx, rec, tip)
		if err == nil {
			break
		}

		switch {
		case errors.Is(err, sentinel.ErrChainConflict):
			s.metrics.IncrementChainConflict()
			if attempt >= maxAppendAttempts {
				s.metrics.IncrementLogged("chain_conflict")
				s.logger.WarnContext(ctx, "chain conflict retries exhausted",
					"request_id", requestcontext.RequestID(ctx),
					"decision_ref", ref,
					"attempts", attempt,
				)
				return nil, dErrors.New(dErrors.CodeChainConflict, "chain tip moved, retries exhausted")
			}
			if err := sleep(ctx, time.Duration(attempt)*retryBackoff); err != nil {
				s.metrics.IncrementLogged("error")
				return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "append cancelled during retry")
			}
			continue

		case errors.Is(err, sentinel.ErrConflict):
			// A generated ref collided under clock coarseness: regenerate
			// and retry. A caller-supplied ref duplicate is the caller's
			// problem.
			if callerRef {
				s.metrics.IncrementLogged("conflict")
				return nil, dErrors.Newf(dErrors.CodeConflict, "decision_ref %q already exists", ref)
			}
			if attempt >= maxAppendAttempts {
				s.metrics.IncrementLogged("conflict")
				return nil, dErrors.New(dErrors.CodeConflict, "could not generate a unique decision_ref")
			}
			if ref, err = NewDecisionRef(requestcontext.Now(ctx)); err != nil {
				s.metrics.IncrementLogged("error")
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "generate decision ref")
			}
			continue

		default:
			s.metrics.IncrementLogged("error")
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "append decision record")
		}
	}

	latency := time.Since(start)
	s.metrics.IncrementLogged("ok")
	s.metrics.ObserveAppendLatency(latency)
	span.SetAttributes(
		attribute.String("decision.ref", rec.DecisionRef),
		attribute.Int64("decision.seq", rec.Seq),
	)

	s.logger.InfoContext(ctx, "decision logged",
		"request_id", requestcontext.RequestID(ctx),
		"decision_id", rec.ID,
		"decision_ref", rec.DecisionRef,
		"model_id", rec.ModelID,
		"seq", rec.Seq,
		"duration_ms", latency.Milliseconds(),
	)

	s.emitter.Emit(ctx, events.Event{
		Type:       events.TypeDecisionLogged,
		Key:        rec.DecisionRef,
		OccurredAt: timestamp,
		Data: map[string]any{
			"decision_id":  rec.ID.String(),
			"decision_ref": rec.DecisionRef,
			"model_id":     rec.ModelID,
			"record_hash":  rec.RecordHash,
		},
	})

	return &LogDecisionResult{
		DecisionID:   rec.ID,
		DecisionRef:  rec.DecisionRef,
		RecordHash:   rec.RecordHash,
		PreviousHash: rec.PreviousHash,
		InputHash:    inputHash,
		OutputHash:   outputHash,
		LatencyMs:    latency.Milliseconds(),
	}, nil
}

func (r LogDecisionRequest) validate() error {
	switch {
	case r.ModelID == "":
		return dErrors.New(dErrors.CodeValidation, "model_id is required")
	case r.ModelVersion == "":
		return dErrors.New(dErrors.CodeValidation, "model_version is required")
	case len(r.InputData) == 0:
		return dErrors.New(dErrors.CodeValidation, "input_data is required")
	case len(r.OutputData) == 0:
		return dErrors.New(dErrors.CodeValidation, "output_data is required")
	case r.DecisionValue == "":
		return dErrors.New(dErrors.CodeValidation, "decision_value is required")
	}
	if r.DecisionRef != "" && !ValidDecisionRef(r.DecisionRef) {
		return dErrors.New(dErrors.CodeValidation, "decision_ref must be 1-64 characters")
	}
	if r.Confidence != nil && (*r.Confidence < 0 || *r.Confidence > 1) {
		return dErrors.New(dErrors.CodeValidation, "confidence must be between 0 and 1")
	}
	return nil
}

// GetByRef fetches a record by its human-facing reference.
func (s *Service) GetByRef(ctx context.Context, ref string) (*DecisionRecord, error) {
	rec, err := s.store.GetByRef(ctx, ref)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "decision %q not found", ref)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "get decision by ref")
	}
	return rec, nil
}

// GetByID fetches a record by its system identifier.
func (s *Service) GetByID(ctx context.Context, id domain.DecisionID) (*DecisionRecord, error) {
	rec, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "decision %s not found", id)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "get decision by id")
	}
	return rec, nil
}

// List returns records newest first for dashboard reads.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*DecisionRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	recs, err := s.store.List(ctx, limit, offset)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list decisions")
	}
	return recs, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
