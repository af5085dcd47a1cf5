// Package events publishes ledger lifecycle events to Kafka for downstream
// dashboard consumers.
//
// Emission is fire-and-forget: the ledger's durability lives in its own
// store, and a slow or absent broker must never block a decision append.
// Events are buffered on a channel and drained by a background worker; when
// the buffer is full the event is dropped with a warning.
package events

import (
	"context"
	"time"
)

// Event types emitted by the core services.
const (
	TypeDecisionLogged  = "decision.logged"
	TypeOutcomeRecorded = "outcome.recorded"
	TypeAppealCreated   = "appeal.created"
	TypeAppealResolved  = "appeal.resolved"
)

// Event is one ledger lifecycle notification. Key becomes the Kafka message
// key so all events for one decision land in the same partition.
type Event struct {
	Type       string         `json:"type"`
	Key        string         `json:"key"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data,omitempty"`
}

// Emitter is the port services publish through.
type Emitter interface {
	Emit(ctx context.Context, event Event)
}

// Noop discards all events. Used when Kafka is not configured and in tests.
type Noop struct{}

func (Noop) Emit(context.Context, Event) {}
