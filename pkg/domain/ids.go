// Package domain defines typed identifiers shared across modules.
//
// Each aggregate gets its own UUID-backed type so the compiler rejects a
// DecisionID where an AppealID is expected. Parse helpers enforce the
// invariant that IDs are valid, non-nil UUIDs at trust boundaries.
package domain

import (
	"database/sql/driver"

	"github.com/google/uuid"

	dErrors "veritas/pkg/domain-errors"
)

// DecisionID identifies an immutable ledger record.
type DecisionID uuid.UUID

// OutcomeID identifies a decision outcome row.
type OutcomeID uuid.UUID

// AppealID identifies a dispute workflow.
type AppealID uuid.UUID

// IncidentID identifies an escalated incident in the incident sink.
type IncidentID uuid.UUID

// NewDecisionID generates a fresh decision ID.
func NewDecisionID() DecisionID { return DecisionID(uuid.New()) }

// NewOutcomeID generates a fresh outcome ID.
func NewOutcomeID() OutcomeID { return OutcomeID(uuid.New()) }

// NewAppealID generates a fresh appeal ID.
func NewAppealID() AppealID { return AppealID(uuid.New()) }

// NewIncidentID generates a fresh incident ID.
func NewIncidentID() IncidentID { return IncidentID(uuid.New()) }

func (id DecisionID) String() string { return uuid.UUID(id).String() }
func (id OutcomeID) String() string  { return uuid.UUID(id).String() }
func (id AppealID) String() string   { return uuid.UUID(id).String() }
func (id IncidentID) String() string { return uuid.UUID(id).String() }

func (id DecisionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id OutcomeID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id AppealID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }

// MarshalText lets typed IDs serialize as plain UUID strings in JSON.
func (id DecisionID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id OutcomeID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id AppealID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }
func (id IncidentID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *DecisionID) UnmarshalText(b []byte) error {
	parsed, err := parseUUID(string(b), "decision_id")
	if err != nil {
		return err
	}
	*id = DecisionID(parsed)
	return nil
}

func (id *IncidentID) UnmarshalText(b []byte) error {
	parsed, err := parseUUID(string(b), "incident_id")
	if err != nil {
		return err
	}
	*id = IncidentID(parsed)
	return nil
}

func (id *AppealID) UnmarshalText(b []byte) error {
	parsed, err := parseUUID(string(b), "appeal_id")
	if err != nil {
		return err
	}
	*id = AppealID(parsed)
	return nil
}

// Value and Scan let typed IDs pass through database/sql as UUIDs.
func (id DecisionID) Value() (driver.Value, error) { return id.String(), nil }
func (id OutcomeID) Value() (driver.Value, error)  { return id.String(), nil }
func (id AppealID) Value() (driver.Value, error)   { return id.String(), nil }
func (id IncidentID) Value() (driver.Value, error) { return id.String(), nil }

func (id *DecisionID) Scan(src any) error { return scanUUID((*uuid.UUID)(id), src) }
func (id *OutcomeID) Scan(src any) error  { return scanUUID((*uuid.UUID)(id), src) }
func (id *AppealID) Scan(src any) error   { return scanUUID((*uuid.UUID)(id), src) }
func (id *IncidentID) Scan(src any) error { return scanUUID((*uuid.UUID)(id), src) }

func scanUUID(dst *uuid.UUID, src any) error {
	return dst.Scan(src)
}

// ParseDecisionID validates and parses a decision ID string.
func ParseDecisionID(s string) (DecisionID, error) {
	parsed, err := parseUUID(s, "decision_id")
	if err != nil {
		return DecisionID{}, err
	}
	return DecisionID(parsed), nil
}

// ParseAppealID validates and parses an appeal ID string.
func ParseAppealID(s string) (AppealID, error) {
	parsed, err := parseUUID(s, "appeal_id")
	if err != nil {
		return AppealID{}, err
	}
	return AppealID(parsed), nil
}

func parseUUID(s, field string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s cannot be empty", field)
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is not a valid UUID", field)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s cannot be the nil UUID", field)
	}
	return parsed, nil
}
