// Package appeals runs the dispute workflow against logged decisions: an
// SLA-bounded state machine from pending through review to a terminal
// resolution.
package appeals

import (
	"time"

	"veritas/pkg/domain"
	dErrors "veritas/pkg/domain-errors"
)

// Status is the appeal workflow state.
type Status string

const (
	StatusPending     Status = "pending"
	StatusUnderReview Status = "under_review"
	StatusUpheld      Status = "upheld"
	StatusOverturned  Status = "overturned"
	StatusEscalated   Status = "escalated"
)

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusUpheld, StatusOverturned, StatusEscalated:
		return true
	}
	return false
}

// ParseResolution validates a terminal resolution string.
func ParseResolution(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusUpheld, StatusOverturned, StatusEscalated:
		return st, nil
	default:
		return "", dErrors.Newf(dErrors.CodeValidation, "resolution must be upheld, overturned or escalated, got %q", s)
	}
}

// SLAStatus is derived from the deadline at read time, never stored.
type SLAStatus string

const (
	SLAOK      SLAStatus = "OK"
	SLAUrgent  SLAStatus = "URGENT"
	SLAOverdue SLAStatus = "OVERDUE"
)

// urgentWindow is how close to the deadline an open appeal turns urgent.
const urgentWindow = 12 * time.Hour

// Appeal is one dispute against a logged decision.
type Appeal struct {
	ID         domain.AppealID   `json:"id"`
	DecisionID domain.DecisionID `json:"decision_id"`

	// DecisionRef is denormalized from the ledger record for display.
	DecisionRef string `json:"decision_ref"`

	AppellantReference string `json:"appellant_reference"`
	Category           string `json:"appeal_category"`
	Reason             string `json:"appeal_reason"`

	Status     Status `json:"status"`
	AssignedTo string `json:"assigned_to,omitempty"`

	ResolutionNotes string     `json:"resolution_notes,omitempty"`
	ResolvedBy      string     `json:"resolved_by,omitempty"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`

	SLADeadline time.Time `json:"sla_deadline"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Version guards concurrent transitions; incremented on every update.
	Version int64 `json:"version"`
}

// SLAStatusAt derives the SLA state at the given instant. Terminal appeals
// are always OK: the clock stops at resolution.
func (a *Appeal) SLAStatusAt(now time.Time) SLAStatus {
	if a.Status.IsTerminal() {
		return SLAOK
	}
	if now.After(a.SLADeadline) {
		return SLAOverdue
	}
	if a.SLADeadline.Sub(now) < urgentWindow {
		return SLAUrgent
	}
	return SLAOK
}
