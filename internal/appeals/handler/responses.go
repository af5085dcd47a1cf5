package handler

import (
	"time"

	"veritas/internal/appeals"
)

// AppealResponse is one appeal as returned by every appeal endpoint. The SLA
// status is derived at response time, never stored.
type AppealResponse struct {
	AppealID           string     `json:"appeal_id"`
	DecisionID         string     `json:"decision_id"`
	DecisionRef        string     `json:"decision_ref"`
	AppellantReference string     `json:"appellant_reference"`
	AppealCategory     string     `json:"appeal_category"`
	AppealReason       string     `json:"appeal_reason"`
	Status             string     `json:"status"`
	AssignedTo         string     `json:"assigned_to,omitempty"`
	ResolutionNotes    string     `json:"resolution_notes,omitempty"`
	ResolvedBy         string     `json:"resolved_by,omitempty"`
	ResolvedAt         *time.Time `json:"resolved_at,omitempty"`
	SLADeadline        time.Time  `json:"sla_deadline"`
	SLAStatus          string     `json:"sla_status"`
	CreatedAt          time.Time  `json:"created_at"`
}

// FromAppeal converts an appeal to an HTTP response, deriving the SLA
// status at the given instant.
func FromAppeal(a *appeals.Appeal, now time.Time) *AppealResponse {
	return &AppealResponse{
		AppealID:           a.ID.String(),
		DecisionID:         a.DecisionID.String(),
		DecisionRef:        a.DecisionRef,
		AppellantReference: a.AppellantReference,
		AppealCategory:     a.Category,
		AppealReason:       a.Reason,
		Status:             string(a.Status),
		AssignedTo:         a.AssignedTo,
		ResolutionNotes:    a.ResolutionNotes,
		ResolvedBy:         a.ResolvedBy,
		ResolvedAt:         a.ResolvedAt,
		SLADeadline:        a.SLADeadline,
		SLAStatus:          string(a.SLAStatusAt(now)),
		CreatedAt:          a.CreatedAt,
	}
}

// ListAppealsResponse is the HTTP response for appeal listings.
type ListAppealsResponse struct {
	Appeals []*AppealResponse `json:"appeals"`
	Count   int               `json:"count"`
}

// FromAppeals converts a list of appeals to an HTTP response.
func FromAppeals(list []*appeals.Appeal, now time.Time) *ListAppealsResponse {
	out := make([]*AppealResponse, 0, len(list))
	for _, a := range list {
		out = append(out, FromAppeal(a, now))
	}
	return &ListAppealsResponse{Appeals: out, Count: len(out)}
}
