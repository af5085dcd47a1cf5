package handler

import (
	"time"

	"veritas/internal/outcome"
)

// TrackOutcomeResponse is the HTTP response for
// POST /v1/decisions/{id}/outcome.
type TrackOutcomeResponse struct {
	OutcomeID       string `json:"outcome_id"`
	DecisionID      string `json:"decision_id"`
	OutcomeType     string `json:"outcome_type"`
	HarmCategory    string `json:"harm_category"`
	HarmSeverity    string `json:"harm_severity"`
	IsUpdate        bool   `json:"is_update"`
	IncidentCreated bool   `json:"incident_created"`
	IncidentID      string `json:"incident_id,omitempty"`
}

// FromTrackResult converts a domain track result to an HTTP response.
func FromTrackResult(res *outcome.TrackResult) *TrackOutcomeResponse {
	out := &TrackOutcomeResponse{
		OutcomeID:       res.OutcomeID.String(),
		DecisionID:      res.DecisionID.String(),
		OutcomeType:     string(res.Type),
		HarmCategory:    string(res.HarmCategory),
		HarmSeverity:    string(res.HarmSeverity),
		IsUpdate:        res.IsUpdate,
		IncidentCreated: res.IncidentCreated,
	}
	if res.IncidentID != nil {
		out.IncidentID = res.IncidentID.String()
	}
	return out
}

// OutcomeResponse is the stored outcome as returned by the read endpoint.
type OutcomeResponse struct {
	OutcomeID        string    `json:"outcome_id"`
	DecisionID       string    `json:"decision_id"`
	OutcomeType      string    `json:"outcome_type"`
	HarmCategory     string    `json:"harm_category"`
	HarmSeverity     string    `json:"harm_severity"`
	OutcomeDetails   string    `json:"outcome_details,omitempty"`
	RemediationTaken string    `json:"remediation_taken,omitempty"`
	VerifiedBy       string    `json:"verified_by,omitempty"`
	IncidentID       string    `json:"incident_id,omitempty"`
	DetectedAt       time.Time `json:"detected_at"`
}

// FromOutcome converts a stored outcome to an HTTP response.
func FromOutcome(o *outcome.Outcome) *OutcomeResponse {
	out := &OutcomeResponse{
		OutcomeID:        o.ID.String(),
		DecisionID:       o.DecisionID.String(),
		OutcomeType:      string(o.Type),
		HarmCategory:     string(o.HarmCategory),
		HarmSeverity:     string(o.HarmSeverity),
		OutcomeDetails:   o.Details,
		RemediationTaken: o.RemediationTaken,
		VerifiedBy:       o.VerifiedBy,
		DetectedAt:       o.DetectedAt,
	}
	if o.IncidentID != nil {
		out.IncidentID = o.IncidentID.String()
	}
	return out
}
