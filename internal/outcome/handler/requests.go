package handler

import (
	"strings"

	"veritas/internal/outcome"
	dErrors "veritas/pkg/domain-errors"
)

// TrackOutcomeRequest is the HTTP request body for
// POST /v1/decisions/{id}/outcome.
type TrackOutcomeRequest struct {
	OutcomeType      string `json:"outcome_type"`
	HarmCategory     string `json:"harm_category,omitempty"`
	HarmSeverity     string `json:"harm_severity,omitempty"`
	OutcomeDetails   string `json:"outcome_details,omitempty"`
	RemediationTaken string `json:"remediation_taken,omitempty"`
	VerifiedBy       string `json:"verified_by,omitempty"`

	// Parsed values (populated by Validate)
	parsedType     outcome.Type
	parsedCategory outcome.HarmCategory
	parsedSeverity outcome.HarmSeverity
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *TrackOutcomeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.OutcomeType = strings.TrimSpace(r.OutcomeType)
	if r.OutcomeType == "" {
		return dErrors.New(dErrors.CodeValidation, "outcome_type is required")
	}

	parsedType, err := outcome.ParseType(r.OutcomeType)
	if err != nil {
		return err
	}
	r.parsedType = parsedType

	if r.parsedCategory, err = outcome.ParseHarmCategory(strings.TrimSpace(r.HarmCategory)); err != nil {
		return err
	}
	if r.parsedSeverity, err = outcome.ParseHarmSeverity(strings.TrimSpace(r.HarmSeverity)); err != nil {
		return err
	}
	return nil
}

// ToDomain converts the HTTP body into the service request.
func (r *TrackOutcomeRequest) ToDomain() outcome.TrackRequest {
	return outcome.TrackRequest{
		Type:             r.parsedType,
		HarmCategory:     r.parsedCategory,
		HarmSeverity:     r.parsedSeverity,
		Details:          r.OutcomeDetails,
		RemediationTaken: r.RemediationTaken,
		VerifiedBy:       r.VerifiedBy,
	}
}
