package handler

import (
	"strings"

	"veritas/internal/appeals"
	dErrors "veritas/pkg/domain-errors"
)

// CreateAppealRequest is the HTTP request body for POST /v1/appeals.
type CreateAppealRequest struct {
	DecisionRef        string `json:"decision_ref"`
	AppellantReference string `json:"appellant_reference"`
	AppealCategory     string `json:"appeal_category"`
	AppealReason       string `json:"appeal_reason"`
}

// Validate validates the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *CreateAppealRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	switch {
	case strings.TrimSpace(r.DecisionRef) == "":
		return dErrors.New(dErrors.CodeValidation, "decision_ref is required")
	case strings.TrimSpace(r.AppellantReference) == "":
		return dErrors.New(dErrors.CodeValidation, "appellant_reference is required")
	case strings.TrimSpace(r.AppealCategory) == "":
		return dErrors.New(dErrors.CodeValidation, "appeal_category is required")
	case strings.TrimSpace(r.AppealReason) == "":
		return dErrors.New(dErrors.CodeValidation, "appeal_reason is required")
	}
	return nil
}

// ToDomain converts the HTTP body into the service request.
func (r *CreateAppealRequest) ToDomain() appeals.CreateRequest {
	return appeals.CreateRequest{
		DecisionRef:        r.DecisionRef,
		AppellantReference: r.AppellantReference,
		Category:           r.AppealCategory,
		Reason:             r.AppealReason,
	}
}

// AssignAppealRequest is the HTTP request body for
// POST /v1/appeals/{id}/assign.
type AssignAppealRequest struct {
	UserID string `json:"user_id"`
}

// Validate validates the request.
func (r *AssignAppealRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if strings.TrimSpace(r.UserID) == "" {
		return dErrors.New(dErrors.CodeValidation, "user_id is required")
	}
	return nil
}

// ResolveAppealRequest is the HTTP request body for
// POST /v1/appeals/{id}/resolve.
type ResolveAppealRequest struct {
	Resolution string `json:"resolution"`
	Notes      string `json:"notes,omitempty"`
	ResolvedBy string `json:"resolved_by,omitempty"`

	// Parsed values (populated by Validate)
	parsedResolution appeals.Status
}

// Validate validates and parses the request.
func (r *ResolveAppealRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	resolution, err := appeals.ParseResolution(strings.TrimSpace(r.Resolution))
	if err != nil {
		return err
	}
	r.parsedResolution = resolution
	return nil
}

// ParsedResolution returns the validated terminal status.
func (r *ResolveAppealRequest) ParsedResolution() appeals.Status {
	return r.parsedResolution
}
