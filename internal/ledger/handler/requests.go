package handler

import (
	"encoding/json"
	"strings"

	"veritas/internal/ledger"
	dErrors "veritas/pkg/domain-errors"
)

// LogDecisionRequest is the HTTP request body for POST /v1/decisions.
type LogDecisionRequest struct {
	DecisionRef   string          `json:"decision_ref,omitempty"`
	ModelID       string          `json:"model_id"`
	ModelVersion  string          `json:"model_version"`
	InputData     json.RawMessage `json:"input_data"`
	OutputData    json.RawMessage `json:"output_data"`
	DecisionValue string          `json:"decision_value"`
	Confidence    *float64        `json:"confidence,omitempty"`
	Context       json.RawMessage `json:"context,omitempty"`
}

// Validate validates the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *LogDecisionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.DecisionRef = strings.TrimSpace(r.DecisionRef)
	r.ModelID = strings.TrimSpace(r.ModelID)
	r.ModelVersion = strings.TrimSpace(r.ModelVersion)
	r.DecisionValue = strings.TrimSpace(r.DecisionValue)

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

	if r.DecisionRef != "" && !ledger.ValidDecisionRef(r.DecisionRef) {
		return dErrors.New(dErrors.CodeValidation, "decision_ref must be 1-64 characters")
	}
	if r.Confidence != nil && (*r.Confidence < 0 || *r.Confidence > 1) {
		return dErrors.New(dErrors.CodeValidation, "confidence must be between 0 and 1")
	}
	return nil
}

// ToDomain converts the HTTP body into the service request.
func (r *LogDecisionRequest) ToDomain() ledger.LogDecisionRequest {
	return ledger.LogDecisionRequest{
		DecisionRef:   r.DecisionRef,
		ModelID:       r.ModelID,
		ModelVersion:  r.ModelVersion,
		InputData:     r.InputData,
		OutputData:    r.OutputData,
		DecisionValue: r.DecisionValue,
		Confidence:    r.Confidence,
		Context:       r.Context,
	}
}
