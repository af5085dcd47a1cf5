package handler

import (
	"encoding/json"
	"time"

	"veritas/internal/ledger"
)

// LogDecisionResponse is the HTTP response for POST /v1/decisions.
type LogDecisionResponse struct {
	DecisionID   string `json:"decision_id"`
	DecisionRef  string `json:"decision_ref"`
	RecordHash   string `json:"record_hash"`
	PreviousHash string `json:"previous_hash"`
	InputHash    string `json:"input_hash"`
	OutputHash   string `json:"output_hash"`
	LatencyMs    int64  `json:"latency_ms"`
}

// FromLogResult converts a domain log result to an HTTP response.
func FromLogResult(res *ledger.LogDecisionResult) *LogDecisionResponse {
	return &LogDecisionResponse{
		DecisionID:   res.DecisionID.String(),
		DecisionRef:  res.DecisionRef,
		RecordHash:   res.RecordHash,
		PreviousHash: res.PreviousHash,
		InputHash:    res.InputHash,
		OutputHash:   res.OutputHash,
		LatencyMs:    res.LatencyMs,
	}
}

// DecisionResponse is one ledger record as returned by the read endpoints.
// Raw input and output payloads are not stored and therefore never served;
// only their digests appear.
type DecisionResponse struct {
	DecisionID        string          `json:"decision_id"`
	Seq               int64           `json:"seq"`
	DecisionRef       string          `json:"decision_ref"`
	ModelID           string          `json:"model_id"`
	ModelVersion      string          `json:"model_version"`
	DecisionValue     string          `json:"decision_value"`
	Confidence        *float64        `json:"confidence,omitempty"`
	Context           json.RawMessage `json:"context,omitempty"`
	InputHash         string          `json:"input_hash"`
	OutputHash        string          `json:"output_hash"`
	PreviousHash      string          `json:"previous_hash"`
	RecordHash        string          `json:"record_hash"`
	DecisionTimestamp time.Time       `json:"decision_timestamp"`
}

// FromRecord converts a ledger record to an HTTP response.
func FromRecord(rec *ledger.DecisionRecord) *DecisionResponse {
	return &DecisionResponse{
		DecisionID:        rec.ID.String(),
		Seq:               rec.Seq,
		DecisionRef:       rec.DecisionRef,
		ModelID:           rec.ModelID,
		ModelVersion:      rec.ModelVersion,
		DecisionValue:     rec.DecisionValue,
		Confidence:        rec.Confidence,
		Context:           rec.Context,
		InputHash:         rec.InputHash,
		OutputHash:        rec.OutputHash,
		PreviousHash:      rec.PreviousHash,
		RecordHash:        rec.RecordHash,
		DecisionTimestamp: rec.DecisionTimestamp,
	}
}

// ListDecisionsResponse is the HTTP response for GET /v1/decisions.
type ListDecisionsResponse struct {
	Decisions []*DecisionResponse `json:"decisions"`
	Count     int                 `json:"count"`
}

// FromRecords converts a page of ledger records to an HTTP response.
func FromRecords(recs []*ledger.DecisionRecord) *ListDecisionsResponse {
	out := make([]*DecisionResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, FromRecord(rec))
	}
	return &ListDecisionsResponse{Decisions: out, Count: len(out)}
}

// InvalidRecordResponse identifies one record that failed verification.
type InvalidRecordResponse struct {
	DecisionID string `json:"decision_id"`
	Seq        int64  `json:"seq"`
	Reason     string `json:"reason"`
}

// VerifyResponse is the HTTP response for GET /v1/decisions/verify.
type VerifyResponse struct {
	Valid        bool                    `json:"valid"`
	Checked      int                     `json:"checked"`
	FirstInvalid *InvalidRecordResponse  `json:"first_invalid,omitempty"`
	Invalid      []InvalidRecordResponse `json:"invalid,omitempty"`
}

// FromVerifyResult converts a fail-fast verification result.
func FromVerifyResult(res *ledger.VerifyResult) *VerifyResponse {
	out := &VerifyResponse{Valid: res.Valid, Checked: res.Checked}
	if res.FirstInvalid != nil {
		out.FirstInvalid = &InvalidRecordResponse{
			DecisionID: res.FirstInvalid.ID.String(),
			Seq:        res.FirstInvalid.Seq,
			Reason:     string(res.FirstInvalid.Reason),
		}
	}
	return out
}

// FromVerifyReport converts a full verification report.
func FromVerifyReport(rep *ledger.VerifyReport) *VerifyResponse {
	out := &VerifyResponse{Valid: rep.Valid, Checked: rep.Checked}
	for _, inv := range rep.Invalid {
		out.Invalid = append(out.Invalid, InvalidRecordResponse{
			DecisionID: inv.ID.String(),
			Seq:        inv.Seq,
			Reason:     string(inv.Reason),
		})
	}
	return out
}
