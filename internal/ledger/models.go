// Package ledger implements the append-only, hash-chained decision ledger:
// the writer that appends immutable decision records and the verifier that
// proves the chain has not been tampered with.
package ledger

import (
	"encoding/json"
	"time"

	"veritas/pkg/canonical"
	"veritas/pkg/domain"
)

// Genesis is the previous_hash sentinel for the first record in the chain.
const Genesis = "GENESIS"

// hashTimestampLayout pins timestamp formatting for record hashes to
// microsecond precision. RFC3339Nano trims trailing zeros, which would make
// recomputed hashes depend on how many zeros a timestamp happens to end
// with; a fixed layout survives the round trip through Postgres (which
// stores microseconds).
const hashTimestampLayout = "2006-01-02T15:04:05.000000Z"

// DecisionRecord is one immutable ledger entry. Records are append-only:
// no field is ever updated or deleted after insertion, and record_hash is
// reproducible from the stored fields.
type DecisionRecord struct {
	ID  domain.DecisionID `json:"id"`
	Seq int64             `json:"seq"`

	// DecisionRef is the human-facing unique key (DEC-...).
	DecisionRef string `json:"decision_ref"`

	ModelID       string   `json:"model_id"`
	ModelVersion  string   `json:"model_version"`
	DecisionValue string   `json:"decision_value"`
	Confidence    *float64 `json:"confidence,omitempty"`

	// Context is opaque structured metadata supplied by the caller.
	Context json.RawMessage `json:"context,omitempty"`

	// InputHash and OutputHash are canonical digests of the raw payloads.
	// The payloads themselves are never persisted (privacy boundary).
	InputHash  string `json:"input_hash"`
	OutputHash string `json:"output_hash"`

	// PreviousHash is the record_hash of the prior record, or Genesis.
	PreviousHash string `json:"previous_hash"`
	// RecordHash is the digest over this record's chained fields.
	RecordHash string `json:"record_hash"`

	DecisionTimestamp time.Time `json:"decision_timestamp"`
}

// ComputeRecordHash recomputes the chained digest from the record's stored
// fields. The field order is the chain contract; changing it invalidates
// every existing ledger.
func ComputeRecordHash(rec *DecisionRecord) string {
	return canonical.Chain(
		rec.PreviousHash,
		rec.DecisionRef,
		rec.ModelID,
		rec.ModelVersion,
		rec.InputHash,
		rec.OutputHash,
		rec.DecisionValue,
		rec.DecisionTimestamp.UTC().Format(hashTimestampLayout),
	)
}

// HashTimestamp truncates a timestamp to the precision covered by the
// record hash. Writers must store exactly what they hash.
func HashTimestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
