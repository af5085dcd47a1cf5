package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "veritas/pkg/domain-errors"
)

// TestParseUUID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs".
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseDecisionID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseDecisionID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseAppealID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		id, err := ParseDecisionID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, DecisionID(valid), id)
	})
}

// TestTypeDistinction verifies the compiler enforces type safety between
// aggregate IDs. If this compiles, the invariant holds.
func TestTypeDistinction(t *testing.T) {
	decisionID := NewDecisionID()
	appealID := NewAppealID()

	// These would fail to compile if types were interchangeable:
	// var _ DecisionID = appealID // compile error
	// var _ AppealID = decisionID // compile error

	assert.NotEqual(t, uuid.UUID(decisionID), uuid.UUID(appealID))
}

func TestIDTextRoundTrip(t *testing.T) {
	id := NewDecisionID()

	text, err := id.MarshalText()
	require.NoError(t, err)

	var back DecisionID
	require.NoError(t, back.UnmarshalText(text))
	assert.Equal(t, id, back)
}
