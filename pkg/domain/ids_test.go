package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "lifelink/pkg/domain-errors"
)

// TestParseUUID_Invariants validates the parsing invariant:
// IDs must be valid, non-empty, non-nil UUIDs.
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseDonorID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseRequisitionID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseRequesterID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		id, err := ParseDonorID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, DonorID(valid), id)
	})
}

func TestLocationMatches(t *testing.T) {
	loc := Location{City: "Pune", State: "Maharashtra"}

	assert.True(t, loc.Matches("pune"))
	assert.True(t, loc.Matches("MAHARASHTRA"))
	assert.True(t, loc.Matches("maha"))
	assert.True(t, loc.Matches(""), "empty query matches any recorded location")
	assert.False(t, loc.Matches("mumbai"))

	var zero Location
	assert.True(t, zero.IsZero())
	assert.False(t, zero.Matches(""), "absent location matches nothing")
}
