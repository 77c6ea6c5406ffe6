package bloodtype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniversalDonorAndRecipient(t *testing.T) {
	for _, g := range All() {
		assert.True(t, IsCompatible(ONeg, g), "O- must donate to %s", g)
		assert.True(t, IsCompatible(g, ABPos), "%s must donate to AB+", g)
	}
}

func TestCompatibilitySpotChecks(t *testing.T) {
	tests := []struct {
		donor, recipient Group
		want             bool
	}{
		{OPos, OPos, true},
		{OPos, APos, true},
		{OPos, BPos, true},
		{OPos, ABPos, true},
		{OPos, ONeg, false},
		{OPos, ANeg, false},
		{ABPos, ABPos, true},
		{ABPos, ABNeg, false},
		{ABPos, OPos, false},
		{ANeg, APos, true},
		{ANeg, ABNeg, true},
		{ANeg, BNeg, false},
		{BPos, ABPos, true},
		{BPos, APos, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsCompatible(tt.donor, tt.recipient),
			"%s -> %s", tt.donor, tt.recipient)
	}
}

func TestCompatibleDonorsIsInverse(t *testing.T) {
	for _, recipient := range All() {
		for _, donor := range CompatibleDonors(recipient) {
			assert.True(t, IsCompatible(donor, recipient))
		}
		for _, d := range All() {
			if IsCompatible(d, recipient) {
				assert.Contains(t, CompatibleDonors(recipient), d)
			}
		}
	}
}

func TestParseRoundTrip(t *testing.T) {
	for _, g := range All() {
		parsed, err := Parse(g.String())
		require.NoError(t, err)
		assert.Equal(t, g, parsed)
	}

	_, err := Parse("C+")
	require.Error(t, err)
}

func TestMarshalText(t *testing.T) {
	raw, err := ABNeg.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "AB-", string(raw))

	var g Group
	require.NoError(t, g.UnmarshalText([]byte("O+")))
	assert.Equal(t, OPos, g)
}
