package eligibility

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	eval := New(DefaultCooldown)
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	t.Run("no recorded donation is eligible", func(t *testing.T) {
		a := eval.Evaluate(nil, now)
		assert.True(t, a.Eligible)
		assert.Nil(t, a.DaysSinceLastDonation)
		assert.Nil(t, a.NextEligibleDate)
		assert.Zero(t, a.DaysRemaining)
	})

	t.Run("89 days ago is not eligible", func(t *testing.T) {
		last := now.Add(-89 * 24 * time.Hour)
		a := eval.Evaluate(&last, now)
		assert.False(t, a.Eligible)
		require.NotNil(t, a.DaysSinceLastDonation)
		assert.Equal(t, 89, *a.DaysSinceLastDonation)
		assert.Equal(t, 1, a.DaysRemaining)
		require.NotNil(t, a.NextEligibleDate)
		assert.Equal(t, last.Add(DefaultCooldown), *a.NextEligibleDate)
	})

	t.Run("exactly 90 days ago is eligible", func(t *testing.T) {
		last := now.Add(-90 * 24 * time.Hour)
		a := eval.Evaluate(&last, now)
		assert.True(t, a.Eligible)
	})

	t.Run("91 days ago is eligible", func(t *testing.T) {
		last := now.Add(-91 * 24 * time.Hour)
		a := eval.Evaluate(&last, now)
		assert.True(t, a.Eligible)
		require.NotNil(t, a.DaysSinceLastDonation)
		assert.Equal(t, 91, *a.DaysSinceLastDonation)
		assert.Zero(t, a.DaysRemaining)
	})

	t.Run("partial days round up", func(t *testing.T) {
		last := now.Add(-89*24*time.Hour - 12*time.Hour)
		a := eval.Evaluate(&last, now)
		assert.False(t, a.Eligible)
		assert.Equal(t, 1, a.DaysRemaining)
	})
}

func TestCustomCooldown(t *testing.T) {
	eval := New(10 * 24 * time.Hour)
	now := time.Now()
	last := now.Add(-11 * 24 * time.Hour)
	assert.True(t, eval.Evaluate(&last, now).Eligible)

	last = now.Add(-9 * 24 * time.Hour)
	assert.False(t, eval.Evaluate(&last, now).Eligible)
}
