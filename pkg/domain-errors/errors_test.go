package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("direct error", func(t *testing.T) {
		err := New(CodeNotNotified, "no notification for donor")
		assert.True(t, HasCode(err, CodeNotNotified))
		assert.False(t, HasCode(err, CodeValidation))
	})

	t.Run("wrapped cause stays reachable", func(t *testing.T) {
		cause := errors.New("row not found")
		err := Wrap(cause, CodeNotFound, "requisition not found")
		require.Error(t, err)
		assert.True(t, HasCode(err, CodeNotFound))
		assert.ErrorIs(t, err, cause)
	})

	t.Run("fmt wrapping preserves code", func(t *testing.T) {
		err := fmt.Errorf("record response: %w", New(CodeRequisitionNotActive, "requisition is terminal"))
		assert.True(t, HasCode(err, CodeRequisitionNotActive))
	})

	t.Run("plain error has no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
		assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	})
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))
}
