package sweeper

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingExpirer struct {
	calls atomic.Int32
	err   error
}

func (e *countingExpirer) ExpireDue(_ context.Context, _ time.Time) (int, error) {
	e.calls.Add(1)
	if e.err != nil {
		return 0, e.err
	}
	return 1, nil
}

func TestRunSweepsUntilCancelled(t *testing.T) {
	expirer := &countingExpirer{}
	s, err := New(expirer, 5*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		return expirer.calls.Load() >= 3
	}, time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancellation")
	}
}

func TestRunSurvivesSweepErrors(t *testing.T) {
	expirer := &countingExpirer{err: errors.New("store offline")}
	s, err := New(expirer, 5*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	// Failing passes keep the loop ticking.
	require.Eventually(t, func() bool {
		return expirer.calls.Load() >= 2
	}, time.Second, time.Millisecond)
}

func TestNewValidation(t *testing.T) {
	_, err := New(nil, time.Second)
	require.Error(t, err)

	_, err = New(&countingExpirer{}, 0)
	require.Error(t, err)
}
