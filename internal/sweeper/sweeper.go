// Package sweeper runs the periodic pass that expires overdue requisitions.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"lifelink/internal/requisition/metrics"
)

// Expirer is the slice of the requisition service the sweeper drives.
type Expirer interface {
	ExpireDue(ctx context.Context, now time.Time) (int, error)
}

// Sweeper expires overdue requisitions on a fixed interval until its
// context is cancelled.
type Sweeper struct {
	expirer  Expirer
	interval time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// Option configures a Sweeper.
type Option func(*Sweeper)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sweeper) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Sweeper) { s.metrics = m }
}

// New constructs a Sweeper. interval must be positive.
func New(expirer Expirer, interval time.Duration, opts ...Option) (*Sweeper, error) {
	if expirer == nil {
		return nil, fmt.Errorf("expirer is required")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("sweep interval must be positive, got %s", interval)
	}
	s := &Sweeper{expirer: expirer, interval: interval}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run blocks until ctx is cancelled, sweeping once per interval. A failed
// pass is logged and retried on the next tick; it never stops the loop.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	if s.logger != nil {
		s.logger.InfoContext(ctx, "expiry sweeper started", "interval", s.interval)
	}
	for {
		select {
		case <-ctx.Done():
			if s.logger != nil {
				s.logger.InfoContext(ctx, "expiry sweeper stopped")
			}
			return
		case now := <-ticker.C:
			s.sweep(ctx, now)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context, now time.Time) {
	start := time.Now()
	expired, err := s.expirer.ExpireDue(ctx, now)
	s.metrics.ObserveSweep(time.Since(start))

	if err != nil {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "expiry sweep failed", "error", err)
		}
		return
	}
	if expired > 0 && s.logger != nil {
		s.logger.InfoContext(ctx, "expired overdue requisitions", "count", expired)
	}
}
