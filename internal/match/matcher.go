// Package match ties the requisition side to the donor side: given an open
// requisition it finds compatible donors and drives the notification fan-out.
package match

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"lifelink/internal/bloodtype"
	"lifelink/internal/donor"
	"lifelink/internal/notify"
	"lifelink/internal/requisition"
	"lifelink/pkg/domain"
	dErrors "lifelink/pkg/domain-errors"
)

const (
	defaultFanOutLimit = 50
	retryBackoff       = 2 * time.Second
)

// CandidateFinder is the slice of the donor directory the matcher needs.
type CandidateFinder interface {
	FindCandidates(ctx context.Context, requiredGroup bloodtype.Group, location string, limit int) ([]donor.Candidate, error)
}

// RequisitionSource loads requisitions for matching.
type RequisitionSource interface {
	Get(ctx context.Context, id domain.RequisitionID) (*requisition.Requisition, error)
}

// Notifier performs the fan-out.
type Notifier interface {
	NotifyAll(ctx context.Context, r *requisition.Requisition, donorIDs []domain.DonorID, message string) (notify.Result, error)
	RetryFailed(ctx context.Context, r *requisition.Requisition) (int, error)
}

// Result is the outcome of one matching run.
type Result struct {
	Candidates []donor.Candidate
	Notify     notify.Result
}

// Matcher orchestrates candidate discovery and notification.
type Matcher struct {
	finder       CandidateFinder
	requisitions RequisitionSource
	notifier     Notifier
	fanOutLimit  int
	backoff      time.Duration
	logger       *slog.Logger
}

// Option configures a Matcher.
type Option func(*Matcher)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Matcher) { m.logger = logger }
}

// WithFanOutLimit caps how many donors one matching run may notify.
func WithFanOutLimit(n int) Option {
	return func(m *Matcher) { m.fanOutLimit = n }
}

// WithRetryBackoff sets the pause before the single dispatch retry pass.
func WithRetryBackoff(d time.Duration) Option {
	return func(m *Matcher) { m.backoff = d }
}

// New constructs a Matcher.
func New(finder CandidateFinder, requisitions RequisitionSource, notifier Notifier, opts ...Option) (*Matcher, error) {
	if finder == nil || requisitions == nil || notifier == nil {
		return nil, fmt.Errorf("finder, requisition source, and notifier are all required")
	}
	m := &Matcher{
		finder:       finder,
		requisitions: requisitions,
		notifier:     notifier,
		fanOutLimit:  defaultFanOutLimit,
		backoff:      retryBackoff,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.fanOutLimit < 1 {
		m.fanOutLimit = defaultFanOutLimit
	}
	return m, nil
}

// Run matches donors to an ACTIVE requisition and notifies the eligible
// ones with message as the alert text (empty for the standard text).
// Ineligible-but-compatible candidates come back in the result so callers
// can show who is almost ready, but they are never alerted. When any
// dispatches fail, one retry pass runs after a short pause.
func (m *Matcher) Run(ctx context.Context, requisitionID domain.RequisitionID, message string) (*Result, error) {
	r, err := m.requisitions.Get(ctx, requisitionID)
	if err != nil {
		return nil, err
	}
	if r.Status != requisition.StatusActive {
		return nil, dErrors.Newf(dErrors.CodeRequisitionNotActive, "requisition is %s", r.Status)
	}

	location := r.Location.City
	if location == "" {
		location = r.Location.State
	}

	candidates, err := m.finder.FindCandidates(ctx, r.BloodGroup, location, m.fanOutLimit)
	if err != nil {
		return nil, err
	}

	var eligible []domain.DonorID
	for _, c := range candidates {
		if c.Eligibility.Eligible {
			eligible = append(eligible, c.Profile.ID)
		}
	}
	if len(eligible) == 0 {
		return nil, dErrors.New(dErrors.CodeNoEligibleDonors, "no eligible donors match this requisition")
	}

	res, err := m.notifier.NotifyAll(ctx, r, eligible, message)
	if err != nil {
		return nil, err
	}

	if res.Failed > 0 {
		res.Failed -= m.retryOnce(ctx, r)
	}

	if m.logger != nil {
		m.logger.InfoContext(ctx, "matching run complete",
			"requisition_id", r.ID,
			"candidates", len(candidates),
			"eligible", len(eligible),
			"notified", res.Notified,
			"skipped", res.Skipped,
			"failed", res.Failed,
		)
	}
	return &Result{Candidates: candidates, Notify: res}, nil
}

// retryOnce waits out the backoff and re-drives failed dispatches a single
// time. Context cancellation cuts the wait short.
func (m *Matcher) retryOnce(ctx context.Context, r *requisition.Requisition) int {
	timer := time.NewTimer(m.backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return 0
	case <-timer.C:
	}

	retried, err := m.notifier.RetryFailed(ctx, r)
	if err != nil {
		if m.logger != nil {
			m.logger.WarnContext(ctx, "dispatch retry pass failed",
				"requisition_id", r.ID,
				"error", err,
			)
		}
		return 0
	}
	return retried
}
