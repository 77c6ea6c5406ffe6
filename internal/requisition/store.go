package requisition

import (
	"context"
	"time"

	"lifelink/internal/bloodtype"
	"lifelink/pkg/domain"
)

// Store persists requisitions. The only contended write is TransitionStatus;
// every lifecycle change goes through its compare-and-set so concurrent
// fulfillment, cancellation, and expiry cannot corrupt state.
type Store interface {
	Create(ctx context.Context, r *Requisition) error
	// Get returns sentinel.ErrNotFound (wrapped) for unknown IDs.
	Get(ctx context.Context, id domain.RequisitionID) (*Requisition, error)
	// ListByRequester returns the requester's requisitions in any status,
	// newest first.
	ListByRequester(ctx context.Context, requesterID domain.RequesterID, offset, limit int) ([]Requisition, error)
	// ListActiveCompatible returns ACTIVE requisitions whose required group
	// is in groups, optionally filtered by location query, newest first.
	ListActiveCompatible(ctx context.Context, groups []bloodtype.Group, location string, offset, limit int) ([]Requisition, error)
	// ListExpiredActive returns ACTIVE requisitions whose RequiredBy has
	// passed at now.
	ListExpiredActive(ctx context.Context, now time.Time) ([]Requisition, error)
	// TransitionStatus atomically moves id from→to. Returns false (no error)
	// when the current status no longer matches from: some concurrent writer
	// won, which callers treat as a normal outcome.
	TransitionStatus(ctx context.Context, id domain.RequisitionID, from, to Status, at time.Time) (bool, error)
	// SetWillingDonors recomputes and writes the willing-donor count.
	// recount runs while the store holds its write guard on the requisition,
	// so two concurrent writers serialize and a slow caller can never
	// overwrite a fresher count with a stale one. Returns the stored count.
	SetWillingDonors(ctx context.Context, id domain.RequisitionID, recount RecountFunc, at time.Time) (int, error)
}

// RecountFunc computes the current willing-donor count from the response
// rows. Stores invoke it under their requisition write guard.
type RecountFunc func(ctx context.Context) (int, error)
