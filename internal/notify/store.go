package notify

import (
	"context"
	"time"

	"lifelink/pkg/domain"
)

// Store persists donor notifications. Insert must enforce uniqueness of the
// (requisition, donor) pair, returning sentinel.ErrDuplicate on conflict;
// that constraint is what makes repeat matching rounds idempotent.
type Store interface {
	Insert(ctx context.Context, n *Notification) error
	Get(ctx context.Context, requisitionID domain.RequisitionID, donorID domain.DonorID) (*Notification, error)
	ListByRequisition(ctx context.Context, requisitionID domain.RequisitionID) ([]Notification, error)
	ListByDonor(ctx context.Context, donorID domain.DonorID, offset, limit int) ([]Notification, error)
	ListRetryEligible(ctx context.Context, requisitionID domain.RequisitionID) ([]Notification, error)
	// UpdateStatus advances the status and clears the retry flag. The write
	// is conditional on the stored status ranking below the new one; false
	// means the record had already advanced at least that far.
	UpdateStatus(ctx context.Context, requisitionID domain.RequisitionID, donorID domain.DonorID, to Status, at time.Time) (bool, error)
	SetRetryEligible(ctx context.Context, requisitionID domain.RequisitionID, donorID domain.DonorID, eligible bool, at time.Time) error
}
