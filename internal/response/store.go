package response

import (
	"context"

	"lifelink/pkg/domain"
)

// Store persists donor responses. Upsert overwrites the existing row for the
// (requisition, donor) pair; CountWilling is always recomputed from rows so
// an overwritten WILLING never double-counts.
type Store interface {
	Upsert(ctx context.Context, r *Response) error
	Get(ctx context.Context, requisitionID domain.RequisitionID, donorID domain.DonorID) (*Response, error)
	ListByRequisition(ctx context.Context, requisitionID domain.RequisitionID) ([]Response, error)
	CountWilling(ctx context.Context, requisitionID domain.RequisitionID) (int, error)
}
