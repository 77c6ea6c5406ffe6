// Package audit records the requisition lifecycle as an append-only trail.
// Services emit events through a buffered publisher; a background worker
// persists them so emitting never blocks a request handler.
package audit

import (
	"context"
	"time"

	"lifelink/pkg/domain"
)

// Action labels what happened.
type Action string

const (
	ActionRequisitionCreated   Action = "requisition_created"
	ActionRequisitionCancelled Action = "requisition_cancelled"
	ActionRequisitionFulfilled Action = "requisition_fulfilled"
	ActionRequisitionExpired   Action = "requisition_expired"
	ActionDonorsNotified       Action = "donors_notified"
	ActionResponseRecorded     Action = "response_recorded"
	ActionDonationRecorded     Action = "donation_recorded"
)

// Event is one immutable audit entry.
type Event struct {
	RequisitionID domain.RequisitionID
	Actor         string
	Action        Action
	Detail        string
	Timestamp     time.Time
}

// Store is the audit persistence, append-only by contract.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByRequisition(ctx context.Context, id domain.RequisitionID) ([]Event, error)
}
