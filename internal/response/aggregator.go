package response

import (
	"context"
	"fmt"
	"log/slog"

	"lifelink/internal/audit"
	"lifelink/internal/requisition"
	"lifelink/pkg/domain"
	dErrors "lifelink/pkg/domain-errors"
	"lifelink/pkg/requestcontext"
)

// RequisitionLifecycle is the slice of the requisition service the
// aggregator needs: status reads plus the willing-count write path.
type RequisitionLifecycle interface {
	Get(ctx context.Context, id domain.RequisitionID) (*requisition.Requisition, error)
	ApplyWillingCount(ctx context.Context, id domain.RequisitionID, recount requisition.RecountFunc) (int, bool, error)
}

// NotificationLog answers whether a donor was alerted for a requisition.
type NotificationLog interface {
	WasNotified(ctx context.Context, requisitionID domain.RequisitionID, donorID domain.DonorID) (bool, error)
}

// Ack is returned to the responding donor.
type Ack struct {
	Kind          Kind
	WillingDonors int
	// Fulfilled is set when this response was the one that satisfied the
	// requisition.
	Fulfilled bool
}

// Aggregator records donor responses and keeps the requisition's willing
// count in step with the response rows.
type Aggregator struct {
	store         Store
	requisitions  RequisitionLifecycle
	notifications NotificationLog
	auditLog      *audit.Publisher
	logger        *slog.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) { a.logger = logger }
}

func WithAuditPublisher(p *audit.Publisher) Option {
	return func(a *Aggregator) { a.auditLog = p }
}

// New constructs the response aggregator.
func New(store Store, requisitions RequisitionLifecycle, notifications NotificationLog, opts ...Option) (*Aggregator, error) {
	if store == nil || requisitions == nil || notifications == nil {
		return nil, fmt.Errorf("store, requisition lifecycle, and notification log are all required")
	}
	a := &Aggregator{
		store:         store,
		requisitions:  requisitions,
		notifications: notifications,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Record stores a donor's answer and recomputes the willing count.
//
// Only notified donors may respond. Re-answering overwrites the previous
// answer, so flip-flopping WILLING/NOT_AVAILABLE never inflates the count.
// Responses against CANCELLED or EXPIRED requisitions are rejected; a
// requisition that went FULFILLED moments ago still accepts the answer as a
// courtesy ack, it just cannot fulfill anything further.
func (a *Aggregator) Record(ctx context.Context, requisitionID domain.RequisitionID, donorID domain.DonorID, kind Kind, message string) (*Ack, error) {
	if !kind.Valid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown response %q", kind)
	}

	r, err := a.requisitions.Get(ctx, requisitionID)
	if err != nil {
		return nil, err
	}
	if r.Status == requisition.StatusCancelled || r.Status == requisition.StatusExpired {
		return nil, dErrors.Newf(dErrors.CodeRequisitionNotActive, "requisition is %s", r.Status)
	}

	notified, err := a.notifications.WasNotified(ctx, requisitionID, donorID)
	if err != nil {
		return nil, err
	}
	if !notified {
		return nil, dErrors.New(dErrors.CodeNotNotified, "donor was not notified for this requisition")
	}

	if err := a.store.Upsert(ctx, &Response{
		RequisitionID: requisitionID,
		DonorID:       donorID,
		Kind:          kind,
		Message:       message,
		RespondedAt:   requestcontext.Now(ctx),
	}); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record response")
	}

	// The recount runs under the requisition store's guard; a FULFILLED
	// requisition still gets its counter refreshed, it just cannot
	// transition again.
	count, fulfilled, err := a.requisitions.ApplyWillingCount(ctx, requisitionID, func(ctx context.Context) (int, error) {
		return a.store.CountWilling(ctx, requisitionID)
	})
	if err != nil {
		return nil, err
	}

	a.auditLog.Emit(ctx, audit.Event{
		RequisitionID: requisitionID,
		Actor:         donorID.String(),
		Action:        audit.ActionResponseRecorded,
		Detail:        fmt.Sprintf("response=%s willing=%d", kind, count),
	})
	if a.logger != nil {
		a.logger.InfoContext(ctx, "donor response recorded",
			"requisition_id", requisitionID,
			"donor_id", donorID,
			"response", kind,
			"willing_donors", count,
			"fulfilled", fulfilled,
		)
	}
	return &Ack{Kind: kind, WillingDonors: count, Fulfilled: fulfilled}, nil
}

// Get returns a donor's current answer for a requisition.
func (a *Aggregator) Get(ctx context.Context, requisitionID domain.RequisitionID, donorID domain.DonorID) (*Response, error) {
	r, err := a.store.Get(ctx, requisitionID, donorID)
	if err != nil {
		if errorsIsNotFound(err) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no response on record")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load response")
	}
	return r, nil
}

// ListForRequisition returns every response recorded for a requisition,
// oldest first.
func (a *Aggregator) ListForRequisition(ctx context.Context, requisitionID domain.RequisitionID) ([]Response, error) {
	out, err := a.store.ListByRequisition(ctx, requisitionID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list responses")
	}
	return out, nil
}
