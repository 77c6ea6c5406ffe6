package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"lifelink/internal/audit"
	"lifelink/internal/notify/metrics"
	"lifelink/internal/requisition"
	"lifelink/internal/transport"
	"lifelink/pkg/domain"
	dErrors "lifelink/pkg/domain-errors"
	"lifelink/pkg/platform/sentinel"
	"lifelink/pkg/requestcontext"
)

const defaultWorkers = 8

// Result summarizes one fan-out pass over a candidate set.
type Result struct {
	Notified int
	Skipped  int
	Failed   int
}

// Service records and dispatches donor alerts. The notification row is
// written before the dispatch call: a crash between the two leaves a record
// flagged retry-eligible rather than a donor alerted twice.
type Service struct {
	store      Store
	dispatcher transport.Dispatcher
	workers    int
	auditLog   *audit.Publisher
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(p *audit.Publisher) Option {
	return func(s *Service) { s.auditLog = p }
}

// WithWorkers bounds concurrent dispatch calls.
func WithWorkers(n int) Option {
	return func(s *Service) { s.workers = n }
}

// New constructs the notification service.
func New(store Store, dispatcher transport.Dispatcher, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("notification store is required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	svc := &Service{
		store:      store,
		dispatcher: dispatcher,
		workers:    defaultWorkers,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.workers < 1 {
		svc.workers = 1
	}
	return svc, nil
}

// NotifyAll alerts every donor in donorIDs about r, concurrently and at most
// once each. An empty message gets the standard alert text composed from the
// requisition; the text is persisted with each record so retries and the
// donor's feed replay what actually went out. Donors already on record for r
// are counted as skipped. A failed dispatch keeps its record at SENT with
// the retry flag set; it never aborts the rest of the fan-out.
func (s *Service) NotifyAll(ctx context.Context, r *requisition.Requisition, donorIDs []domain.DonorID, message string) (Result, error) {
	if message == "" {
		message = defaultMessage(r)
	}

	var g errgroup.Group
	g.SetLimit(s.workers)

	outcomes := make([]string, len(donorIDs))
	for i, donorID := range donorIDs {
		g.Go(func() error {
			outcome, err := s.notifyOne(ctx, r, donorID, message)
			if err != nil {
				return err
			}
			outcomes[i] = outcome
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	var res Result
	for _, outcome := range outcomes {
		switch outcome {
		case "notified":
			res.Notified++
		case "skipped":
			res.Skipped++
		case "failed":
			res.Failed++
		}
		s.metrics.IncOutcome(outcome)
	}

	if res.Notified > 0 {
		s.auditLog.Emit(ctx, audit.Event{
			RequisitionID: r.ID,
			Action:        audit.ActionDonorsNotified,
			Detail:        fmt.Sprintf("notified=%d skipped=%d failed=%d", res.Notified, res.Skipped, res.Failed),
		})
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "notification fan-out complete",
			"requisition_id", r.ID,
			"candidates", len(donorIDs),
			"notified", res.Notified,
			"skipped", res.Skipped,
			"failed", res.Failed,
		)
	}
	return res, nil
}

// notifyOne returns the outcome label for one donor. Only store failures
// surface as errors; dispatch failures are recorded and absorbed.
func (s *Service) notifyOne(ctx context.Context, r *requisition.Requisition, donorID domain.DonorID, message string) (string, error) {
	now := requestcontext.Now(ctx)
	n := &Notification{
		RequisitionID: r.ID,
		DonorID:       donorID,
		Message:       message,
		Status:        StatusSent,
		NotifiedAt:    now,
		UpdatedAt:     now,
	}
	if err := s.store.Insert(ctx, n); err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			return "skipped", nil
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to record notification")
	}

	if err := s.dispatch(ctx, r, donorID, message); err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "dispatch failed, notification flagged for retry",
				"requisition_id", r.ID,
				"donor_id", donorID,
				"error", err,
			)
		}
		if err := s.store.SetRetryEligible(ctx, r.ID, donorID, true, requestcontext.Now(ctx)); err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to flag notification for retry")
		}
		return "failed", nil
	}
	return "notified", nil
}

func (s *Service) dispatch(ctx context.Context, r *requisition.Requisition, donorID domain.DonorID, message string) error {
	done := s.metrics.TrackInFlight()
	defer done()

	return s.dispatcher.Dispatch(ctx, transport.Message{
		DonorID:       donorID,
		RequisitionID: r.ID,
		Subject:       fmt.Sprintf("Urgent: %s blood needed at %s", r.BloodGroup, r.HospitalName),
		Body:          message,
	})
}

// defaultMessage is the alert text used when the requester supplies none.
func defaultMessage(r *requisition.Requisition) string {
	return fmt.Sprintf("%d unit(s) of %s blood needed by %s at %s, %s. Urgency: %s.",
		r.UnitsNeeded, r.BloodGroup, r.RequiredBy.Format("Jan 2 15:04"), r.HospitalName, r.Location, r.Urgency)
}

// RetryFailed re-dispatches every retry-eligible notification for r with the
// message persisted on its record. Rows that succeed keep their status and
// lose the retry flag.
func (s *Service) RetryFailed(ctx context.Context, r *requisition.Requisition) (retried int, err error) {
	pending, err := s.store.ListRetryEligible(ctx, r.ID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list retryable notifications")
	}

	for _, n := range pending {
		if err := s.dispatch(ctx, r, n.DonorID, n.Message); err != nil {
			if s.logger != nil {
				s.logger.WarnContext(ctx, "retry dispatch failed",
					"requisition_id", r.ID,
					"donor_id", n.DonorID,
					"error", err,
				)
			}
			continue
		}
		if err := s.store.SetRetryEligible(ctx, r.ID, n.DonorID, false, requestcontext.Now(ctx)); err != nil {
			return retried, dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear retry flag")
		}
		retried++
		s.metrics.IncOutcome("notified")
	}
	return retried, nil
}

// MarkDelivered advances a notification to DELIVERED. Already-advanced
// records are left alone; that is not an error.
func (s *Service) MarkDelivered(ctx context.Context, requisitionID domain.RequisitionID, donorID domain.DonorID) error {
	return s.advance(ctx, requisitionID, donorID, StatusDelivered)
}

// MarkRead advances a notification to READ.
func (s *Service) MarkRead(ctx context.Context, requisitionID domain.RequisitionID, donorID domain.DonorID) error {
	return s.advance(ctx, requisitionID, donorID, StatusRead)
}

func (s *Service) advance(ctx context.Context, requisitionID domain.RequisitionID, donorID domain.DonorID, to Status) error {
	_, err := s.store.UpdateStatus(ctx, requisitionID, donorID, to, requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotNotified, "donor was not notified for this requisition")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update notification status")
	}
	return nil
}

// WasNotified reports whether a notification record exists for the pair.
func (s *Service) WasNotified(ctx context.Context, requisitionID domain.RequisitionID, donorID domain.DonorID) (bool, error) {
	_, err := s.store.Get(ctx, requisitionID, donorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load notification")
	}
	return true, nil
}

// ListForRequisition returns every notification recorded for a requisition.
func (s *Service) ListForRequisition(ctx context.Context, requisitionID domain.RequisitionID) ([]Notification, error) {
	out, err := s.store.ListByRequisition(ctx, requisitionID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list notifications")
	}
	return out, nil
}

// ListForDonor pages through a donor's alert inbox, newest first.
func (s *Service) ListForDonor(ctx context.Context, donorID domain.DonorID, page, limit int) ([]Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if page < 1 {
		page = 1
	}
	out, err := s.store.ListByDonor(ctx, donorID, (page-1)*limit, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list notifications")
	}
	return out, nil
}
