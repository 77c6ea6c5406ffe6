package requisition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"lifelink/internal/audit"
	"lifelink/internal/bloodtype"
	"lifelink/internal/donor"
	"lifelink/internal/requisition/metrics"
	"lifelink/pkg/domain"
	dErrors "lifelink/pkg/domain-errors"
	"lifelink/pkg/platform/sentinel"
	"lifelink/pkg/requestcontext"
)

// ProfileSource is the slice of the donor directory the discover feed needs.
type ProfileSource interface {
	GetProfile(ctx context.Context, id domain.DonorID) (*donor.Profile, error)
}

// DiscoverCache caches donor discovery pages. Implementations are optional;
// a nil cache disables caching.
type DiscoverCache interface {
	Get(ctx context.Context, donorID domain.DonorID, page, limit int) ([]Requisition, bool)
	Set(ctx context.Context, donorID domain.DonorID, page, limit int, rs []Requisition)
	// Invalidate bumps the cache generation after a terminal transition so
	// donors stop seeing dead requisitions ahead of TTL expiry.
	Invalidate(ctx context.Context)
}

// Service owns requisition lifecycle operations. All transitions funnel
// through the store's compare-and-set.
type Service struct {
	store    Store
	profiles ProfileSource
	policy   FulfillmentPolicy
	cache    DiscoverCache
	auditLog *audit.Publisher
	logger   *slog.Logger
	metrics  *metrics.Metrics
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

func WithDiscoverCache(c DiscoverCache) Option {
	return func(s *Service) { s.cache = c }
}

func WithPolicy(p FulfillmentPolicy) Option {
	return func(s *Service) { s.policy = p }
}

// New constructs the requisition service. profiles may be nil if the
// discover feed is not exposed.
func New(store Store, profiles ProfileSource, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("requisition store is required")
	}
	svc := &Service{
		store:    store,
		profiles: profiles,
		policy:   FulfillmentPolicy{Auto: true},
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Policy exposes the fulfillment policy for collaborating services.
func (s *Service) Policy() FulfillmentPolicy { return s.policy }

// CreateInput carries everything needed to open a requisition.
type CreateInput struct {
	RequesterID        domain.RequesterID
	PatientName        string
	HospitalName       string
	ContactNumber      string
	BloodGroup         bloodtype.Group
	UnitsNeeded        int
	Urgency            Urgency
	Location           domain.Location
	RequiredBy         time.Time
	AllowContactReveal bool
	MedicalCondition   string
	AdditionalNotes    string
}

func (in CreateInput) validate(now time.Time) error {
	switch {
	case in.RequesterID.IsNil():
		return dErrors.New(dErrors.CodeValidation, "requester_id is required")
	case strings.TrimSpace(in.PatientName) == "":
		return dErrors.New(dErrors.CodeValidation, "patient_name is required")
	case strings.TrimSpace(in.HospitalName) == "":
		return dErrors.New(dErrors.CodeValidation, "hospital_name is required")
	case strings.TrimSpace(in.ContactNumber) == "":
		return dErrors.New(dErrors.CodeValidation, "contact_number is required")
	case !in.BloodGroup.Valid():
		return dErrors.New(dErrors.CodeValidation, "unknown blood group")
	case in.UnitsNeeded < 1:
		return dErrors.New(dErrors.CodeValidation, "units_needed must be at least 1")
	case in.RequiredBy.Before(now):
		return dErrors.New(dErrors.CodeValidation, "required_by must not be in the past")
	}
	if _, err := ParseUrgency(string(in.Urgency)); err != nil {
		return err
	}
	return nil
}

// Create validates input and persists a new ACTIVE requisition.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Requisition, error) {
	now := requestcontext.Now(ctx)
	if err := in.validate(now); err != nil {
		return nil, err
	}

	urgency := in.Urgency
	if urgency == "" {
		urgency = UrgencyMedium
	}

	r := &Requisition{
		ID:                 domain.NewRequisitionID(),
		RequesterID:        in.RequesterID,
		PatientName:        strings.TrimSpace(in.PatientName),
		HospitalName:       strings.TrimSpace(in.HospitalName),
		ContactNumber:      strings.TrimSpace(in.ContactNumber),
		BloodGroup:         in.BloodGroup,
		UnitsNeeded:        in.UnitsNeeded,
		Urgency:            urgency,
		Location:           in.Location,
		RequiredBy:         in.RequiredBy,
		AllowContactReveal: in.AllowContactReveal,
		MedicalCondition:   in.MedicalCondition,
		AdditionalNotes:    in.AdditionalNotes,
		Status:             StatusActive,
		WillingDonors:      0,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.store.Create(ctx, r); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create requisition")
	}

	s.metrics.IncCreated()
	s.auditLog.Emit(ctx, audit.Event{
		RequisitionID: r.ID,
		Actor:         r.RequesterID.String(),
		Action:        audit.ActionRequisitionCreated,
		Detail:        fmt.Sprintf("group=%s units=%d urgency=%s", r.BloodGroup, r.UnitsNeeded, r.Urgency),
	})
	if s.logger != nil {
		s.logger.InfoContext(ctx, "requisition created",
			"requisition_id", r.ID,
			"requester_id", r.RequesterID,
			"blood_group", r.BloodGroup.String(),
			"units_needed", r.UnitsNeeded,
			"required_by", r.RequiredBy,
		)
	}
	return r, nil
}

// Get loads one requisition.
func (s *Service) Get(ctx context.Context, id domain.RequisitionID) (*Requisition, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "requisition not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load requisition")
	}
	return r, nil
}

// Cancel performs the requester-initiated ACTIVE→CANCELLED transition.
func (s *Service) Cancel(ctx context.Context, id domain.RequisitionID, requesterID domain.RequesterID) error {
	return s.requesterTransition(ctx, id, requesterID, StatusCancelled, audit.ActionRequisitionCancelled)
}

// MarkFulfilled performs the requester-initiated ACTIVE→FULFILLED transition.
func (s *Service) MarkFulfilled(ctx context.Context, id domain.RequisitionID, requesterID domain.RequesterID) error {
	return s.requesterTransition(ctx, id, requesterID, StatusFulfilled, audit.ActionRequisitionFulfilled)
}

func (s *Service) requesterTransition(ctx context.Context, id domain.RequisitionID, requesterID domain.RequesterID, to Status, action audit.Action) error {
	r, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if r.RequesterID != requesterID {
		return dErrors.New(dErrors.CodeForbidden, "requisition belongs to another requester")
	}

	ok, err := s.store.TransitionStatus(ctx, id, StatusActive, to, requestcontext.Now(ctx))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update requisition status")
	}
	if !ok {
		// Lost the compare-and-set; re-read for an accurate status in the error.
		if current, rerr := s.Get(ctx, id); rerr == nil {
			return dErrors.Newf(dErrors.CodeInvalidTransition, "requisition is already %s", current.Status)
		}
		return dErrors.New(dErrors.CodeInvalidTransition, "requisition is no longer active")
	}

	s.metrics.IncTransition(string(to), "requester")
	s.invalidateDiscoverFeed(ctx)
	s.auditLog.Emit(ctx, audit.Event{
		RequisitionID: id,
		Actor:         requesterID.String(),
		Action:        action,
	})
	if s.logger != nil {
		s.logger.InfoContext(ctx, "requisition status changed",
			"requisition_id", id,
			"to", to,
			"trigger", "requester",
		)
	}
	return nil
}

// ApplyWillingCount recomputes the willing-donor count under the store's
// guard and, when the fulfillment policy is satisfied, attempts the
// automatic ACTIVE→FULFILLED transition. The recount runs inside the guard
// so a caller holding an older snapshot cannot clobber a newer count.
// Exactly one concurrent caller wins the compare-and-set; losers observe
// fulfilled=false with no error, which is a normal outcome.
func (s *Service) ApplyWillingCount(ctx context.Context, id domain.RequisitionID, recount RecountFunc) (count int, fulfilled bool, err error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return 0, false, err
	}

	now := requestcontext.Now(ctx)
	count, err = s.store.SetWillingDonors(ctx, id, recount, now)
	if err != nil {
		return 0, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update willing donor count")
	}

	if !s.policy.Auto || count < s.policy.ThresholdFor(r) || r.Status != StatusActive {
		return count, false, nil
	}

	won, err := s.store.TransitionStatus(ctx, id, StatusActive, StatusFulfilled, now)
	if err != nil {
		return count, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to fulfill requisition")
	}
	if !won {
		return count, false, nil
	}

	s.metrics.IncTransition(string(StatusFulfilled), "auto")
	s.invalidateDiscoverFeed(ctx)
	s.auditLog.Emit(ctx, audit.Event{
		RequisitionID: id,
		Action:        audit.ActionRequisitionFulfilled,
		Detail:        fmt.Sprintf("willing_donors=%d", count),
	})
	if s.logger != nil {
		s.logger.InfoContext(ctx, "requisition auto-fulfilled",
			"requisition_id", id,
			"willing_donors", count,
		)
	}
	return count, true, nil
}

// ExpireDue transitions every ACTIVE requisition past its RequiredBy to
// EXPIRED. Requisitions fulfilled or cancelled mid-sweep lose the
// compare-and-set and are skipped; both outcomes are valid.
func (s *Service) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	due, err := s.store.ListExpiredActive(ctx, now)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list overdue requisitions")
	}

	expired := 0
	for _, r := range due {
		won, err := s.store.TransitionStatus(ctx, r.ID, StatusActive, StatusExpired, now)
		if err != nil {
			return expired, dErrors.Wrap(err, dErrors.CodeInternal, "failed to expire requisition")
		}
		if !won {
			continue
		}
		expired++
		s.metrics.IncTransition(string(StatusExpired), "sweeper")
		s.auditLog.Emit(ctx, audit.Event{
			RequisitionID: r.ID,
			Action:        audit.ActionRequisitionExpired,
		})
	}
	if expired > 0 {
		s.invalidateDiscoverFeed(ctx)
	}
	return expired, nil
}

// ListByRequester pages through a requester's requisitions, any status.
func (s *Service) ListByRequester(ctx context.Context, requesterID domain.RequesterID, page, limit int) ([]Requisition, error) {
	offset, limit := pageToOffset(page, limit)
	out, err := s.store.ListByRequester(ctx, requesterID, offset, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list requisitions")
	}
	return out, nil
}

// Discover pages through ACTIVE requisitions this donor could help with:
// required group receivable from the donor's group, location near the
// donor's. Served from cache when one is configured.
func (s *Service) Discover(ctx context.Context, donorID domain.DonorID, page, limit int) ([]Requisition, error) {
	if s.profiles == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "donor directory is not wired")
	}
	profile, err := s.profiles.GetProfile(ctx, donorID)
	if err != nil {
		return nil, err
	}
	if profile.BloodGroup == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "donor profile has no blood group on record")
	}

	offset, limit := pageToOffset(page, limit)
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, donorID, page, limit); ok {
			return cached, nil
		}
	}

	groups := bloodtype.CanDonateTo(*profile.BloodGroup)
	location := profile.Location.City
	if location == "" {
		location = profile.Location.State
	}

	out, err := s.store.ListActiveCompatible(ctx, groups, location, offset, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list requisitions")
	}

	if s.cache != nil {
		s.cache.Set(ctx, donorID, page, limit, out)
	}
	return out, nil
}

func (s *Service) invalidateDiscoverFeed(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}

func pageToOffset(page, limit int) (offset, capped int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit, limit
}
