package donor

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"lifelink/internal/bloodtype"
	"lifelink/internal/eligibility"
	"lifelink/pkg/domain"
	dErrors "lifelink/pkg/domain-errors"
	"lifelink/pkg/platform/sentinel"
	"lifelink/pkg/requestcontext"
)

// Directory answers "who could donate for this requirement right now" and
// owns the donor-side write path (profile upserts, donation recording).
type Directory struct {
	store  Store
	eval   eligibility.Evaluator
	logger *slog.Logger
}

// Option configures a Directory.
type Option func(*Directory)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Directory) { d.logger = logger }
}

func WithEvaluator(eval eligibility.Evaluator) Option {
	return func(d *Directory) { d.eval = eval }
}

// NewDirectory constructs the donor directory service.
func NewDirectory(store Store, opts ...Option) (*Directory, error) {
	if store == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "donor store is required")
	}
	d := &Directory{
		store: store,
		eval:  eligibility.New(eligibility.DefaultCooldown),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// FindCandidates returns at most limit donors able to receive a request for
// requiredGroup: opted-in, compatible, and (when location is non-empty)
// matching the location query. Eligible donors come first, location matches
// ahead of the rest; ineligible-but-compatible donors trail, soonest next
// eligible date first, so requesters see who is almost ready. An empty result
// is not an error.
func (d *Directory) FindCandidates(ctx context.Context, requiredGroup bloodtype.Group, location string, limit int) ([]Candidate, error) {
	if !requiredGroup.Valid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown blood group")
	}
	if limit <= 0 {
		return nil, nil
	}

	profiles, err := d.store.FindByGroups(ctx, bloodtype.CompatibleDonors(requiredGroup))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "donor lookup failed")
	}

	now := requestcontext.Now(ctx)
	location = strings.TrimSpace(location)

	var candidates []Candidate
	for _, p := range profiles {
		if location != "" && !p.Location.Matches(location) {
			continue
		}
		candidates = append(candidates, Candidate{
			Profile:     p,
			Eligibility: d.eval.Evaluate(p.LastDonationDate, now),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidateLess(candidates[i], candidates[j], location)
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// candidateLess orders eligible-and-location-matching donors first, then the
// remaining eligible, then ineligible donors by soonest next eligible date.
func candidateLess(a, b Candidate, location string) bool {
	ra, rb := candidateRank(a, location), candidateRank(b, location)
	if ra != rb {
		return ra < rb
	}
	if ra == 2 && a.Eligibility.NextEligibleDate != nil && b.Eligibility.NextEligibleDate != nil {
		return a.Eligibility.NextEligibleDate.Before(*b.Eligibility.NextEligibleDate)
	}
	return false
}

func candidateRank(c Candidate, location string) int {
	switch {
	case c.Eligibility.Eligible && (location == "" || c.Profile.Location.Matches(location)):
		return 0
	case c.Eligibility.Eligible:
		return 1
	default:
		return 2
	}
}

// SaveProfile validates and upserts a donor profile.
func (d *Directory) SaveProfile(ctx context.Context, p Profile) error {
	if p.ID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "donor id is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if p.BloodGroup != nil && !p.BloodGroup.Valid() {
		return dErrors.New(dErrors.CodeValidation, "unknown blood group")
	}
	now := requestcontext.Now(ctx)
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	if err := d.store.UpsertProfile(ctx, p); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save donor profile")
	}
	return nil
}

// GetProfile fetches one profile.
func (d *Directory) GetProfile(ctx context.Context, id domain.DonorID) (*Profile, error) {
	profile, err := d.store.GetProfile(ctx, id)
	if err != nil {
		if errorsIsNotFound(err) {
			return nil, dErrors.New(dErrors.CodeNotFound, "donor not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load donor profile")
	}
	return profile, nil
}

// RecordDonation appends a self-reported donation to the donor's ledger. The
// store advances LastDonationDate so the derived-date invariant holds.
func (d *Directory) RecordDonation(ctx context.Context, donorID domain.DonorID, date time.Time, location domain.Location, units int, notes string) (*Donation, error) {
	if donorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "donor id is required")
	}
	if units < 1 {
		return nil, dErrors.New(dErrors.CodeValidation, "units must be at least 1")
	}
	now := requestcontext.Now(ctx)
	if date.IsZero() {
		date = now
	}
	if date.After(now) {
		return nil, dErrors.New(dErrors.CodeValidation, "donation date cannot be in the future")
	}

	donation := Donation{
		ID:        domain.NewDonationID(),
		DonorID:   donorID,
		Date:      date,
		Location:  location,
		Units:     units,
		Notes:     notes,
		CreatedAt: now,
	}
	if err := d.store.RecordDonation(ctx, donation); err != nil {
		if errorsIsNotFound(err) {
			return nil, dErrors.New(dErrors.CodeNotFound, "donor not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record donation")
	}

	if d.logger != nil {
		d.logger.InfoContext(ctx, "donation recorded",
			"donor_id", donorID,
			"units", units,
			"donated_at", date,
		)
	}
	return &donation, nil
}

// ListDonations returns the donor's ledger, most recent first.
func (d *Directory) ListDonations(ctx context.Context, donorID domain.DonorID) ([]Donation, error) {
	donations, err := d.store.ListDonations(ctx, donorID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list donations")
	}
	return donations, nil
}

func errorsIsNotFound(err error) bool {
	return errors.Is(err, sentinel.ErrNotFound)
}
