package donor

import (
	"context"

	"lifelink/internal/bloodtype"
	"lifelink/pkg/domain"
)

// Store persists donor profiles and the donation ledger. Stores are pure I/O;
// eligibility and ranking rules live in the Directory.
type Store interface {
	// UpsertProfile creates or replaces a profile.
	UpsertProfile(ctx context.Context, profile Profile) error
	// GetProfile returns sentinel.ErrNotFound (wrapped) for unknown donors.
	GetProfile(ctx context.Context, id domain.DonorID) (*Profile, error)
	// FindByGroups returns opted-in donors (IsBloodDonor) whose recorded
	// blood group is in groups. Profiles without a group are excluded.
	FindByGroups(ctx context.Context, groups []bloodtype.Group) ([]Profile, error)
	// RecordDonation appends to the ledger and advances the profile's
	// LastDonationDate to the maximum donation date seen. The invariant
	// last_donation_date == max(donated_at) holds after every insert, even
	// for out-of-order backfills.
	RecordDonation(ctx context.Context, donation Donation) error
	// ListDonations returns the donor's ledger, most recent first.
	ListDonations(ctx context.Context, donorID domain.DonorID) ([]Donation, error)
}
