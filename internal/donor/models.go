package donor

import (
	"time"

	"lifelink/internal/bloodtype"
	"lifelink/internal/eligibility"
	"lifelink/pkg/domain"
)

// Profile is a person who may donate blood. BloodGroup is optional because
// profiles can be incomplete; a profile without a group is never matched.
// Profiles are deactivated by clearing IsBloodDonor, never deleted.
type Profile struct {
	ID               domain.DonorID
	Name             string
	BloodGroup       *bloodtype.Group
	IsBloodDonor     bool
	LastDonationDate *time.Time
	Location         domain.Location
	ContactVisible   bool
	Phone            string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Donation is one immutable entry in a donor's append-only donation ledger.
type Donation struct {
	ID        domain.DonationID
	DonorID   domain.DonorID
	Date      time.Time
	Location  domain.Location
	Units     int
	Notes     string
	CreatedAt time.Time
}

// Candidate pairs a matched profile with its eligibility assessment so
// requesters can see almost-eligible donors flagged distinctly.
type Candidate struct {
	Profile     Profile
	Eligibility eligibility.Assessment
}
