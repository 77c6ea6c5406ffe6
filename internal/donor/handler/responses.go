package handler

import (
	"time"

	"lifelink/internal/donor"
	"lifelink/internal/eligibility"
)

// ProfileResponse is the HTTP shape of a donor profile. The phone number is
// omitted unless the donor opted into contact visibility.
type ProfileResponse struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	BloodGroup       string     `json:"blood_group,omitempty"`
	IsBloodDonor     bool       `json:"is_blood_donor"`
	LastDonationDate *time.Time `json:"last_donation_date,omitempty"`
	City             string     `json:"city,omitempty"`
	State            string     `json:"state,omitempty"`
	ContactVisible   bool       `json:"contact_visible"`
	Phone            string     `json:"phone,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// FromProfile converts a domain profile to its HTTP shape.
func FromProfile(p *donor.Profile) *ProfileResponse {
	resp := &ProfileResponse{
		ID:               p.ID.String(),
		Name:             p.Name,
		IsBloodDonor:     p.IsBloodDonor,
		LastDonationDate: p.LastDonationDate,
		City:             p.Location.City,
		State:            p.Location.State,
		ContactVisible:   p.ContactVisible,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
	if p.BloodGroup != nil {
		resp.BloodGroup = p.BloodGroup.String()
	}
	if p.ContactVisible {
		resp.Phone = p.Phone
	}
	return resp
}

// CandidateResponse pairs a profile with its eligibility assessment.
type CandidateResponse struct {
	Profile     *ProfileResponse       `json:"profile"`
	Eligibility eligibility.Assessment `json:"eligibility"`
}

// FromCandidates converts matched candidates to their HTTP shape.
func FromCandidates(cs []donor.Candidate) []CandidateResponse {
	out := make([]CandidateResponse, len(cs))
	for i, c := range cs {
		out[i] = CandidateResponse{
			Profile:     FromProfile(&c.Profile),
			Eligibility: c.Eligibility,
		}
	}
	return out
}

// DonationResponse is the HTTP shape of one donation ledger entry.
type DonationResponse struct {
	ID        string    `json:"id"`
	DonorID   string    `json:"donor_id"`
	Date      time.Time `json:"date"`
	City      string    `json:"city,omitempty"`
	State     string    `json:"state,omitempty"`
	Units     int       `json:"units"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// FromDonation converts a domain donation to its HTTP shape.
func FromDonation(d *donor.Donation) *DonationResponse {
	return &DonationResponse{
		ID:        d.ID.String(),
		DonorID:   d.DonorID.String(),
		Date:      d.Date,
		City:      d.Location.City,
		State:     d.Location.State,
		Units:     d.Units,
		Notes:     d.Notes,
		CreatedAt: d.CreatedAt,
	}
}

// FromDonations converts a donation ledger to its HTTP shape.
func FromDonations(ds []donor.Donation) []DonationResponse {
	out := make([]DonationResponse, len(ds))
	for i := range ds {
		out[i] = *FromDonation(&ds[i])
	}
	return out
}
