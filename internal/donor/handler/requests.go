package handler

import (
	"strings"
	"time"

	"lifelink/internal/bloodtype"
	"lifelink/internal/donor"
	"lifelink/pkg/domain"
	dErrors "lifelink/pkg/domain-errors"
)

// SaveProfileRequest is the HTTP request body for PUT /donors/{donorID}.
type SaveProfileRequest struct {
	Name             string  `json:"name"`
	BloodGroup       string  `json:"blood_group,omitempty"`
	IsBloodDonor     bool    `json:"is_blood_donor"`
	LastDonationDate *string `json:"last_donation_date,omitempty"`
	City             string  `json:"city,omitempty"`
	State            string  `json:"state,omitempty"`
	ContactVisible   bool    `json:"contact_visible"`
	Phone            string  `json:"phone,omitempty"`

	parsedGroup    *bloodtype.Group
	parsedLastDate *time.Time
}

// Validate parses and validates the request.
func (r *SaveProfileRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}

	if r.BloodGroup != "" {
		group, err := bloodtype.Parse(r.BloodGroup)
		if err != nil {
			return err
		}
		r.parsedGroup = &group
	}

	if r.LastDonationDate != nil {
		parsed, err := time.Parse(time.RFC3339, *r.LastDonationDate)
		if err != nil {
			return dErrors.New(dErrors.CodeValidation, "last_donation_date must be RFC 3339")
		}
		r.parsedLastDate = &parsed
	}
	return nil
}

// Profile builds the domain profile for the given donor ID.
func (r *SaveProfileRequest) Profile(id domain.DonorID) donor.Profile {
	return donor.Profile{
		ID:               id,
		Name:             r.Name,
		BloodGroup:       r.parsedGroup,
		IsBloodDonor:     r.IsBloodDonor,
		LastDonationDate: r.parsedLastDate,
		Location:         domain.Location{City: strings.TrimSpace(r.City), State: strings.TrimSpace(r.State)},
		ContactVisible:   r.ContactVisible,
		Phone:            strings.TrimSpace(r.Phone),
	}
}

// RecordDonationRequest is the body for POST /donors/{donorID}/donations.
type RecordDonationRequest struct {
	Date  string `json:"date"`
	City  string `json:"city,omitempty"`
	State string `json:"state,omitempty"`
	Units int    `json:"units"`
	Notes string `json:"notes,omitempty"`

	parsedDate time.Time
}

// Validate parses and validates the request.
func (r *RecordDonationRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Date == "" {
		return dErrors.New(dErrors.CodeValidation, "date is required")
	}
	parsed, err := time.Parse(time.RFC3339, r.Date)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "date must be RFC 3339")
	}
	r.parsedDate = parsed

	if r.Units < 1 {
		return dErrors.New(dErrors.CodeValidation, "units must be at least 1")
	}
	return nil
}

// ParsedDate returns the validated donation date.
func (r *RecordDonationRequest) ParsedDate() time.Time { return r.parsedDate }

// Location builds the donation location.
func (r *RecordDonationRequest) Location() domain.Location {
	return domain.Location{City: strings.TrimSpace(r.City), State: strings.TrimSpace(r.State)}
}
