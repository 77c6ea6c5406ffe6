package handler

import (
	"strings"
	"time"

	"lifelink/internal/bloodtype"
	"lifelink/internal/requisition"
	"lifelink/pkg/domain"
	dErrors "lifelink/pkg/domain-errors"
)

// CreateRequest is the HTTP request body for POST /requisitions.
type CreateRequest struct {
	RequesterID        string `json:"requester_id"`
	PatientName        string `json:"patient_name"`
	HospitalName       string `json:"hospital_name"`
	ContactNumber      string `json:"contact_number"`
	BloodGroup         string `json:"blood_group"`
	UnitsNeeded        int    `json:"units_needed"`
	Urgency            string `json:"urgency,omitempty"`
	City               string `json:"city,omitempty"`
	State              string `json:"state,omitempty"`
	RequiredBy         string `json:"required_by"`
	AllowContactReveal bool   `json:"allow_contact_reveal"`
	MedicalCondition   string `json:"medical_condition,omitempty"`
	AdditionalNotes    string `json:"additional_notes,omitempty"`

	parsedRequester  domain.RequesterID
	parsedGroup      bloodtype.Group
	parsedUrgency    requisition.Urgency
	parsedRequiredBy time.Time
}

// Validate parses and validates the request.
func (r *CreateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	requesterID, err := domain.ParseRequesterID(strings.TrimSpace(r.RequesterID))
	if err != nil {
		return err
	}
	r.parsedRequester = requesterID

	group, err := bloodtype.Parse(r.BloodGroup)
	if err != nil {
		return err
	}
	r.parsedGroup = group

	urgency, err := requisition.ParseUrgency(r.Urgency)
	if err != nil {
		return err
	}
	r.parsedUrgency = urgency

	if r.RequiredBy == "" {
		return dErrors.New(dErrors.CodeValidation, "required_by is required")
	}
	requiredBy, err := time.Parse(time.RFC3339, r.RequiredBy)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "required_by must be RFC 3339")
	}
	r.parsedRequiredBy = requiredBy
	return nil
}

// Input builds the service-level create input.
func (r *CreateRequest) Input() requisition.CreateInput {
	return requisition.CreateInput{
		RequesterID:        r.parsedRequester,
		PatientName:        r.PatientName,
		HospitalName:       r.HospitalName,
		ContactNumber:      r.ContactNumber,
		BloodGroup:         r.parsedGroup,
		UnitsNeeded:        r.UnitsNeeded,
		Urgency:            r.parsedUrgency,
		Location:           domain.Location{City: strings.TrimSpace(r.City), State: strings.TrimSpace(r.State)},
		RequiredBy:         r.parsedRequiredBy,
		AllowContactReveal: r.AllowContactReveal,
		MedicalCondition:   r.MedicalCondition,
		AdditionalNotes:    r.AdditionalNotes,
	}
}

// TransitionRequest is the body for POST /requisitions/{id}/cancel and
// /requisitions/{id}/fulfill. The requester proves ownership by ID until an
// auth layer fronts the service.
type TransitionRequest struct {
	RequesterID string `json:"requester_id"`

	parsedRequester domain.RequesterID
}

// Validate parses and validates the request.
func (r *TransitionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	requesterID, err := domain.ParseRequesterID(strings.TrimSpace(r.RequesterID))
	if err != nil {
		return err
	}
	r.parsedRequester = requesterID
	return nil
}

// ParsedRequesterID returns the validated requester ID.
func (r *TransitionRequest) ParsedRequesterID() domain.RequesterID { return r.parsedRequester }

// MatchRequest is the optional body for POST /requisitions/{id}/match. An
// empty message falls back to the standard alert text.
type MatchRequest struct {
	Message string `json:"message"`
}
