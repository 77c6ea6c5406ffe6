package handler

import (
	"time"

	donorhandler "lifelink/internal/donor/handler"
	"lifelink/internal/match"
	"lifelink/internal/requisition"
)

// RequisitionResponse is the HTTP shape of a requisition. The contact number
// is omitted unless the requester allowed contact reveal.
type RequisitionResponse struct {
	ID               string    `json:"id"`
	RequesterID      string    `json:"requester_id"`
	PatientName      string    `json:"patient_name"`
	HospitalName     string    `json:"hospital_name"`
	ContactNumber    string    `json:"contact_number,omitempty"`
	BloodGroup       string    `json:"blood_group"`
	UnitsNeeded      int       `json:"units_needed"`
	Urgency          string    `json:"urgency"`
	City             string    `json:"city,omitempty"`
	State            string    `json:"state,omitempty"`
	RequiredBy       time.Time `json:"required_by"`
	MedicalCondition string    `json:"medical_condition,omitempty"`
	AdditionalNotes  string    `json:"additional_notes,omitempty"`
	Status           string    `json:"status"`
	WillingDonors    int       `json:"willing_donors"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// FromRequisition converts a domain requisition to its HTTP shape.
func FromRequisition(r *requisition.Requisition) *RequisitionResponse {
	resp := &RequisitionResponse{
		ID:               r.ID.String(),
		RequesterID:      r.RequesterID.String(),
		PatientName:      r.PatientName,
		HospitalName:     r.HospitalName,
		BloodGroup:       r.BloodGroup.String(),
		UnitsNeeded:      r.UnitsNeeded,
		Urgency:          string(r.Urgency),
		City:             r.Location.City,
		State:            r.Location.State,
		RequiredBy:       r.RequiredBy,
		MedicalCondition: r.MedicalCondition,
		AdditionalNotes:  r.AdditionalNotes,
		Status:           string(r.Status),
		WillingDonors:    r.WillingDonors,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
	if r.AllowContactReveal {
		resp.ContactNumber = r.ContactNumber
	}
	return resp
}

// FromRequisitions converts a list of requisitions to their HTTP shape.
func FromRequisitions(rs []requisition.Requisition) []RequisitionResponse {
	out := make([]RequisitionResponse, len(rs))
	for i := range rs {
		out[i] = *FromRequisition(&rs[i])
	}
	return out
}

// MatchResponse is the HTTP response for POST /requisitions/{id}/match.
type MatchResponse struct {
	Candidates []donorhandler.CandidateResponse `json:"candidates"`
	Notified   int                              `json:"notified"`
	Skipped    int                              `json:"skipped"`
	Failed     int                              `json:"failed"`
}

// FromMatchResult converts a matching run outcome to its HTTP shape.
func FromMatchResult(res *match.Result) *MatchResponse {
	return &MatchResponse{
		Candidates: donorhandler.FromCandidates(res.Candidates),
		Notified:   res.Notify.Notified,
		Skipped:    res.Notify.Skipped,
		Failed:     res.Notify.Failed,
	}
}
