package requisition

import (
	"time"

	"lifelink/internal/bloodtype"
	"lifelink/pkg/domain"
	dErrors "lifelink/pkg/domain-errors"
)

// Status is the requisition lifecycle state. ACTIVE is the only initial
// state; the other three are terminal.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusFulfilled Status = "FULFILLED"
	StatusCancelled Status = "CANCELLED"
	StatusExpired   Status = "EXPIRED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusFulfilled, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// Terminal reports whether no transition out of s is permitted.
func (s Status) Terminal() bool { return s.Valid() && s != StatusActive }

// CanTransition reports whether from→to is a legal lifecycle edge.
func CanTransition(from, to Status) bool {
	if from != StatusActive {
		return false
	}
	switch to {
	case StatusFulfilled, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// Urgency is the requester-declared priority of a requisition.
type Urgency string

const (
	UrgencyLow    Urgency = "LOW"
	UrgencyMedium Urgency = "MEDIUM"
	UrgencyHigh   Urgency = "HIGH"
)

// ParseUrgency converts the wire form, defaulting empty input to MEDIUM.
func ParseUrgency(raw string) (Urgency, error) {
	switch Urgency(raw) {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
		return Urgency(raw), nil
	case "":
		return UrgencyMedium, nil
	}
	return "", dErrors.Newf(dErrors.CodeValidation, "unknown urgency level %q", raw)
}

// Requisition is an emergency request for blood. After creation only Status
// and the derived WillingDonors counter change; records are never deleted,
// they only reach a terminal status.
type Requisition struct {
	ID                 domain.RequisitionID
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
	Status             Status
	WillingDonors      int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// FulfillmentPolicy decides when willing responses satisfy a requisition.
// Kept configurable: the threshold question (auto at units-needed vs manual
// only) is a product decision, not a hardcoded assumption.
type FulfillmentPolicy struct {
	// Auto enables automatic ACTIVE→FULFILLED once the threshold is met.
	Auto bool
	// Threshold overrides the willing-donor count that satisfies a
	// requisition; zero means "units needed".
	Threshold int
}

// ThresholdFor returns the willing-donor count that satisfies r.
func (p FulfillmentPolicy) ThresholdFor(r *Requisition) int {
	if p.Threshold > 0 {
		return p.Threshold
	}
	return r.UnitsNeeded
}
