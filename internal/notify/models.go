package notify

import (
	"time"

	"lifelink/pkg/domain"
	dErrors "lifelink/pkg/domain-errors"
)

// Status tracks how far an individual donor alert has progressed. The
// sequence is strictly SENT→DELIVERED→READ; status never moves backwards.
type Status string

const (
	StatusSent      Status = "SENT"
	StatusDelivered Status = "DELIVERED"
	StatusRead      Status = "READ"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusSent, StatusDelivered, StatusRead:
		return true
	}
	return false
}

// rank orders statuses for the monotonic-advance check.
func (s Status) rank() int {
	switch s {
	case StatusSent:
		return 0
	case StatusDelivered:
		return 1
	case StatusRead:
		return 2
	}
	return -1
}

// CanAdvance reports whether from→to moves strictly forward.
func CanAdvance(from, to Status) bool {
	return from.rank() >= 0 && to.rank() > from.rank()
}

// ParseStatus converts the wire form.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown notification status %q", raw)
	}
	return s, nil
}

// Notification records that one donor was alerted about one requisition.
// The (requisition, donor) pair is unique: repeat matching rounds for the
// same requisition never produce duplicate alerts.
type Notification struct {
	RequisitionID domain.RequisitionID
	DonorID       domain.DonorID
	// Message is the alert text sent to the donor, persisted so retries
	// and the donor's notification feed replay exactly what went out.
	Message string
	Status  Status
	// RetryEligible marks records whose dispatch failed after the row was
	// written; a later retry pass re-sends without creating a new row.
	RetryEligible bool
	NotifiedAt    time.Time
	UpdatedAt     time.Time
}
