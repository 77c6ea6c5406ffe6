package response

import (
	"time"

	"lifelink/pkg/domain"
	dErrors "lifelink/pkg/domain-errors"
)

// Kind is a donor's answer to an alert. Donors may change their answer;
// the latest one wins.
type Kind string

const (
	Willing      Kind = "WILLING"
	NotAvailable Kind = "NOT_AVAILABLE"
	NotSuitable  Kind = "NOT_SUITABLE"
)

// Valid reports whether k is a known response kind.
func (k Kind) Valid() bool {
	switch k {
	case Willing, NotAvailable, NotSuitable:
		return true
	}
	return false
}

// ParseKind converts the wire form.
func ParseKind(raw string) (Kind, error) {
	k := Kind(raw)
	if !k.Valid() {
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown response %q", raw)
	}
	return k, nil
}

// Response is a donor's current answer for one requisition. One row per
// (requisition, donor) pair; re-answering overwrites in place.
type Response struct {
	RequisitionID domain.RequisitionID
	DonorID       domain.DonorID
	Kind          Kind
	Message       string
	RespondedAt   time.Time
}
