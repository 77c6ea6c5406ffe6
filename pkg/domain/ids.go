// Package domain holds the typed identifiers and small value types shared
// across LifeLink modules. Distinct ID types keep a donor ID from ever being
// passed where a requisition ID is expected; the compiler enforces it.
package domain

import (
	"github.com/google/uuid"

	dErrors "lifelink/pkg/domain-errors"
)

type (
	// DonorID identifies a donor profile.
	DonorID uuid.UUID
	// RequesterID identifies the person who opened a requisition.
	RequesterID uuid.UUID
	// RequisitionID identifies an emergency blood requisition.
	RequisitionID uuid.UUID
	// DonationID identifies one entry in a donor's donation ledger.
	DonationID uuid.UUID
)

// NewDonorID returns a fresh random donor ID.
func NewDonorID() DonorID { return DonorID(uuid.New()) }

// NewRequesterID returns a fresh random requester ID.
func NewRequesterID() RequesterID { return RequesterID(uuid.New()) }

// NewRequisitionID returns a fresh random requisition ID.
func NewRequisitionID() RequisitionID { return RequisitionID(uuid.New()) }

// NewDonationID returns a fresh random donation ID.
func NewDonationID() DonationID { return DonationID(uuid.New()) }

func (id DonorID) String() string       { return uuid.UUID(id).String() }
func (id RequesterID) String() string   { return uuid.UUID(id).String() }
func (id RequisitionID) String() string { return uuid.UUID(id).String() }
func (id DonationID) String() string    { return uuid.UUID(id).String() }

// MarshalText renders IDs in canonical UUID form for JSON and cache payloads.
func (id DonorID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }
func (id RequesterID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }
func (id RequisitionID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id DonationID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }

func (id *DonorID) UnmarshalText(text []byte) error {
	parsed, err := ParseDonorID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *RequesterID) UnmarshalText(text []byte) error {
	parsed, err := ParseRequesterID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *RequisitionID) UnmarshalText(text []byte) error {
	parsed, err := ParseRequisitionID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *DonationID) UnmarshalText(text []byte) error {
	parsed, err := parseUUID(string(text), "donation_id")
	if err != nil {
		return err
	}
	*id = DonationID(parsed)
	return nil
}

func (id DonorID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id RequesterID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id RequisitionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id DonationID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// parseUUID enforces the invariant that IDs must be valid, non-nil UUIDs.
// Applied at trust boundaries (HTTP decode, store scans).
func parseUUID(raw, kind string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is required", kind)
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s must be a valid UUID", kind)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s must not be the nil UUID", kind)
	}
	return parsed, nil
}

// ParseDonorID parses and validates a donor ID from its string form.
func ParseDonorID(raw string) (DonorID, error) {
	parsed, err := parseUUID(raw, "donor_id")
	return DonorID(parsed), err
}

// ParseRequesterID parses and validates a requester ID from its string form.
func ParseRequesterID(raw string) (RequesterID, error) {
	parsed, err := parseUUID(raw, "requester_id")
	return RequesterID(parsed), err
}

// ParseRequisitionID parses and validates a requisition ID from its string form.
func ParseRequisitionID(raw string) (RequisitionID, error) {
	parsed, err := parseUUID(raw, "requisition_id")
	return RequisitionID(parsed), err
}
