package domain

import (
	"database/sql/driver"

	"github.com/google/uuid"
)

// database/sql support. IDs travel as their canonical string form so the
// postgres UUID columns and test fixtures stay human-readable.

func (id DonorID) Value() (driver.Value, error)       { return id.String(), nil }
func (id RequesterID) Value() (driver.Value, error)   { return id.String(), nil }
func (id RequisitionID) Value() (driver.Value, error) { return id.String(), nil }
func (id DonationID) Value() (driver.Value, error)    { return id.String(), nil }

func (id *DonorID) Scan(src any) error {
	u := uuid.UUID(*id)
	if err := u.Scan(src); err != nil {
		return err
	}
	*id = DonorID(u)
	return nil
}

func (id *RequesterID) Scan(src any) error {
	u := uuid.UUID(*id)
	if err := u.Scan(src); err != nil {
		return err
	}
	*id = RequesterID(u)
	return nil
}

func (id *RequisitionID) Scan(src any) error {
	u := uuid.UUID(*id)
	if err := u.Scan(src); err != nil {
		return err
	}
	*id = RequisitionID(u)
	return nil
}

func (id *DonationID) Scan(src any) error {
	u := uuid.UUID(*id)
	if err := u.Scan(src); err != nil {
		return err
	}
	*id = DonationID(u)
	return nil
}
