package requisition

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"lifelink/internal/bloodtype"
	"lifelink/pkg/domain"
	"lifelink/pkg/platform/sentinel"
)

// PostgresStore persists requisitions in PostgreSQL. TransitionStatus uses a
// conditional UPDATE so the status compare-and-set happens inside the
// database, not in application memory.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const requisitionColumns = `id, requester_id, patient_name, hospital_name, contact_number, blood_group,
	units_needed, urgency, city, state, required_by, allow_contact_reveal,
	medical_condition, additional_notes, status, willing_donors, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, r *Requisition) error {
	query := `
		INSERT INTO blood_requisitions (` + requisitionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`
	_, err := s.db.ExecContext(ctx, query,
		r.ID.String(), r.RequesterID.String(), r.PatientName, r.HospitalName, r.ContactNumber,
		r.BloodGroup.String(), r.UnitsNeeded, string(r.Urgency), r.Location.City, r.Location.State,
		r.RequiredBy, r.AllowContactReveal, r.MedicalCondition, r.AdditionalNotes,
		string(r.Status), r.WillingDonors, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrDuplicate
		}
		return fmt.Errorf("create requisition: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id domain.RequisitionID) (*Requisition, error) {
	query := `SELECT ` + requisitionColumns + ` FROM blood_requisitions WHERE id = $1`
	r, err := scanRequisition(s.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get requisition: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) ListByRequester(ctx context.Context, requesterID domain.RequesterID, offset, limit int) ([]Requisition, error) {
	query := `
		SELECT ` + requisitionColumns + `
		FROM blood_requisitions
		WHERE requester_id = $1
		ORDER BY created_at DESC, id
		OFFSET $2 LIMIT $3
	`
	return s.queryMany(ctx, query, requesterID.String(), offset, limit)
}

func (s *PostgresStore) ListActiveCompatible(ctx context.Context, groups []bloodtype.Group, location string, offset, limit int) ([]Requisition, error) {
	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = g.String()
	}
	query := `
		SELECT ` + requisitionColumns + `
		FROM blood_requisitions
		WHERE status = 'ACTIVE'
		  AND blood_group = ANY($1)
		  AND ($2 = '' OR city ILIKE '%' || $2 || '%' OR state ILIKE '%' || $2 || '%')
		ORDER BY created_at DESC, id
		OFFSET $3 LIMIT $4
	`
	return s.queryMany(ctx, query, pq.Array(names), location, offset, limit)
}

func (s *PostgresStore) ListExpiredActive(ctx context.Context, now time.Time) ([]Requisition, error) {
	query := `
		SELECT ` + requisitionColumns + `
		FROM blood_requisitions
		WHERE status = 'ACTIVE' AND required_by < $1
		ORDER BY required_by
	`
	return s.queryMany(ctx, query, now)
}

func (s *PostgresStore) TransitionStatus(ctx context.Context, id domain.RequisitionID, from, to Status, at time.Time) (bool, error) {
	query := `
		UPDATE blood_requisitions
		SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2
	`
	result, err := s.db.ExecContext(ctx, query, id.String(), string(from), string(to), at)
	if err != nil {
		return false, fmt.Errorf("transition requisition status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition requisition status: %w", err)
	}
	if affected == 0 {
		// Distinguish "lost the race" from "no such requisition".
		var exists bool
		if err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM blood_requisitions WHERE id = $1)`, id.String(),
		).Scan(&exists); err != nil {
			return false, fmt.Errorf("transition requisition status: %w", err)
		}
		if !exists {
			return false, sentinel.ErrNotFound
		}
		return false, nil
	}
	return true, nil
}

// SetWillingDonors row-locks the requisition for the duration of the
// recount. Concurrent count writes queue on the lock, so the last writer is
// also the last counter and the stored value tracks the committed rows.
func (s *PostgresStore) SetWillingDonors(ctx context.Context, id domain.RequisitionID, recount RecountFunc, at time.Time) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("set willing donors: %w", err)
	}
	defer tx.Rollback()

	var current int
	err = tx.QueryRowContext(ctx,
		`SELECT willing_donors FROM blood_requisitions WHERE id = $1 FOR UPDATE`,
		id.String(),
	).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, sentinel.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("set willing donors: %w", err)
	}

	count, err := recount(ctx)
	if err != nil {
		return 0, fmt.Errorf("recount willing donors: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE blood_requisitions SET willing_donors = $2, updated_at = $3 WHERE id = $1`,
		id.String(), count, at,
	); err != nil {
		return 0, fmt.Errorf("set willing donors: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("set willing donors: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) queryMany(ctx context.Context, query string, args ...any) ([]Requisition, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query requisitions: %w", err)
	}
	defer rows.Close()

	var out []Requisition
	for rows.Next() {
		r, err := scanRequisition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan requisition: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequisition(row rowScanner) (*Requisition, error) {
	var (
		r                          Requisition
		idRaw, requesterRaw, group string
		urgency, status            string
	)
	err := row.Scan(&idRaw, &requesterRaw, &r.PatientName, &r.HospitalName, &r.ContactNumber, &group,
		&r.UnitsNeeded, &urgency, &r.Location.City, &r.Location.State, &r.RequiredBy, &r.AllowContactReveal,
		&r.MedicalCondition, &r.AdditionalNotes, &status, &r.WillingDonors, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}

	id, err := domain.ParseRequisitionID(idRaw)
	if err != nil {
		return nil, err
	}
	requesterID, err := domain.ParseRequesterID(requesterRaw)
	if err != nil {
		return nil, err
	}
	parsedGroup, err := bloodtype.Parse(group)
	if err != nil {
		return nil, err
	}

	r.ID = id
	r.RequesterID = requesterID
	r.BloodGroup = parsedGroup
	r.Urgency = Urgency(urgency)
	r.Status = Status(status)
	return &r, nil
}
