package donor

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"lifelink/internal/bloodtype"
	"lifelink/pkg/domain"
	"lifelink/pkg/platform/sentinel"
)

// PostgresStore persists donor profiles and the donation ledger in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) UpsertProfile(ctx context.Context, p Profile) error {
	query := `
		INSERT INTO donor_profiles (id, name, blood_group, is_blood_donor, last_donation_date, city, state, contact_visible, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			blood_group = EXCLUDED.blood_group,
			is_blood_donor = EXCLUDED.is_blood_donor,
			last_donation_date = EXCLUDED.last_donation_date,
			city = EXCLUDED.city,
			state = EXCLUDED.state,
			contact_visible = EXCLUDED.contact_visible,
			phone = EXCLUDED.phone,
			updated_at = EXCLUDED.updated_at
	`
	var group *string
	if p.BloodGroup != nil {
		g := p.BloodGroup.String()
		group = &g
	}
	_, err := s.db.ExecContext(ctx, query,
		p.ID.String(), p.Name, group, p.IsBloodDonor, p.LastDonationDate,
		p.Location.City, p.Location.State, p.ContactVisible, p.Phone,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert donor profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetProfile(ctx context.Context, id domain.DonorID) (*Profile, error) {
	query := `
		SELECT id, name, blood_group, is_blood_donor, last_donation_date, city, state, contact_visible, phone, created_at, updated_at
		FROM donor_profiles
		WHERE id = $1
	`
	profile, err := scanProfile(s.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get donor profile: %w", err)
	}
	return profile, nil
}

func (s *PostgresStore) FindByGroups(ctx context.Context, groups []bloodtype.Group) ([]Profile, error) {
	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = g.String()
	}
	query := `
		SELECT id, name, blood_group, is_blood_donor, last_donation_date, city, state, contact_visible, phone, created_at, updated_at
		FROM donor_profiles
		WHERE is_blood_donor AND blood_group = ANY($1)
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query, pq.Array(names))
	if err != nil {
		return nil, fmt.Errorf("find donors by group: %w", err)
	}
	defer rows.Close()

	var out []Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan donor profile: %w", err)
		}
		out = append(out, *profile)
	}
	return out, rows.Err()
}

func (s *PostgresStore) RecordDonation(ctx context.Context, d Donation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record donation: %w", err)
	}
	defer tx.Rollback()

	insert := `
		INSERT INTO blood_donations (id, donor_id, donated_at, city, state, units, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if _, err := tx.ExecContext(ctx, insert,
		d.ID.String(), d.DonorID.String(), d.Date,
		d.Location.City, d.Location.State, d.Units, d.Notes, d.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert donation: %w", err)
	}

	// GREATEST keeps the derived date at max(donated_at) even when older
	// donations are backfilled out of order.
	advance := `
		UPDATE donor_profiles
		SET last_donation_date = GREATEST(COALESCE(last_donation_date, $2), $2),
		    updated_at = $3
		WHERE id = $1
	`
	result, err := tx.ExecContext(ctx, advance, d.DonorID.String(), d.Date, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("advance last donation date: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("advance last donation date: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}

	return tx.Commit()
}

func (s *PostgresStore) ListDonations(ctx context.Context, donorID domain.DonorID) ([]Donation, error) {
	query := `
		SELECT id, donor_id, donated_at, city, state, units, notes, created_at
		FROM blood_donations
		WHERE donor_id = $1
		ORDER BY donated_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, donorID.String())
	if err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}
	defer rows.Close()

	var out []Donation
	for rows.Next() {
		var (
			d                 Donation
			idRaw, donorIDRaw string
		)
		if err := rows.Scan(&idRaw, &donorIDRaw, &d.Date, &d.Location.City, &d.Location.State, &d.Units, &d.Notes, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan donation: %w", err)
		}
		donationID, err := parseDonationID(idRaw)
		if err != nil {
			return nil, err
		}
		donorID, err := domain.ParseDonorID(donorIDRaw)
		if err != nil {
			return nil, err
		}
		d.ID = donationID
		d.DonorID = donorID
		out = append(out, d)
	}
	return out, rows.Err()
}

func parseDonationID(raw string) (domain.DonationID, error) {
	// Donation IDs only cross this boundary coming from our own inserts.
	donorStyle, err := domain.ParseDonorID(raw)
	if err != nil {
		return domain.DonationID{}, fmt.Errorf("scan donation id: %w", err)
	}
	return domain.DonationID(donorStyle), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*Profile, error) {
	var (
		p            Profile
		idRaw        string
		group        sql.NullString
		lastDonation sql.NullTime
	)
	err := row.Scan(&idRaw, &p.Name, &group, &p.IsBloodDonor, &lastDonation,
		&p.Location.City, &p.Location.State, &p.ContactVisible, &p.Phone,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if lastDonation.Valid {
		t := lastDonation.Time
		p.LastDonationDate = &t
	}
	id, err := domain.ParseDonorID(idRaw)
	if err != nil {
		return nil, err
	}
	p.ID = id
	if group.Valid {
		parsed, err := bloodtype.Parse(group.String)
		if err != nil {
			return nil, err
		}
		p.BloodGroup = &parsed
	}
	return &p, nil
}
