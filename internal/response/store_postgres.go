package response

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"lifelink/pkg/domain"
	"lifelink/pkg/platform/sentinel"
)

// PostgresStore is the production implementation of Store. The primary key
// on (requisition_id, donor_id) backs the upsert.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Upsert(ctx context.Context, r *Response) error {
	query := `
		INSERT INTO donor_responses (requisition_id, donor_id, response, message, responded_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (requisition_id, donor_id) DO UPDATE SET
			response = EXCLUDED.response,
			message = EXCLUDED.message,
			responded_at = EXCLUDED.responded_at`

	_, err := s.db.ExecContext(ctx, query,
		r.RequisitionID, r.DonorID, r.Kind, r.Message, r.RespondedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert response: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, requisitionID domain.RequisitionID, donorID domain.DonorID) (*Response, error) {
	query := `
		SELECT requisition_id, donor_id, response, message, responded_at
		FROM donor_responses
		WHERE requisition_id = $1 AND donor_id = $2`

	var r Response
	err := s.db.QueryRowContext(ctx, query, requisitionID, donorID).
		Scan(&r.RequisitionID, &r.DonorID, &r.Kind, &r.Message, &r.RespondedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get response: %w", err)
	}
	return &r, nil
}

func (s *PostgresStore) ListByRequisition(ctx context.Context, requisitionID domain.RequisitionID) ([]Response, error) {
	query := `
		SELECT requisition_id, donor_id, response, message, responded_at
		FROM donor_responses
		WHERE requisition_id = $1
		ORDER BY responded_at, donor_id`

	rows, err := s.db.QueryContext(ctx, query, requisitionID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()

	var out []Response
	for rows.Next() {
		var r Response
		if err := rows.Scan(&r.RequisitionID, &r.DonorID, &r.Kind, &r.Message, &r.RespondedAt); err != nil {
			return nil, fmt.Errorf("list responses: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) CountWilling(ctx context.Context, requisitionID domain.RequisitionID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM donor_responses WHERE requisition_id = $1 AND response = 'WILLING'`,
		requisitionID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count willing responses: %w", err)
	}
	return count, nil
}
