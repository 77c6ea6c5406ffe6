package notify

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"lifelink/pkg/domain"
	"lifelink/pkg/platform/sentinel"
)

const notificationColumns = "requisition_id, donor_id, message, status, retry_eligible, notified_at, updated_at"

// PostgresStore is the production implementation of Store. The primary key
// on (requisition_id, donor_id) provides the insert-once guarantee.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, n *Notification) error {
	query := `
		INSERT INTO donor_notifications (` + notificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.db.ExecContext(ctx, query,
		n.RequisitionID, n.DonorID, n.Message, n.Status, n.RetryEligible, n.NotifiedAt, n.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrDuplicate
		}
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, requisitionID domain.RequisitionID, donorID domain.DonorID) (*Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM donor_notifications
		WHERE requisition_id = $1 AND donor_id = $2`

	row := s.db.QueryRowContext(ctx, query, requisitionID, donorID)
	n, err := scanNotification(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get notification: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) ListByRequisition(ctx context.Context, requisitionID domain.RequisitionID) ([]Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM donor_notifications
		WHERE requisition_id = $1
		ORDER BY notified_at, donor_id`

	return s.list(ctx, query, requisitionID)
}

func (s *PostgresStore) ListByDonor(ctx context.Context, donorID domain.DonorID, offset, limit int) ([]Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM donor_notifications
		WHERE donor_id = $1
		ORDER BY notified_at DESC
		OFFSET $2 LIMIT $3`

	return s.list(ctx, query, donorID, offset, limit)
}

func (s *PostgresStore) ListRetryEligible(ctx context.Context, requisitionID domain.RequisitionID) ([]Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM donor_notifications
		WHERE requisition_id = $1 AND retry_eligible
		ORDER BY notified_at, donor_id`

	return s.list(ctx, query, requisitionID)
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, requisitionID domain.RequisitionID, donorID domain.DonorID, to Status, at time.Time) (bool, error) {
	var from []string
	for _, candidate := range []Status{StatusSent, StatusDelivered} {
		if CanAdvance(candidate, to) {
			from = append(from, string(candidate))
		}
	}
	if len(from) == 0 {
		return false, nil
	}

	query := `
		UPDATE donor_notifications
		SET status = $3, retry_eligible = FALSE, updated_at = $4
		WHERE requisition_id = $1 AND donor_id = $2 AND status = ANY($5)`

	res, err := s.db.ExecContext(ctx, query, requisitionID, donorID, to, at, pq.Array(from))
	if err != nil {
		return false, fmt.Errorf("update notification status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update notification status: %w", err)
	}
	if affected == 0 {
		// Either absent or already advanced; distinguish for the caller.
		if _, err := s.Get(ctx, requisitionID, donorID); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

func (s *PostgresStore) SetRetryEligible(ctx context.Context, requisitionID domain.RequisitionID, donorID domain.DonorID, eligible bool, at time.Time) error {
	query := `
		UPDATE donor_notifications
		SET retry_eligible = $3, updated_at = $4
		WHERE requisition_id = $1 AND donor_id = $2`

	res, err := s.db.ExecContext(ctx, query, requisitionID, donorID, eligible, at)
	if err != nil {
		return fmt.Errorf("set retry flag: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set retry flag: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]Notification, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("list notifications: %w", err)
		}
		out = append(out, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotification(row rowScanner) (*Notification, error) {
	var n Notification
	err := row.Scan(
		&n.RequisitionID, &n.DonorID, &n.Message, &n.Status, &n.RetryEligible, &n.NotifiedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
