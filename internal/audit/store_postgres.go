package audit

import (
	"context"
	"database/sql"
	"fmt"

	"lifelink/pkg/domain"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, e Event) error {
	query := `
		INSERT INTO audit_events (requisition_id, actor, action, detail, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	var reqID any
	if !e.RequisitionID.IsNil() {
		reqID = e.RequisitionID.String()
	}
	if _, err := s.db.ExecContext(ctx, query, reqID, e.Actor, string(e.Action), e.Detail, e.Timestamp); err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByRequisition(ctx context.Context, id domain.RequisitionID) ([]Event, error) {
	query := `
		SELECT COALESCE(requisition_id::text, ''), actor, action, detail, occurred_at
		FROM audit_events
		WHERE requisition_id = $1
		ORDER BY occurred_at, id
	`
	rows, err := s.db.QueryContext(ctx, query, id.String())
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			e      Event
			reqRaw string
			action string
		)
		if err := rows.Scan(&reqRaw, &e.Actor, &action, &e.Detail, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		if reqRaw != "" {
			parsed, err := domain.ParseRequisitionID(reqRaw)
			if err != nil {
				return nil, err
			}
			e.RequisitionID = parsed
		}
		e.Action = Action(action)
		out = append(out, e)
	}
	return out, rows.Err()
}
