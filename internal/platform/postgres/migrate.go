package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied idempotently at startup. Uniqueness on
// donor_notifications(requisition_id, donor_id) is the idempotency boundary
// for notification fan-out; donor_responses carries the matching constraint
// for upsert semantics.
const schema = `
CREATE TABLE IF NOT EXISTS donor_profiles (
	id                 UUID PRIMARY KEY,
	name               TEXT NOT NULL,
	blood_group        TEXT,
	is_blood_donor     BOOLEAN NOT NULL DEFAULT FALSE,
	last_donation_date TIMESTAMPTZ,
	city               TEXT NOT NULL DEFAULT '',
	state              TEXT NOT NULL DEFAULT '',
	contact_visible    BOOLEAN NOT NULL DEFAULT FALSE,
	phone              TEXT NOT NULL DEFAULT '',
	created_at         TIMESTAMPTZ NOT NULL,
	updated_at         TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_donor_profiles_group ON donor_profiles (blood_group) WHERE is_blood_donor;

CREATE TABLE IF NOT EXISTS blood_donations (
	id         UUID PRIMARY KEY,
	donor_id   UUID NOT NULL REFERENCES donor_profiles (id),
	donated_at TIMESTAMPTZ NOT NULL,
	city       TEXT NOT NULL DEFAULT '',
	state      TEXT NOT NULL DEFAULT '',
	units      INT NOT NULL CHECK (units >= 1),
	notes      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_blood_donations_donor ON blood_donations (donor_id, donated_at DESC);

CREATE TABLE IF NOT EXISTS blood_requisitions (
	id                   UUID PRIMARY KEY,
	requester_id         UUID NOT NULL,
	patient_name         TEXT NOT NULL,
	hospital_name        TEXT NOT NULL,
	contact_number       TEXT NOT NULL,
	blood_group          TEXT NOT NULL,
	units_needed         INT NOT NULL CHECK (units_needed >= 1),
	urgency              TEXT NOT NULL,
	city                 TEXT NOT NULL DEFAULT '',
	state                TEXT NOT NULL DEFAULT '',
	required_by          TIMESTAMPTZ NOT NULL,
	allow_contact_reveal BOOLEAN NOT NULL DEFAULT FALSE,
	medical_condition    TEXT NOT NULL DEFAULT '',
	additional_notes     TEXT NOT NULL DEFAULT '',
	status               TEXT NOT NULL,
	willing_donors       INT NOT NULL DEFAULT 0,
	created_at           TIMESTAMPTZ NOT NULL,
	updated_at           TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_requisitions_requester ON blood_requisitions (requester_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_requisitions_active ON blood_requisitions (status, required_by) WHERE status = 'ACTIVE';

CREATE TABLE IF NOT EXISTS donor_notifications (
	requisition_id UUID NOT NULL REFERENCES blood_requisitions (id),
	donor_id       UUID NOT NULL,
	message        TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL,
	retry_eligible BOOLEAN NOT NULL DEFAULT FALSE,
	notified_at    TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (requisition_id, donor_id)
);
CREATE INDEX IF NOT EXISTS idx_donor_notifications_retry ON donor_notifications (requisition_id) WHERE retry_eligible;

CREATE TABLE IF NOT EXISTS donor_responses (
	requisition_id UUID NOT NULL REFERENCES blood_requisitions (id),
	donor_id       UUID NOT NULL,
	response       TEXT NOT NULL,
	message        TEXT NOT NULL DEFAULT '',
	responded_at   TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (requisition_id, donor_id)
);
CREATE INDEX IF NOT EXISTS idx_donor_responses_willing ON donor_responses (requisition_id) WHERE response = 'WILLING';

CREATE TABLE IF NOT EXISTS audit_events (
	id             BIGSERIAL PRIMARY KEY,
	requisition_id UUID,
	actor          TEXT NOT NULL DEFAULT '',
	action         TEXT NOT NULL,
	detail         TEXT NOT NULL DEFAULT '',
	occurred_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_events_requisition ON audit_events (requisition_id, occurred_at);
`

// EnsureSchema applies the schema. Safe to run on every startup.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
