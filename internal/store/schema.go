package store

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is idempotent. The partial unique index keeps one active sequence per
// organization and type, and InsertSequenceIfAbsent conflicts on it.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS contacts (
		id                 TEXT PRIMARY KEY,
		organization_id    TEXT NOT NULL,
		first_name         TEXT NOT NULL DEFAULT '',
		last_name          TEXT NOT NULL DEFAULT '',
		email              TEXT NOT NULL DEFAULT '',
		phone              TEXT NOT NULL DEFAULT '',
		status             TEXT NOT NULL DEFAULT 'new',
		source             TEXT NOT NULL DEFAULT '',
		budget             TEXT,
		preferred_location TEXT,
		property_type      TEXT,
		tags               TEXT[] NOT NULL DEFAULT '{}',
		last_activity      TIMESTAMPTZ,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS contacts_org_email_idx ON contacts (organization_id, lower(email))`,

	`CREATE TABLE IF NOT EXISTS leads (
		id                  TEXT PRIMARY KEY,
		organization_id     TEXT NOT NULL,
		contact_id          TEXT REFERENCES contacts (id),
		title               TEXT NOT NULL,
		stage               TEXT NOT NULL,
		probability_percent INTEGER NOT NULL DEFAULT 0,
		property_value      NUMERIC,
		expected_close_date TIMESTAMPTZ,
		notes               TEXT NOT NULL DEFAULT '',
		source              TEXT NOT NULL DEFAULT '',
		tags                TEXT[] NOT NULL DEFAULT '{}',
		created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS leads_org_idx ON leads (organization_id)`,

	`CREATE TABLE IF NOT EXISTS tasks (
		id              TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		title           TEXT NOT NULL,
		description     TEXT NOT NULL DEFAULT '',
		priority        TEXT NOT NULL,
		due_at          TIMESTAMPTZ NOT NULL,
		status          TEXT NOT NULL,
		contact_id      TEXT,
		lead_id         TEXT,
		created_by      TEXT NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS email_threads (
		id              TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		subject         TEXT NOT NULL DEFAULT '',
		participants    JSONB NOT NULL DEFAULT '[]',
		contact_id      TEXT,
		analysis        JSONB
	)`,

	`CREATE TABLE IF NOT EXISTS nurturing_sequences (
		id              TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		name            TEXT NOT NULL,
		sequence_type   TEXT NOT NULL,
		trigger_event   TEXT NOT NULL,
		steps           JSONB NOT NULL,
		is_active       BOOLEAN NOT NULL DEFAULT true,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS nurturing_sequences_one_active_idx
		ON nurturing_sequences (organization_id, sequence_type) WHERE is_active`,

	`CREATE TABLE IF NOT EXISTS sequence_executions (
		id              TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		sequence_id     TEXT NOT NULL REFERENCES nurturing_sequences (id),
		contact_id      TEXT,
		lead_id         TEXT,
		email_thread_id TEXT,
		status          TEXT NOT NULL,
		current_step    INTEGER NOT NULL DEFAULT 0,
		next_action_at  TIMESTAMPTZ NOT NULL,
		customizations  JSONB NOT NULL DEFAULT '{}',
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS sequence_executions_due_idx
		ON sequence_executions (next_action_at) WHERE status = 'active'`,
}

// Migrate creates any missing tables and indexes.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
