package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS employees (
		id          TEXT PRIMARY KEY,
		full_name   TEXT NOT NULL,
		email       TEXT NOT NULL,
		is_active   BOOLEAN NOT NULL DEFAULT TRUE,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS employees_email_key ON employees (LOWER(email))`,

	`CREATE TABLE IF NOT EXISTS attendance_events (
		id           BIGSERIAL PRIMARY KEY,
		employee_id  TEXT NOT NULL,
		record_date  DATE NOT NULL,
		kind         TEXT NOT NULL,
		occurred_at  TIMESTAMPTZ NOT NULL,
		location     JSONB,
		received_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT attendance_events_dedupe_key UNIQUE (employee_id, record_date, kind, occurred_at)
	)`,

	`CREATE TABLE IF NOT EXISTS daily_attendance_records (
		employee_id              TEXT NOT NULL,
		record_date              DATE NOT NULL,
		status                   TEXT NOT NULL,
		sessions                 JSONB NOT NULL DEFAULT '[]',
		total_work_duration_ms   BIGINT NOT NULL DEFAULT 0,
		total_idle_duration_ms   BIGINT NOT NULL DEFAULT 0,
		total_break_duration_ms  BIGINT NOT NULL DEFAULT 0,
		overtime_ms              BIGINT NOT NULL DEFAULT 0,
		is_delayed               BOOLEAN NOT NULL DEFAULT FALSE,
		delay_minutes            INTEGER NOT NULL DEFAULT 0,
		screenshot_count         INTEGER NOT NULL DEFAULT 0,
		has_open_session         BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at               TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (employee_id, record_date)
	)`,
	`CREATE INDEX IF NOT EXISTS daily_attendance_records_date_idx ON daily_attendance_records (record_date, employee_id)`,
	`CREATE INDEX IF NOT EXISTS daily_attendance_records_open_idx ON daily_attendance_records (employee_id, record_date DESC) WHERE has_open_session`,

	`CREATE TABLE IF NOT EXISTS attendance_requests (
		id                TEXT PRIMARY KEY,
		employee_id       TEXT NOT NULL,
		kind              TEXT NOT NULL,
		requested_at      TIMESTAMPTZ NOT NULL,
		status            TEXT NOT NULL,
		reason            TEXT NOT NULL DEFAULT '',
		processed_at      TIMESTAMPTZ,
		processed_by      TEXT,
		admin_notes       TEXT,
		break_name        TEXT,
		duration_minutes  INTEGER
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS attendance_requests_one_pending_idx ON attendance_requests (employee_id, kind) WHERE status = 'pending'`,
	`CREATE INDEX IF NOT EXISTS attendance_requests_kind_idx ON attendance_requests (kind, requested_at DESC)`,

	`CREATE TABLE IF NOT EXISTS app_settings (
		id          SMALLINT PRIMARY KEY CHECK (id = 1),
		data        JSONB NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL
	)`,
}

// EnsureSchema creates the engine's tables and indexes when they are missing.
func EnsureSchema(ctx context.Context, db *database.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
