package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
)

type attendanceRepositoryImpl struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.DailyRecordRepository {
	return &attendanceRepositoryImpl{db: db}
}

// WithinDay implements attendance.DailyRecordRepository. The transaction holds an
// advisory lock on the day key, so other engine instances writing the same day wait.
func (r *attendanceRepositoryImpl) WithinDay(ctx context.Context, employeeID string, date string, fn func(ctx context.Context) error) error {
	return WithTransaction(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, employeeID+"|"+date); err != nil {
			return fmt.Errorf("failed to lock attendance day: %w", err)
		}
		return fn(ContextWithTx(ctx, tx))
	})
}

// AppendEvent implements attendance.DailyRecordRepository.
func (r *attendanceRepositoryImpl) AppendEvent(ctx context.Context, date string, e attendance.Event) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var location []byte
	if e.Location != nil {
		var err error
		location, err = json.Marshal(e.Location)
		if err != nil {
			return false, fmt.Errorf("failed to encode event location: %w", err)
		}
	}

	query := `
		INSERT INTO attendance_events (employee_id, record_date, kind, occurred_at, location)
		VALUES ($1, $2::date, $3, $4, $5)
		ON CONFLICT ON CONSTRAINT attendance_events_dedupe_key DO NOTHING
	`
	tag, err := q.Exec(ctx, query, e.EmployeeID, date, string(e.Kind), e.Timestamp.UTC(), location)
	if err != nil {
		return false, fmt.Errorf("failed to insert attendance event: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListEvents implements attendance.DailyRecordRepository.
func (r *attendanceRepositoryImpl) ListEvents(ctx context.Context, employeeID string, date string) ([]attendance.Event, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT kind, occurred_at, location
		FROM attendance_events
		WHERE employee_id = $1 AND record_date = $2::date
		ORDER BY id
	`
	rows, err := q.Query(ctx, query, employeeID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance events: %w", err)
	}
	defer rows.Close()

	events := []attendance.Event{}
	for rows.Next() {
		var (
			e        attendance.Event
			kind     string
			location []byte
		)
		if err := rows.Scan(&kind, &e.Timestamp, &location); err != nil {
			return nil, fmt.Errorf("failed to scan attendance event: %w", err)
		}
		e.EmployeeID = employeeID
		e.Kind = attendance.EventKind(kind)
		e.Timestamp = e.Timestamp.UTC()
		if len(location) > 0 {
			e.Location = &attendance.Location{}
			if err := json.Unmarshal(location, e.Location); err != nil {
				return nil, fmt.Errorf("failed to decode event location: %w", err)
			}
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance events: %w", err)
	}
	return events, nil
}

const recordColumns = `
	employee_id, to_char(record_date, 'YYYY-MM-DD'), status, sessions,
	total_work_duration_ms, total_idle_duration_ms, total_break_duration_ms, overtime_ms,
	is_delayed, delay_minutes, screenshot_count, updated_at
`

func scanRecord(row pgx.Row) (attendance.DailyRecord, error) {
	var (
		rec      attendance.DailyRecord
		status   string
		sessions []byte
	)
	err := row.Scan(
		&rec.EmployeeID, &rec.Date, &status, &sessions,
		&rec.TotalWorkDurationMs, &rec.TotalIdleDurationMs, &rec.TotalBreakDurationMs, &rec.OvertimeMs,
		&rec.IsDelayed, &rec.DelayMinutes, &rec.ScreenshotCount, &rec.UpdatedAt,
	)
	if err != nil {
		return attendance.DailyRecord{}, err
	}

	rec.Status = attendance.Status(status)
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	rec.Sessions = []attendance.WorkSession{}
	if len(sessions) > 0 {
		if err := json.Unmarshal(sessions, &rec.Sessions); err != nil {
			return attendance.DailyRecord{}, fmt.Errorf("failed to decode sessions: %w", err)
		}
	}
	return rec, nil
}

// GetRecord implements attendance.DailyRecordRepository.
func (r *attendanceRepositoryImpl) GetRecord(ctx context.Context, employeeID string, date string) (*attendance.DailyRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + recordColumns + `
		FROM daily_attendance_records
		WHERE employee_id = $1 AND record_date = $2::date
	`
	rec, err := scanRecord(q.QueryRow(ctx, query, employeeID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attendance record: %w", err)
	}
	return &rec, nil
}

// SaveRecord implements attendance.DailyRecordRepository.
func (r *attendanceRepositoryImpl) SaveRecord(ctx context.Context, record attendance.DailyRecord) error {
	q := GetQuerier(ctx, r.db)

	sessions := record.Sessions
	if sessions == nil {
		sessions = []attendance.WorkSession{}
	}
	encoded, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("failed to encode sessions: %w", err)
	}
	_, open := record.OpenSession()

	query := `
		INSERT INTO daily_attendance_records (
			employee_id, record_date, status, sessions,
			total_work_duration_ms, total_idle_duration_ms, total_break_duration_ms, overtime_ms,
			is_delayed, delay_minutes, screenshot_count, has_open_session, updated_at
		) VALUES ($1, $2::date, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (employee_id, record_date) DO UPDATE SET
			status = EXCLUDED.status,
			sessions = EXCLUDED.sessions,
			total_work_duration_ms = EXCLUDED.total_work_duration_ms,
			total_idle_duration_ms = EXCLUDED.total_idle_duration_ms,
			total_break_duration_ms = EXCLUDED.total_break_duration_ms,
			overtime_ms = EXCLUDED.overtime_ms,
			is_delayed = EXCLUDED.is_delayed,
			delay_minutes = EXCLUDED.delay_minutes,
			screenshot_count = EXCLUDED.screenshot_count,
			has_open_session = EXCLUDED.has_open_session,
			updated_at = EXCLUDED.updated_at
	`
	_, err = q.Exec(ctx, query,
		record.EmployeeID, record.Date, string(record.Status), encoded,
		record.TotalWorkDurationMs, record.TotalIdleDurationMs, record.TotalBreakDurationMs, record.OvertimeMs,
		record.IsDelayed, record.DelayMinutes, record.ScreenshotCount, open, record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save attendance record: %w", err)
	}
	return nil
}

// FindOpenRecord implements attendance.DailyRecordRepository.
func (r *attendanceRepositoryImpl) FindOpenRecord(ctx context.Context, employeeID string) (*attendance.DailyRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + recordColumns + `
		FROM daily_attendance_records
		WHERE employee_id = $1 AND has_open_session
		ORDER BY record_date DESC
		LIMIT 1
	`
	rec, err := scanRecord(q.QueryRow(ctx, query, employeeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find open attendance record: %w", err)
	}
	return &rec, nil
}

// List implements attendance.DailyRecordRepository.
func (r *attendanceRepositoryImpl) List(ctx context.Context, filter attendance.RecordFilter) ([]attendance.DailyRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + recordColumns + `
		FROM daily_attendance_records
		WHERE record_date BETWEEN $1::date AND $2::date
		  AND ($3::text IS NULL OR employee_id = $3)
		  AND ($6::text IS NULL OR (record_date, employee_id) > ($6::date, $7::text))
		ORDER BY record_date, employee_id
		OFFSET $4
		LIMIT NULLIF($5, 0)
	`
	var afterDate, afterEmployee *string
	if filter.After != nil {
		afterDate, afterEmployee = &filter.After.Date, &filter.After.EmployeeID
	}
	rows, err := q.Query(ctx, query, filter.StartDate, filter.EndDate, filter.EmployeeID, filter.Offset, filter.Limit, afterDate, afterEmployee)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance records: %w", err)
	}
	defer rows.Close()

	records := []attendance.DailyRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance records: %w", err)
	}
	return records, nil
}

// Count implements attendance.DailyRecordRepository.
func (r *attendanceRepositoryImpl) Count(ctx context.Context, filter attendance.RecordFilter) (int64, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT COUNT(*)
		FROM daily_attendance_records
		WHERE record_date BETWEEN $1::date AND $2::date
		  AND ($3::text IS NULL OR employee_id = $3)
	`
	var total int64
	if err := q.QueryRow(ctx, query, filter.StartDate, filter.EndDate, filter.EmployeeID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count attendance records: %w", err)
	}
	return total, nil
}
