package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/request"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
)

const uniqueViolation = "23505"

type requestRepositoryImpl struct {
	db *database.DB
}

func NewRequestRepository(db *database.DB) request.RequestRepository {
	return &requestRepositoryImpl{db: db}
}

const requestColumns = `
	id, employee_id, kind, requested_at, status, reason,
	processed_at, processed_by, admin_notes, break_name, duration_minutes
`

func scanRequest(row pgx.Row) (request.Request, error) {
	var (
		r      request.Request
		kind   string
		status string
	)
	err := row.Scan(
		&r.ID, &r.EmployeeID, &kind, &r.RequestedAt, &status, &r.Reason,
		&r.ProcessedAt, &r.ProcessedBy, &r.AdminNotes, &r.BreakName, &r.DurationMinutes,
	)
	if err != nil {
		return request.Request{}, err
	}
	r.Kind = request.Kind(kind)
	r.Status = request.Status(status)
	r.RequestedAt = r.RequestedAt.UTC()
	if r.ProcessedAt != nil {
		at := r.ProcessedAt.UTC()
		r.ProcessedAt = &at
	}
	return r, nil
}

// CreatePending implements request.RequestRepository. The partial unique index on
// (employee_id, kind) WHERE status = 'pending' enforces one pending request per kind.
func (r *requestRepositoryImpl) CreatePending(ctx context.Context, req request.Request) (request.Request, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO attendance_requests (
			id, employee_id, kind, requested_at, status, reason, break_name, duration_minutes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + requestColumns

	created, err := scanRequest(q.QueryRow(ctx, query,
		req.ID, req.EmployeeID, string(req.Kind), req.RequestedAt, string(request.StatusPending),
		req.Reason, req.BreakName, req.DurationMinutes,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return request.Request{}, request.ErrPendingRequestExists
		}
		return request.Request{}, fmt.Errorf("failed to create request: %w", err)
	}
	return created, nil
}

// GetByID implements request.RequestRepository.
func (r *requestRepositoryImpl) GetByID(ctx context.Context, id string) (request.Request, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + requestColumns + ` FROM attendance_requests WHERE id = $1`
	found, err := scanRequest(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return request.Request{}, request.ErrRequestNotFound
		}
		return request.Request{}, fmt.Errorf("failed to get request %s: %w", id, err)
	}
	return found, nil
}

// Complete implements request.RequestRepository as a compare-and-swap on status.
func (r *requestRepositoryImpl) Complete(ctx context.Context, id string, c request.Completion) (request.Request, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE attendance_requests
		SET status = $2, processed_at = $3, processed_by = $4, admin_notes = $5
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + requestColumns

	updated, err := scanRequest(q.QueryRow(ctx, query, id, string(c.Status), c.ProcessedAt, c.ProcessedBy, c.AdminNotes))
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return request.Request{}, fmt.Errorf("failed to complete request %s: %w", id, err)
	}

	// Nothing updated: either the id is unknown or the request already left pending.
	if _, err := r.GetByID(ctx, id); err != nil {
		return request.Request{}, err
	}
	return request.Request{}, request.ErrRequestNotPending
}

// List implements request.RequestRepository.
func (r *requestRepositoryImpl) List(ctx context.Context, filter request.Filter) ([]request.Request, int64, error) {
	q := GetQuerier(ctx, r.db)

	var status *string
	if filter.Status != nil {
		s := string(*filter.Status)
		status = &s
	}

	where := `
		WHERE ($1::text = '' OR kind = $1)
		  AND ($2::text IS NULL OR employee_id = $2)
		  AND ($3::text IS NULL OR status = $3)
	`

	var total int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM attendance_requests`+where,
		string(filter.Kind), filter.EmployeeID, status).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count requests: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + requestColumns + ` FROM attendance_requests` + where + `
		ORDER BY requested_at DESC, id DESC
		OFFSET $4
		LIMIT NULLIF($5, 0)
	`
	rows, err := q.Query(ctx, query, string(filter.Kind), filter.EmployeeID, status, offset, filter.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	requests := []request.Request{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate requests: %w", err)
	}
	return requests, total, nil
}
