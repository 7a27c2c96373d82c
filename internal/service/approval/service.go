package approval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/notification"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/request"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/settings"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/keylock"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

// SessionCloser is the slice of the attendance engine the clock-out workflow needs.
type SessionCloser interface {
	HasOpenSession(ctx context.Context, employeeID string) (bool, error)
	CloseOpenSession(ctx context.Context, employeeID string, at time.Time) (attendance.DailyRecord, error)
}

type Deps struct {
	Requests    request.RequestRepository
	Employees   employee.EmployeeRepository
	Settings    settings.Provider
	Sessions    SessionCloser
	Broadcaster notification.Broadcaster
	Logger      *slog.Logger
}

// WorkflowImpl is the Pending -> Approved | Rejected machine shared by both request kinds.
// Only what happens on approval differs.
type WorkflowImpl struct {
	kind  request.Kind
	deps  Deps
	locks *keylock.KeyedMutex
	now   func() time.Time
}

// NewBreakWorkflow builds the break request workflow. Approval is advisory.
func NewBreakWorkflow(deps Deps) *WorkflowImpl {
	return newWorkflow(request.KindBreak, deps)
}

// NewClockOutWorkflow builds the early clock-out workflow. Approval closes the
// employee's open session at the approval time.
func NewClockOutWorkflow(deps Deps) *WorkflowImpl {
	return newWorkflow(request.KindClockOut, deps)
}

func newWorkflow(kind request.Kind, deps Deps) *WorkflowImpl {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Broadcaster == nil {
		deps.Broadcaster = notification.Nop{}
	}
	return &WorkflowImpl{
		kind:  kind,
		deps:  deps,
		locks: keylock.New(),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Kind implements request.Workflow.
func (w *WorkflowImpl) Kind() request.Kind {
	return w.kind
}

// Submit implements request.Workflow.
func (w *WorkflowImpl) Submit(ctx context.Context, req request.SubmitRequest) (request.Request, error) {
	if err := req.Validate(); err != nil {
		return request.Request{}, err
	}

	unlock := w.locks.Lock(string(w.kind) + "|" + req.EmployeeID)
	defer unlock()

	exists, err := w.deps.Employees.Exists(ctx, req.EmployeeID)
	if err != nil {
		return request.Request{}, fmt.Errorf("failed to resolve employee %s: %w", req.EmployeeID, err)
	}
	if !exists {
		return request.Request{}, employee.ErrEmployeeNotFound
	}

	id, err := uuid.NewV7()
	if err != nil {
		return request.Request{}, fmt.Errorf("failed to generate request id: %w", err)
	}
	newReq := request.Request{
		ID:          id.String(),
		EmployeeID:  req.EmployeeID,
		Kind:        w.kind,
		RequestedAt: w.now(),
		Status:      request.StatusPending,
		Reason:      req.Reason,
	}

	switch w.kind {
	case request.KindBreak:
		if err := w.resolveBreak(&newReq, req); err != nil {
			return request.Request{}, err
		}
	case request.KindClockOut:
		open, err := w.deps.Sessions.HasOpenSession(ctx, req.EmployeeID)
		if err != nil {
			return request.Request{}, fmt.Errorf("failed to check open session: %w", err)
		}
		if !open {
			return request.Request{}, request.ErrNotClockedIn
		}
	}

	created, err := w.deps.Requests.CreatePending(ctx, newReq)
	if err != nil {
		return request.Request{}, err
	}

	w.deps.Logger.Info("Request submitted", "request_id", created.ID, "kind", created.Kind, "employee_id", created.EmployeeID)
	w.deps.Broadcaster.Notify(notification.EventRequestSubmitted, map[string]interface{}{
		notification.PayloadEmployeeKey: created.EmployeeID,
		"requestId":                     created.ID,
		"kind":                          created.Kind,
		"requestedAt":                   created.RequestedAt,
	})

	return created, nil
}

// resolveBreak binds a break request to a configured schedule when it names one.
func (w *WorkflowImpl) resolveBreak(out *request.Request, req request.SubmitRequest) error {
	out.DurationMinutes = req.DurationMinutes

	if req.BreakName == nil || strings.TrimSpace(*req.BreakName) == "" {
		return nil
	}
	name := strings.TrimSpace(*req.BreakName)

	schedule, ok := w.deps.Settings.Current().FindBreakSchedule(name)
	if !ok {
		return validator.ValidationErrors{{
			Field:   "breakName",
			Message: fmt.Sprintf("break %q is not a configured break schedule", name),
		}}
	}

	out.BreakName = &name
	if out.DurationMinutes == nil {
		d := schedule.DurationMinutes
		out.DurationMinutes = &d
	}
	return nil
}

// Process implements request.Workflow.
func (w *WorkflowImpl) Process(ctx context.Context, req request.ProcessRequest) (request.Request, error) {
	if err := req.Validate(); err != nil {
		return request.Request{}, err
	}

	current, err := w.Get(ctx, req.RequestID)
	if err != nil {
		return request.Request{}, err
	}

	unlock := w.locks.Lock(string(w.kind) + "|" + current.EmployeeID)
	defer unlock()

	if current.Status != request.StatusPending {
		return request.Request{}, request.ErrRequestNotPending
	}

	decision := request.Decision(req.Decision)
	processed, err := w.deps.Requests.Complete(ctx, current.ID, request.Completion{
		Status:      decision.Status(),
		ProcessedAt: w.now(),
		ProcessedBy: req.ProcessedBy,
		AdminNotes:  req.AdminNotes,
	})
	if err != nil {
		return request.Request{}, err
	}

	w.deps.Logger.Info("Request processed",
		"request_id", processed.ID,
		"kind", processed.Kind,
		"employee_id", processed.EmployeeID,
		"status", processed.Status,
		"processed_by", req.ProcessedBy)

	if processed.Status == request.StatusApproved && w.kind == request.KindClockOut {
		w.closeSession(ctx, processed)
	}

	w.deps.Broadcaster.Notify(notification.EventRequestProcessed, map[string]interface{}{
		notification.PayloadEmployeeKey: processed.EmployeeID,
		"requestId":                     processed.ID,
		"kind":                          processed.Kind,
		"status":                        processed.Status,
		"processedAt":                   processed.ProcessedAt,
	})

	return processed, nil
}

// closeSession feeds the synthetic clock-out for an approved request. The approval
// stands whatever happens here; failures are logged.
func (w *WorkflowImpl) closeSession(ctx context.Context, approved request.Request) {
	rec, err := w.deps.Sessions.CloseOpenSession(ctx, approved.EmployeeID, *approved.ProcessedAt)
	switch {
	case errors.Is(err, attendance.ErrNoOpenSession):
		w.deps.Logger.Warn("Approved clock-out found no open session",
			"request_id", approved.ID, "employee_id", approved.EmployeeID)
	case err != nil:
		w.deps.Logger.Error("Failed to close session for approved clock-out",
			"request_id", approved.ID, "employee_id", approved.EmployeeID, "error", err)
	default:
		w.deps.Logger.Info("Session closed by approved clock-out",
			"request_id", approved.ID, "employee_id", approved.EmployeeID, "date", rec.Date, "status", rec.Status)
	}
}

// Get implements request.Workflow. A request of the other kind is not found here.
func (w *WorkflowImpl) Get(ctx context.Context, id string) (request.Request, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return request.Request{}, request.ErrRequestNotFound
	}

	r, err := w.deps.Requests.GetByID(ctx, id)
	if err != nil {
		return request.Request{}, err
	}
	if r.Kind != w.kind {
		return request.Request{}, request.ErrRequestNotFound
	}
	return r, nil
}

// List implements request.Workflow.
func (w *WorkflowImpl) List(ctx context.Context, filter request.Filter) (request.ListResponse, error) {
	if err := filter.Validate(); err != nil {
		return request.ListResponse{}, err
	}
	filter.Kind = w.kind

	requests, total, err := w.deps.Requests.List(ctx, filter)
	if err != nil {
		return request.ListResponse{}, fmt.Errorf("failed to list requests: %w", err)
	}
	if requests == nil {
		requests = []request.Request{}
	}

	return request.ListResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int((total + int64(filter.Limit) - 1) / int64(filter.Limit)),
		Requests:   requests,
	}, nil
}

var _ request.Workflow = (*WorkflowImpl)(nil)
