package attendance

import (
	"fmt"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

// ========================================
// INGESTION DTOs
// ========================================

// RawEvent is the inbound event shape delivered by the tracker transport.
type RawEvent struct {
	EmployeeID string    `json:"employeeId"`
	Kind       string    `json:"kind"`
	Timestamp  string    `json:"timestamp"`
	Location   *Location `json:"location,omitempty"`
}

// RejectedEvent is returned by normalization for events that are dropped.
type RejectedEvent struct {
	Raw    RawEvent
	Reason error
}

func (r *RejectedEvent) Error() string {
	return fmt.Sprintf("event rejected: %v", r.Reason)
}

func (r *RejectedEvent) Unwrap() error {
	return r.Reason
}

type IngestBatchRequest struct {
	Events []RawEvent `json:"events"`
}

func (r *IngestBatchRequest) Validate() error {
	var errs validator.ValidationErrors

	if len(r.Events) == 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "events",
			Message: "events must not be empty",
		})
	}

	if len(r.Events) > MaxBatchSize {
		errs = append(errs, validator.ValidationError{
			Field:   "events",
			Message: fmt.Sprintf("events must not exceed %d items", MaxBatchSize),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// MaxBatchSize bounds a single batch ingestion call.
const MaxBatchSize = 1000

type RejectedEventResponse struct {
	Index  int      `json:"index"`
	Event  RawEvent `json:"event"`
	Reason string   `json:"reason"`
}

type IngestResult struct {
	Accepted   int                     `json:"accepted"`
	Duplicates int                     `json:"duplicates"`
	Rejected   []RejectedEventResponse `json:"rejected"`
	Records    []DailyRecord           `json:"records"`
}

type ScreenshotRequest struct {
	EmployeeID string `json:"employeeId" validate:"required"`
	Date       string `json:"date" validate:"required"`
	Count      int    `json:"count" validate:"min=1,max=1000"`
}

func (r *ScreenshotRequest) Validate() error {
	errs := validator.Struct(r)
	if r.Date != "" {
		if _, valid := validator.IsValidDate(r.Date); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "date",
				Message: "date must be in YYYY-MM-DD format",
			})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ========================================
// QUERY DTOs
// ========================================

const (
	DefaultPageLimit = 100
	MaxPageLimit     = 500
)

type RangeQuery struct {
	EmployeeID *string `json:"employeeId,omitempty"`
	StartDate  string  `json:"startDate"`
	EndDate    string  `json:"endDate"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Validate checks the query and applies pagination defaults. maxDays bounds the span.
func (q *RangeQuery) Validate(maxDays int) error {
	var errs validator.ValidationErrors

	if q.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if q.Page == 0 {
		q.Page = 1
	}

	if q.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if q.Limit == 0 {
		q.Limit = DefaultPageLimit
	}
	if q.Limit > MaxPageLimit {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: fmt.Sprintf("limit must not exceed %d", MaxPageLimit),
		})
	}

	if q.EmployeeID != nil && validator.IsEmpty(*q.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employeeId",
			Message: "employeeId must not be blank",
		})
	}

	start, startOK := validator.IsValidDate(q.StartDate)
	if !startOK {
		errs = append(errs, validator.ValidationError{
			Field:   "startDate",
			Message: "startDate must be in YYYY-MM-DD format",
		})
	}
	end, endOK := validator.IsValidDate(q.EndDate)
	if !endOK {
		errs = append(errs, validator.ValidationError{
			Field:   "endDate",
			Message: "endDate must be in YYYY-MM-DD format",
		})
	}

	if startOK && endOK {
		if end.Before(start) {
			errs = append(errs, validator.ValidationError{
				Field:   "endDate",
				Message: "endDate must not be before startDate",
			})
		} else if maxDays > 0 && int(end.Sub(start).Hours()/24)+1 > maxDays {
			errs = append(errs, validator.ValidationError{
				Field:   "endDate",
				Message: fmt.Sprintf("date range must not exceed %d days", maxDays),
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Summary aggregates a set of daily records.
type Summary struct {
	RecordCount          int     `json:"recordCount"`
	DaysPresent          int     `json:"daysPresent"`
	DelayedDays          int     `json:"delayedDays"`
	TotalDelayMinutes    int     `json:"totalDelayMinutes"`
	TotalWorkDurationMs  int64   `json:"totalWorkDurationMs"`
	TotalIdleDurationMs  int64   `json:"totalIdleDurationMs"`
	TotalBreakDurationMs int64   `json:"totalBreakDurationMs"`
	TotalOvertimeMs      int64   `json:"totalOvertimeMs"`
	ScreenshotCount      int     `json:"screenshotCount"`
	BreaksTaken          int     `json:"breaksTaken"`
	ProductivityPercent  float64 `json:"productivityPercent"`
}

type RangeResponse struct {
	StartDate  string        `json:"startDate"`
	EndDate    string        `json:"endDate"`
	Records    []DailyRecord `json:"records"`
	Summary    Summary       `json:"summary"`
	TotalCount int64         `json:"totalCount"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	TotalPages int           `json:"totalPages"`
}

// RecordFilter selects records for a bounded, ordered read (date asc, employee asc).
// When After is set only records strictly past that key are returned, and Offset
// applies after it.
type RecordFilter struct {
	EmployeeID *string
	StartDate  string
	EndDate    string
	After      *RecordCursor
	Offset     int
	Limit      int
}

// RecordCursor is a position in the (date, employee) order of records.
type RecordCursor struct {
	Date       string
	EmployeeID string
}

// CursorOf returns the cursor positioned at rec.
func CursorOf(rec DailyRecord) *RecordCursor {
	return &RecordCursor{Date: rec.Date, EmployeeID: rec.EmployeeID}
}

// Before reports whether c sorts before the (date, employeeID) key.
func (c RecordCursor) Before(date, employeeID string) bool {
	if c.Date != date {
		return c.Date < date
	}
	return c.EmployeeID < employeeID
}

// Window is a canned query range relative to the current day.
type Window string

const (
	WindowToday Window = "today"
	WindowWeek  Window = "week"
	WindowMonth Window = "month"
	WindowYear  Window = "year"
)

func (w Window) IsValid() bool {
	switch w {
	case WindowToday, WindowWeek, WindowMonth, WindowYear:
		return true
	}
	return false
}
