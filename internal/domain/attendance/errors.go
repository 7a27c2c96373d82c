package attendance

import (
	"errors"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/apperror"
)

// Attendance domain errors
var (
	ErrUnknownEventKind = errors.New("unknown event kind")
	ErrInvalidTimestamp = errors.New("timestamp must be an ISO-8601 instant")
	ErrMissingEmployee  = errors.New("employeeId is required")

	ErrRecordNotFound = apperror.New(apperror.ErrNotFound, "attendance record not found")
	ErrNoOpenSession  = apperror.New(apperror.ErrInvalidState, "employee has no open work session")
	ErrInvalidWindow  = errors.New("window must be one of: today, week, month, year")
)
