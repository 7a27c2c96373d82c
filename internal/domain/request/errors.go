package request

import "github.com/cmlabs-hris/attendance-engine/internal/pkg/apperror"

var (
	ErrRequestNotFound      = apperror.New(apperror.ErrNotFound, "request not found")
	ErrPendingRequestExists = apperror.New(apperror.ErrConflict, "a pending request of this type already exists for the employee")
	ErrRequestNotPending    = apperror.New(apperror.ErrInvalidState, "request has already been approved or rejected")
	ErrNotClockedIn         = apperror.New(apperror.ErrInvalidState, "employee is not clocked in")
)
