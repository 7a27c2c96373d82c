package employee

import "github.com/cmlabs-hris/attendance-engine/internal/pkg/apperror"

var (
	ErrEmployeeNotFound = apperror.New(apperror.ErrNotFound, "employee not found")
	ErrEmailExists      = apperror.New(apperror.ErrConflict, "email already registered")
	ErrEmployeeIDExists = apperror.New(apperror.ErrConflict, "employee id already registered")
	ErrUserLimitReached = apperror.New(apperror.ErrConflict, "maximum number of users reached")
)
