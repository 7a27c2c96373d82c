package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/apperror"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Rejected events report why the event was dropped
	var rejected *attendance.RejectedEvent
	if errors.As(err, &rejected) {
		var reasons validator.ValidationErrors
		if errors.As(rejected.Reason, &reasons) {
			ValidationError(w, reasons.ToMap())
			return
		}
		ValidationError(w, map[string]string{"event": rejected.Reason.Error()})
		return
	}

	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	case errors.Is(err, attendance.ErrInvalidWindow):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, apperror.ErrNotFound):
		NotFound(w, err.Error())
	case errors.Is(err, apperror.ErrConflict):
		Conflict(w, err.Error())
	case errors.Is(err, apperror.ErrInvalidState):
		InvalidState(w, err.Error())
	case errors.Is(err, apperror.ErrUnavailable):
		ServiceUnavailable(w, err.Error())

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
