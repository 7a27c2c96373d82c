package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/utils"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

// Normalizer turns raw tracker events into canonical events.
type Normalizer struct {
	employees employee.EmployeeRepository
	logger    *slog.Logger
}

func NewNormalizer(employees employee.EmployeeRepository, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{employees: employees, logger: logger}
}

// Normalize validates raw and returns the canonical event. Malformed events come back as
// *attendance.RejectedEvent; any other error is an infrastructure failure.
func (n *Normalizer) Normalize(ctx context.Context, raw attendance.RawEvent) (attendance.Event, error) {
	employeeID := strings.TrimSpace(raw.EmployeeID)
	kind := attendance.EventKind(strings.TrimSpace(raw.Kind))

	var errs validator.ValidationErrors
	if employeeID == "" {
		errs = append(errs, validator.ValidationError{Field: "employeeId", Message: attendance.ErrMissingEmployee.Error()})
	}
	if !kind.IsValid() {
		errs = append(errs, validator.ValidationError{
			Field:   "kind",
			Message: fmt.Sprintf("%s: must be one of %s", attendance.ErrUnknownEventKind, strings.Join(attendance.EventKinds(), ", ")),
		})
	}
	ts, ok := validator.IsValidDateTime(strings.TrimSpace(raw.Timestamp))
	if !ok {
		errs = append(errs, validator.ValidationError{Field: "timestamp", Message: attendance.ErrInvalidTimestamp.Error()})
	}
	if len(errs) > 0 {
		return attendance.Event{}, n.reject(raw, errs)
	}

	exists, err := n.employees.Exists(ctx, employeeID)
	if err != nil {
		return attendance.Event{}, fmt.Errorf("failed to resolve employee %s: %w", employeeID, err)
	}
	if !exists {
		return attendance.Event{}, n.reject(raw, employee.ErrEmployeeNotFound)
	}

	return attendance.Event{
		EmployeeID: employeeID,
		Kind:       kind,
		Timestamp:  ts.UTC(),
		Location:   n.normalizeLocation(raw),
	}, nil
}

func (n *Normalizer) reject(raw attendance.RawEvent, reason error) error {
	n.logger.Warn("Attendance event rejected",
		"employee_id", raw.EmployeeID,
		"kind", raw.Kind,
		"timestamp", raw.Timestamp,
		"reason", reason)
	return &attendance.RejectedEvent{Raw: raw, Reason: reason}
}

// normalizeLocation drops coordinates that cannot be real instead of dropping the event.
func (n *Normalizer) normalizeLocation(raw attendance.RawEvent) *attendance.Location {
	if raw.Location == nil {
		return nil
	}
	loc := *raw.Location
	loc.Address = strings.TrimSpace(loc.Address)

	if !utils.IsValidCoordinate(loc.Latitude, loc.Longitude) || loc.AccuracyMeters < 0 {
		n.logger.Warn("Event location out of range, discarded",
			"employee_id", raw.EmployeeID,
			"latitude", loc.Latitude,
			"longitude", loc.Longitude,
			"accuracy_meters", loc.AccuracyMeters)
		return nil
	}
	return &loc
}

// IsRejected reports whether err is a normalization rejection.
func IsRejected(err error) bool {
	var rejected *attendance.RejectedEvent
	return errors.As(err, &rejected)
}
