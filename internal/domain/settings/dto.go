package settings

import (
	"strconv"
	"strings"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

// UpdateSettingsRequest is a partial update; nil fields are left unchanged.
type UpdateSettingsRequest struct {
	IdleThresholdSeconds      *int             `json:"idleThresholdSeconds,omitempty"`
	ScreenshotIntervalSeconds *int             `json:"screenshotIntervalSeconds,omitempty"`
	StandardClockInTime       *string          `json:"standardClockInTime,omitempty"`
	BreakSchedules            *[]BreakSchedule `json:"breakSchedules,omitempty"`
	MaxUsersAllowed           *int             `json:"maxUsersAllowed,omitempty"`
	MaintenanceMode           *bool            `json:"maintenanceMode,omitempty"`
}

func (r *UpdateSettingsRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.IdleThresholdSeconds != nil && *r.IdleThresholdSeconds < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "idleThresholdSeconds",
			Message: "idleThresholdSeconds must not be negative",
		})
	}

	if r.ScreenshotIntervalSeconds != nil && *r.ScreenshotIntervalSeconds <= 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "screenshotIntervalSeconds",
			Message: "screenshotIntervalSeconds must be a positive number",
		})
	}

	if r.StandardClockInTime != nil && !validator.IsValidClock(*r.StandardClockInTime) {
		errs = append(errs, validator.ValidationError{
			Field:   "standardClockInTime",
			Message: "standardClockInTime must be in HH:MM format",
		})
	}

	if r.MaxUsersAllowed != nil && *r.MaxUsersAllowed <= 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "maxUsersAllowed",
			Message: "maxUsersAllowed must be a positive number",
		})
	}

	if r.BreakSchedules != nil {
		seen := make(map[string]bool)
		for i, b := range *r.BreakSchedules {
			field := "breakSchedules[" + strconv.Itoa(i) + "]"
			name := strings.TrimSpace(b.Name)
			switch {
			case name == "":
				errs = append(errs, validator.ValidationError{Field: field + ".name", Message: "name is required"})
			case seen[name]:
				errs = append(errs, validator.ValidationError{Field: field + ".name", Message: "name must be unique"})
			}
			seen[name] = true

			if !validator.IsValidClock(b.Time) {
				errs = append(errs, validator.ValidationError{Field: field + ".time", Message: "time must be in HH:MM format"})
			}
			if b.DurationMinutes <= 0 || b.DurationMinutes > 240 {
				errs = append(errs, validator.ValidationError{Field: field + ".durationMinutes", Message: "durationMinutes must be between 1 and 240"})
			}
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Apply returns current with the non-nil fields of r applied.
func (r *UpdateSettingsRequest) Apply(current AppSettings) AppSettings {
	next := current.Clone()
	if r.IdleThresholdSeconds != nil {
		next.IdleThresholdSeconds = *r.IdleThresholdSeconds
	}
	if r.ScreenshotIntervalSeconds != nil {
		next.ScreenshotIntervalSeconds = *r.ScreenshotIntervalSeconds
	}
	if r.StandardClockInTime != nil {
		next.StandardClockInTime = *r.StandardClockInTime
	}
	if r.BreakSchedules != nil {
		next.BreakSchedules = make([]BreakSchedule, 0, len(*r.BreakSchedules))
		for _, b := range *r.BreakSchedules {
			b.Name = strings.TrimSpace(b.Name)
			next.BreakSchedules = append(next.BreakSchedules, b)
		}
	}
	if r.MaxUsersAllowed != nil {
		next.MaxUsersAllowed = *r.MaxUsersAllowed
	}
	if r.MaintenanceMode != nil {
		next.MaintenanceMode = *r.MaintenanceMode
	}
	return next
}
