package settings

import (
	"fmt"
	"time"
)

// BreakSchedule is a named, recurring break slot.
type BreakSchedule struct {
	Name            string `json:"name"`
	Time            string `json:"time"` // HH:MM, 24h
	DurationMinutes int    `json:"durationMinutes"`
}

// AppSettings is the process-wide configuration read by every aggregation.
// It is never embedded into stored records.
type AppSettings struct {
	IdleThresholdSeconds      int             `json:"idleThresholdSeconds"`
	ScreenshotIntervalSeconds int             `json:"screenshotIntervalSeconds"`
	StandardClockInTime       string          `json:"standardClockInTime"` // HH:MM, 24h
	BreakSchedules            []BreakSchedule `json:"breakSchedules"`
	MaxUsersAllowed           int             `json:"maxUsersAllowed"`
	MaintenanceMode           bool            `json:"maintenanceMode"`
	UpdatedAt                 time.Time       `json:"updatedAt"`
	UpdatedBy                 *string         `json:"updatedBy,omitempty"`
}

func DefaultAppSettings() AppSettings {
	return AppSettings{
		IdleThresholdSeconds:      300,
		ScreenshotIntervalSeconds: 600,
		StandardClockInTime:       "09:00",
		BreakSchedules:            []BreakSchedule{},
		MaxUsersAllowed:           100,
		MaintenanceMode:           false,
	}
}

// Clone returns a copy that shares no slices with s.
func (s AppSettings) Clone() AppSettings {
	out := s
	out.BreakSchedules = append([]BreakSchedule(nil), s.BreakSchedules...)
	if s.UpdatedBy != nil {
		by := *s.UpdatedBy
		out.UpdatedBy = &by
	}
	return out
}

// StandardClockInOn returns the standard clock-in instant on the given day, in UTC.
func (s AppSettings) StandardClockInOn(day time.Time) (time.Time, error) {
	clock, err := time.Parse("15:04", s.StandardClockInTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid standard clock-in time %q: %w", s.StandardClockInTime, err)
	}
	day = day.UTC()
	return time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, time.UTC), nil
}

// IdleThreshold returns the idle threshold as a duration.
func (s AppSettings) IdleThreshold() time.Duration {
	return time.Duration(s.IdleThresholdSeconds) * time.Second
}

// FindBreakSchedule looks a schedule up by name.
func (s AppSettings) FindBreakSchedule(name string) (BreakSchedule, bool) {
	for _, b := range s.BreakSchedules {
		if b.Name == name {
			return b, true
		}
	}
	return BreakSchedule{}, false
}
