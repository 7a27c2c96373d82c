package attendance

import (
	"time"
)

// DateLayout is the calendar-day key of a DailyRecord.
const DateLayout = "2006-01-02"

// FullDayThreshold is the working time that completes a day; anything above it is overtime.
const FullDayThreshold = 8 * time.Hour

type EventKind string

const (
	KindClockIn    EventKind = "ClockIn"
	KindClockOut   EventKind = "ClockOut"
	KindIdleStart  EventKind = "IdleStart"
	KindIdleEnd    EventKind = "IdleEnd"
	KindBreakStart EventKind = "BreakStart"
	KindBreakEnd   EventKind = "BreakEnd"
)

var eventKinds = []EventKind{KindClockIn, KindClockOut, KindIdleStart, KindIdleEnd, KindBreakStart, KindBreakEnd}

// EventKinds lists the recognised kinds as strings.
func EventKinds() []string {
	out := make([]string, len(eventKinds))
	for i, k := range eventKinds {
		out[i] = string(k)
	}
	return out
}

func (k EventKind) IsValid() bool {
	for _, known := range eventKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Pair returns the start kind of the start/end pair k belongs to.
func (k EventKind) Pair() EventKind {
	switch k {
	case KindClockOut:
		return KindClockIn
	case KindIdleEnd:
		return KindIdleStart
	case KindBreakEnd:
		return KindBreakStart
	}
	return k
}

type Location struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	Address        string  `json:"address,omitempty"`
	AccuracyMeters float64 `json:"accuracyMeters,omitempty"`
}

// Event is an accepted, normalized attendance event. Timestamp is always UTC.
type Event struct {
	EmployeeID string    `json:"employeeId"`
	Kind       EventKind `json:"kind"`
	Timestamp  time.Time `json:"timestamp"`
	Location   *Location `json:"location,omitempty"`
}

// Date returns the UTC calendar day the event belongs to.
func (e Event) Date() string {
	return e.Timestamp.UTC().Format(DateLayout)
}

// Key identifies an event for de-duplication of re-delivered signals.
func (e Event) Key() string {
	return e.EmployeeID + "|" + string(e.Kind) + "|" + e.Timestamp.UTC().Format(time.RFC3339Nano)
}

type BreakInterval struct {
	Start time.Time  `json:"start"`
	End   *time.Time `json:"end,omitempty"`
}

type WorkSession struct {
	SessionStart      time.Time       `json:"sessionStart"`
	SessionEnd        *time.Time      `json:"sessionEnd,omitempty"`
	WorkingDurationMs int64           `json:"workingDurationMs"`
	IdleDurationMs    int64           `json:"idleDurationMs"`
	BreakDurationMs   int64           `json:"breakDurationMs"`
	Breaks            []BreakInterval `json:"breaks,omitempty"`
	IsDelayed         bool            `json:"isDelayed"`
	DelayMinutes      int             `json:"delayMinutes"`
	StartLocation     *Location       `json:"startLocation,omitempty"`
	EndLocation       *Location       `json:"endLocation,omitempty"`
}

func (s WorkSession) IsOpen() bool {
	return s.SessionEnd == nil
}

type Status string

const (
	StatusAbsent             Status = "absent"
	StatusPresent            Status = "present"
	StatusPartiallyCompleted Status = "partially_completed"
	StatusCompletedWork      Status = "completed_work"
)

// DailyRecord is the aggregate of one employee's sessions on one UTC calendar day.
type DailyRecord struct {
	EmployeeID           string        `json:"employeeId"`
	Date                 string        `json:"date"`
	Sessions             []WorkSession `json:"sessions"`
	Status               Status        `json:"status"`
	TotalWorkDurationMs  int64         `json:"totalWorkDurationMs"`
	TotalIdleDurationMs  int64         `json:"totalIdleDurationMs"`
	TotalBreakDurationMs int64         `json:"totalBreakDurationMs"`
	OvertimeMs           int64         `json:"overtimeMs"`
	IsDelayed            bool          `json:"isDelayed"`
	DelayMinutes         int           `json:"delayMinutes"`
	ScreenshotCount      int           `json:"screenshotCount"`
	UpdatedAt            time.Time     `json:"updatedAt"`
}

func NewDailyRecord(employeeID, date string) DailyRecord {
	return DailyRecord{
		EmployeeID: employeeID,
		Date:       date,
		Sessions:   []WorkSession{},
		Status:     StatusAbsent,
	}
}

// OpenSession returns the index of the open session, if any.
func (r DailyRecord) OpenSession() (int, bool) {
	for i := len(r.Sessions) - 1; i >= 0; i-- {
		if r.Sessions[i].IsOpen() {
			return i, true
		}
	}
	return -1, false
}

// BreaksTaken counts the breaks started across the day's sessions.
func (r DailyRecord) BreaksTaken() int {
	n := 0
	for _, s := range r.Sessions {
		n += len(s.Breaks)
	}
	return n
}

// Clone returns a deep copy so callers never share session slices with the store.
func (r DailyRecord) Clone() DailyRecord {
	out := r
	out.Sessions = make([]WorkSession, len(r.Sessions))
	for i, s := range r.Sessions {
		cp := s
		cp.SessionEnd = cloneTime(s.SessionEnd)
		cp.StartLocation = cloneLocation(s.StartLocation)
		cp.EndLocation = cloneLocation(s.EndLocation)
		if s.Breaks != nil {
			cp.Breaks = make([]BreakInterval, len(s.Breaks))
			for j, b := range s.Breaks {
				cp.Breaks[j] = BreakInterval{Start: b.Start, End: cloneTime(b.End)}
			}
		}
		out.Sessions[i] = cp
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneLocation(l *Location) *Location {
	if l == nil {
		return nil
	}
	v := *l
	return &v
}

// DeriveStatus is the only way a record's status is set.
func DeriveStatus(sessions []WorkSession) Status {
	if len(sessions) == 0 {
		return StatusAbsent
	}

	var total int64
	for _, s := range sessions {
		if s.IsOpen() {
			return StatusPresent
		}
		total += s.WorkingDurationMs
	}

	if total >= FullDayThreshold.Milliseconds() {
		return StatusCompletedWork
	}
	return StatusPartiallyCompleted
}

// TimelineEntry is one clock-in or clock-out point for display.
type TimelineEntry struct {
	Kind      EventKind `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Location  *Location `json:"location,omitempty"`
}
