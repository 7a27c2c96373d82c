package attendance

import (
	"log/slog"
	"sort"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/settings"
)

// FoldConfig carries what a fold reads besides the events themselves.
type FoldConfig struct {
	Settings settings.AppSettings
	Logger   *slog.Logger
}

func (c FoldConfig) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// openSession tracks the in-progress session while folding.
type openSession struct {
	session   attendance.WorkSession
	idleSince *time.Time
	breakOpen bool
	idle      []attendance.BreakInterval // counted idle intervals, closed
}

// FoldDay rebuilds the day's sessions from all of its events. It never fails: every
// anomaly is absorbed and logged so the result is always a well-formed record.
// Counters that do not come from events (screenshots) are carried over from base.
func FoldDay(base attendance.DailyRecord, events []attendance.Event, cfg FoldConfig) attendance.DailyRecord {
	log := cfg.logger().With("employee_id", base.EmployeeID, "date", base.Date)

	rec := attendance.NewDailyRecord(base.EmployeeID, base.Date)
	rec.ScreenshotCount = base.ScreenshotCount
	rec.UpdatedAt = base.UpdatedAt

	var open *openSession
	idleThreshold := cfg.Settings.IdleThreshold()

	for _, group := range groupByTimestamp(events) {
		orderGroup(group, open != nil)

		for _, e := range group {
			switch e.Kind {
			case attendance.KindClockIn:
				if open != nil {
					log.Warn("Duplicate clock-in ignored, session already open",
						"session_start", open.session.SessionStart, "timestamp", e.Timestamp)
					continue
				}
				open = &openSession{session: attendance.WorkSession{
					SessionStart:  e.Timestamp,
					StartLocation: e.Location,
				}}

			case attendance.KindIdleStart:
				if open == nil {
					log.Warn("Idle start without open session ignored", "timestamp", e.Timestamp)
					continue
				}
				if open.idleSince != nil {
					continue
				}
				ts := e.Timestamp
				open.idleSince = &ts

			case attendance.KindIdleEnd:
				if open == nil || open.idleSince == nil {
					log.Warn("Idle end without matching idle start ignored", "timestamp", e.Timestamp)
					continue
				}
				open.endIdle(e.Timestamp, idleThreshold, log)

			case attendance.KindBreakStart:
				if open == nil {
					log.Warn("Break start without open session ignored", "timestamp", e.Timestamp)
					continue
				}
				if open.breakOpen {
					continue
				}
				open.session.Breaks = append(open.session.Breaks, attendance.BreakInterval{Start: e.Timestamp})
				open.breakOpen = true

			case attendance.KindBreakEnd:
				if open == nil || !open.breakOpen {
					log.Warn("Break end without matching break start ignored", "timestamp", e.Timestamp)
					continue
				}
				open.endBreak(e.Timestamp)

			case attendance.KindClockOut:
				if open == nil {
					log.Warn("Clock-out without open session ignored", "timestamp", e.Timestamp)
					continue
				}
				rec.Sessions = append(rec.Sessions, open.close(e, idleThreshold, log))
				open = nil
			}
		}
	}

	if open != nil {
		rec.Sessions = append(rec.Sessions, open.session)
	}

	applyDelay(&rec, cfg.Settings, log)
	recomputeTotals(&rec)
	rec.Status = attendance.DeriveStatus(rec.Sessions)

	return rec
}

func (o *openSession) endIdle(at time.Time, threshold time.Duration, log *slog.Logger) {
	idle := at.Sub(*o.idleSince)
	o.idleSince = nil

	if idle < threshold {
		log.Debug("Idle interval below threshold counted as activity", "idle", idle, "threshold", threshold)
		return
	}
	o.session.IdleDurationMs += idle.Milliseconds()

	start, end := at.Add(-idle), at
	o.idle = append(o.idle, attendance.BreakInterval{Start: start, End: &end})
}

func (o *openSession) endBreak(at time.Time) {
	last := &o.session.Breaks[len(o.session.Breaks)-1]
	end := at
	last.End = &end
	o.session.BreakDurationMs += at.Sub(last.Start).Milliseconds()
	o.breakOpen = false
}

// close finishes the session at the clock-out event. Idle or break intervals still
// running end at the clock-out time.
func (o *openSession) close(e attendance.Event, threshold time.Duration, log *slog.Logger) attendance.WorkSession {
	if o.idleSince != nil {
		o.endIdle(e.Timestamp, threshold, log)
	}
	if o.breakOpen {
		o.endBreak(e.Timestamp)
	}

	end := e.Timestamp
	o.session.SessionEnd = &end
	o.session.EndLocation = e.Location

	// Idle reported during a break is the same time away; deduct it once.
	span := end.Sub(o.session.SessionStart).Milliseconds()
	work := span - o.session.IdleDurationMs - o.session.BreakDurationMs + o.idleDuringBreaksMs()
	if work < 0 {
		log.Warn("Negative working duration clamped to zero",
			"session_start", o.session.SessionStart,
			"session_end", end,
			"idle_ms", o.session.IdleDurationMs,
			"break_ms", o.session.BreakDurationMs)
		work = 0
	}
	o.session.WorkingDurationMs = work

	return o.session
}

// idleDuringBreaksMs is the time covered by both a counted idle interval and a break.
// Idle intervals never overlap each other and neither do breaks, so pairwise sums are exact.
func (o *openSession) idleDuringBreaksMs() int64 {
	var overlap time.Duration
	for _, idle := range o.idle {
		for _, b := range o.session.Breaks {
			if b.End == nil {
				continue
			}
			start := idle.Start
			if b.Start.After(start) {
				start = b.Start
			}
			end := *idle.End
			if b.End.Before(end) {
				end = *b.End
			}
			if end.After(start) {
				overlap += end.Sub(start)
			}
		}
	}
	return overlap.Milliseconds()
}

// groupByTimestamp orders events by time and groups those sharing an instant.
func groupByTimestamp(events []attendance.Event) [][]attendance.Event {
	sorted := append([]attendance.Event(nil), events...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	var groups [][]attendance.Event
	for i := 0; i < len(sorted); {
		j := i + 1
		for j < len(sorted) && sorted[j].Timestamp.Equal(sorted[i].Timestamp) {
			j++
		}
		groups = append(groups, sorted[i:j])
		i = j
	}
	return groups
}

// Tie order for events sharing an instant. With no open session a clock-in goes first
// so a same-instant clock-out has something to close; with an open session the
// clock-out goes first so a same-instant clock-in starts the next session.
var (
	rankWhenClosed = map[attendance.EventKind]int{
		attendance.KindClockIn:    0,
		attendance.KindIdleStart:  1,
		attendance.KindBreakStart: 2,
		attendance.KindIdleEnd:    3,
		attendance.KindBreakEnd:   4,
		attendance.KindClockOut:   5,
	}
	rankWhenOpen = map[attendance.EventKind]int{
		attendance.KindIdleEnd:    0,
		attendance.KindBreakEnd:   1,
		attendance.KindClockOut:   2,
		attendance.KindClockIn:    3,
		attendance.KindIdleStart:  4,
		attendance.KindBreakStart: 5,
	}
)

func orderGroup(group []attendance.Event, sessionOpen bool) {
	if len(group) < 2 {
		return
	}
	rank := rankWhenClosed
	if sessionOpen {
		rank = rankWhenOpen
	}
	sort.SliceStable(group, func(i, j int) bool {
		return rank[group[i].Kind] < rank[group[j].Kind]
	})
}

// applyDelay flags the day's first session against the standard clock-in time.
// Later sessions of the same day never carry delay.
func applyDelay(rec *attendance.DailyRecord, cfg settings.AppSettings, log *slog.Logger) {
	rec.IsDelayed = false
	rec.DelayMinutes = 0
	for i := range rec.Sessions {
		rec.Sessions[i].IsDelayed = false
		rec.Sessions[i].DelayMinutes = 0
	}
	if len(rec.Sessions) == 0 {
		return
	}

	first := &rec.Sessions[0]
	day, err := time.Parse(attendance.DateLayout, rec.Date)
	if err != nil {
		day = first.SessionStart
	}

	standard, err := cfg.StandardClockInOn(day)
	if err != nil {
		log.Warn("Delay not computed", "error", err)
		return
	}

	if first.SessionStart.After(standard) {
		minutes := int(first.SessionStart.Sub(standard) / time.Minute)
		first.IsDelayed = true
		first.DelayMinutes = minutes
		rec.IsDelayed = true
		rec.DelayMinutes = minutes
	}
}

func recomputeTotals(rec *attendance.DailyRecord) {
	rec.TotalWorkDurationMs = 0
	rec.TotalIdleDurationMs = 0
	rec.TotalBreakDurationMs = 0
	for _, s := range rec.Sessions {
		rec.TotalWorkDurationMs += s.WorkingDurationMs
		rec.TotalIdleDurationMs += s.IdleDurationMs
		rec.TotalBreakDurationMs += s.BreakDurationMs
	}
	rec.OvertimeMs = OvertimeMs(*rec)
}

// Timeline interleaves the day's clock-in and clock-out points by time, clock-in first on ties.
func Timeline(rec attendance.DailyRecord) []attendance.TimelineEntry {
	entries := make([]attendance.TimelineEntry, 0, len(rec.Sessions)*2)
	for _, s := range rec.Sessions {
		entries = append(entries, attendance.TimelineEntry{
			Kind:      attendance.KindClockIn,
			Timestamp: s.SessionStart,
			Location:  s.StartLocation,
		})
		if s.SessionEnd != nil {
			entries = append(entries, attendance.TimelineEntry{
				Kind:      attendance.KindClockOut,
				Timestamp: *s.SessionEnd,
				Location:  s.EndLocation,
			})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Timestamp.Equal(entries[j].Timestamp) {
			return entries[i].Timestamp.Before(entries[j].Timestamp)
		}
		return entries[i].Kind == attendance.KindClockIn && entries[j].Kind == attendance.KindClockOut
	})
	return entries
}
