package attendance

import (
	"math"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
)

// DelayMinutes returns the record's delay, zero when the day did not start late.
func DelayMinutes(rec attendance.DailyRecord) int {
	if !rec.IsDelayed {
		return 0
	}
	return rec.DelayMinutes
}

// OvertimeMs returns the working time above the full-day threshold.
func OvertimeMs(rec attendance.DailyRecord) int64 {
	over := rec.TotalWorkDurationMs - attendance.FullDayThreshold.Milliseconds()
	if over < 0 {
		return 0
	}
	return over
}

// ProductivityPercent is working / (working + idle) * 100, rounded to two decimals.
// It is zero when both are zero.
func ProductivityPercent(workingMs, idleMs int64) float64 {
	total := workingMs + idleMs
	if total <= 0 {
		return 0
	}
	pct := float64(workingMs) / float64(total) * 100
	return math.Round(pct*100) / 100
}

// RecordProductivity is ProductivityPercent over one record.
func RecordProductivity(rec attendance.DailyRecord) float64 {
	return ProductivityPercent(rec.TotalWorkDurationMs, rec.TotalIdleDurationMs)
}

// SummaryAccumulator folds records into a Summary one at a time, so a range can be
// summarized page by page.
type SummaryAccumulator struct {
	summary attendance.Summary
}

func (a *SummaryAccumulator) Add(rec attendance.DailyRecord) {
	s := &a.summary
	s.RecordCount++
	if len(rec.Sessions) > 0 {
		s.DaysPresent++
	}
	if rec.IsDelayed {
		s.DelayedDays++
		s.TotalDelayMinutes += DelayMinutes(rec)
	}
	s.TotalWorkDurationMs += rec.TotalWorkDurationMs
	s.TotalIdleDurationMs += rec.TotalIdleDurationMs
	s.TotalBreakDurationMs += rec.TotalBreakDurationMs
	s.TotalOvertimeMs += OvertimeMs(rec)
	s.ScreenshotCount += rec.ScreenshotCount
	s.BreaksTaken += rec.BreaksTaken()
}

func (a *SummaryAccumulator) Summary() attendance.Summary {
	out := a.summary
	out.ProductivityPercent = ProductivityPercent(out.TotalWorkDurationMs, out.TotalIdleDurationMs)
	return out
}

// Summarize folds a slice of records into a Summary.
func Summarize(records []attendance.DailyRecord) attendance.Summary {
	var acc SummaryAccumulator
	for _, rec := range records {
		acc.Add(rec)
	}
	return acc.Summary()
}
