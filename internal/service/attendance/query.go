package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
)

// summaryPageSize bounds each read while a range summary is streamed.
const summaryPageSize = attendance.MaxPageLimit

// GetRange implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetRange(ctx context.Context, query attendance.RangeQuery) (attendance.RangeResponse, error) {
	if err := query.Validate(a.opts.MaxRangeDays); err != nil {
		return attendance.RangeResponse{}, err
	}
	return a.queryRange(ctx, query)
}

// GetWindow implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetWindow(ctx context.Context, employeeID *string, window attendance.Window, page int, limit int) (attendance.RangeResponse, error) {
	if !window.IsValid() {
		return attendance.RangeResponse{}, attendance.ErrInvalidWindow
	}

	start, end := WindowBounds(window, a.now(), a.opts.TodayPaddingDays)
	query := attendance.RangeQuery{
		EmployeeID: employeeID,
		StartDate:  start.Format(attendance.DateLayout),
		EndDate:    end.Format(attendance.DateLayout),
		Page:       page,
		Limit:      limit,
	}
	// canned windows are never longer than a year, padding included
	if err := query.Validate(0); err != nil {
		return attendance.RangeResponse{}, err
	}
	return a.queryRange(ctx, query)
}

func (a *AttendanceServiceImpl) queryRange(ctx context.Context, query attendance.RangeQuery) (attendance.RangeResponse, error) {
	filter := attendance.RecordFilter{
		EmployeeID: query.EmployeeID,
		StartDate:  query.StartDate,
		EndDate:    query.EndDate,
	}

	total, err := a.DailyRecordRepository.Count(ctx, filter)
	if err != nil {
		return attendance.RangeResponse{}, fmt.Errorf("failed to count attendance records: %w", err)
	}

	pageFilter := filter
	pageFilter.Offset = (query.Page - 1) * query.Limit
	pageFilter.Limit = query.Limit
	records, err := a.DailyRecordRepository.List(ctx, pageFilter)
	if err != nil {
		return attendance.RangeResponse{}, fmt.Errorf("failed to list attendance records: %w", err)
	}
	if records == nil {
		records = []attendance.DailyRecord{}
	}

	summary, err := a.summarizeRange(ctx, filter)
	if err != nil {
		return attendance.RangeResponse{}, err
	}

	totalPages := 0
	if total > 0 {
		totalPages = int((total + int64(query.Limit) - 1) / int64(query.Limit))
	}

	return attendance.RangeResponse{
		StartDate:  query.StartDate,
		EndDate:    query.EndDate,
		Records:    records,
		Summary:    summary,
		TotalCount: total,
		Page:       query.Page,
		Limit:      query.Limit,
		TotalPages: totalPages,
	}, nil
}

// summarizeRange walks the whole range page by page so memory stays bounded. Each
// page resumes after the last (date, employee) key of the previous one.
func (a *AttendanceServiceImpl) summarizeRange(ctx context.Context, filter attendance.RecordFilter) (attendance.Summary, error) {
	var acc SummaryAccumulator
	filter.Offset = 0
	filter.Limit = summaryPageSize
	for {
		page, err := a.DailyRecordRepository.List(ctx, filter)
		if err != nil {
			return attendance.Summary{}, fmt.Errorf("failed to summarize attendance records: %w", err)
		}
		for _, rec := range page {
			acc.Add(rec)
		}
		if len(page) < summaryPageSize {
			break
		}
		filter.After = attendance.CursorOf(page[len(page)-1])
	}
	return acc.Summary(), nil
}

// WindowBounds returns the first and last UTC day of the window containing now.
// Weeks start on Sunday. The today window is widened by padDays on each side.
func WindowBounds(window attendance.Window, now time.Time, padDays int) (time.Time, time.Time) {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch window {
	case attendance.WindowWeek:
		start := today.AddDate(0, 0, -int(today.Weekday()))
		return start, start.AddDate(0, 0, 6)
	case attendance.WindowMonth:
		start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, -1)
	case attendance.WindowYear:
		start := time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		return start, time.Date(today.Year(), time.December, 31, 0, 0, 0, 0, time.UTC)
	default:
		return today.AddDate(0, 0, -padDays), today.AddDate(0, 0, padDays)
	}
}
