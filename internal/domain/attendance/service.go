package attendance

import (
	"context"
	"time"
)

// AttendanceService is the ingestion and read surface of the aggregation engine.
type AttendanceService interface {
	// Ingest normalizes and applies one raw event. Rejections come back as *RejectedEvent.
	Ingest(ctx context.Context, raw RawEvent) (DailyRecord, error)

	// IngestBatch applies many events, in parallel across (employee, day) keys
	IngestBatch(ctx context.Context, req IngestBatchRequest) (IngestResult, error)

	// CloseOpenSession feeds a ClockOut at `at` into the employee's currently open session
	CloseOpenSession(ctx context.Context, employeeID string, at time.Time) (DailyRecord, error)

	// HasOpenSession reports whether the employee is currently clocked in
	HasOpenSession(ctx context.Context, employeeID string) (bool, error)

	// RecordScreenshots adds to the day's screenshot counter
	RecordScreenshots(ctx context.Context, req ScreenshotRequest) (DailyRecord, error)

	// GetRecord returns the employee's record for the day, creating an absent record if needed
	GetRecord(ctx context.Context, employeeID string, date string) (DailyRecord, error)

	// GetTimeline returns the clock-in/clock-out timeline for the day
	GetTimeline(ctx context.Context, employeeID string, date string) ([]TimelineEntry, error)

	// GetRange answers a date-range query with a summary over the whole range
	GetRange(ctx context.Context, query RangeQuery) (RangeResponse, error)

	// GetWindow answers today/week/month/year queries
	GetWindow(ctx context.Context, employeeID *string, window Window, page int, limit int) (RangeResponse, error)
}
