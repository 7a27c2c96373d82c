package attendance

import (
	"context"
)

// DailyRecordRepository persists the per-day event log and the folded record.
// Writers for one (employeeID, date) must go through WithinDay.
type DailyRecordRepository interface {
	// WithinDay runs fn atomically for the day key. Implementations backed by a shared
	// database also serialize concurrent writers of other processes for the same key.
	WithinDay(ctx context.Context, employeeID string, date string, fn func(ctx context.Context) error) error

	// AppendEvent adds e to the day's event log; it returns false when an identical
	// event (same employee, kind and timestamp) is already stored.
	AppendEvent(ctx context.Context, date string, e Event) (bool, error)

	// ListEvents returns the day's events in insertion order
	ListEvents(ctx context.Context, employeeID string, date string) ([]Event, error)

	// GetRecord returns nil when no record exists for the day
	GetRecord(ctx context.Context, employeeID string, date string) (*DailyRecord, error)

	// SaveRecord inserts or replaces the record for (EmployeeID, Date)
	SaveRecord(ctx context.Context, record DailyRecord) error

	// FindOpenRecord returns the most recent record of the employee holding an open
	// session, or nil
	FindOpenRecord(ctx context.Context, employeeID string) (*DailyRecord, error)

	// List returns records in [StartDate, EndDate] ordered by date then employee
	List(ctx context.Context, filter RecordFilter) ([]DailyRecord, error)

	// Count returns the number of records matching the filter, ignoring Offset/Limit
	Count(ctx context.Context, filter RecordFilter) (int64, error)
}
