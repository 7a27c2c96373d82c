package attendance

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/settings"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/apperror"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/memory"
)

type staticSettings struct {
	value settings.AppSettings
}

func (s staticSettings) Current() settings.AppSettings {
	return s.value.Clone()
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []string
}

func (b *recordingBroadcaster) Notify(eventName string, payload map[string]interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, eventName)
}

func (b *recordingBroadcaster) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.events...)
}

type testEngine struct {
	svc         *AttendanceServiceImpl
	records     attendance.DailyRecordRepository
	employees   employee.EmployeeRepository
	broadcaster *recordingBroadcaster
}

func newTestEngine(t *testing.T, employeeIDs ...string) *testEngine {
	t.Helper()
	ctx := context.Background()

	records := memory.NewAttendanceRepository()
	employees := memory.NewEmployeeRepository()
	for _, id := range employeeIDs {
		_, err := employees.Create(ctx, employee.Employee{
			ID:        id,
			FullName:  "Employee " + id,
			Email:     id + "@example.com",
			IsActive:  true,
			CreatedAt: time.Now().UTC(),
		})
		require.NoError(t, err)
	}

	cfg := settings.DefaultAppSettings()
	cfg.StandardClockInTime = "09:15"
	cfg.IdleThresholdSeconds = 300

	b := &recordingBroadcaster{}
	svc := NewAttendanceService(records, employees, staticSettings{value: cfg}, b, Options{IngestConcurrency: 4}, nil)
	return &testEngine{svc: svc, records: records, employees: employees, broadcaster: b}
}

func raw(employeeID string, kind attendance.EventKind, ts string) attendance.RawEvent {
	return attendance.RawEvent{EmployeeID: employeeID, Kind: string(kind), Timestamp: ts}
}

func TestIngest_AppliesEventAndNotifies(t *testing.T) {
	e := newTestEngine(t, "emp-1")
	ctx := context.Background()

	rec, err := e.svc.Ingest(ctx, raw("emp-1", attendance.KindClockIn, "2025-01-06T10:30:00Z"))
	require.NoError(t, err)

	assert.Equal(t, "2025-01-06", rec.Date)
	assert.Equal(t, attendance.StatusPresent, rec.Status)
	assert.True(t, rec.IsDelayed)
	assert.Equal(t, 75, rec.DelayMinutes)
	assert.Equal(t, []string{"employee.clocked_in"}, e.broadcaster.names())
}

func TestIngest_ConvertsOffsetsToUTCDay(t *testing.T) {
	e := newTestEngine(t, "emp-1")

	rec, err := e.svc.Ingest(context.Background(), raw("emp-1", attendance.KindClockIn, "2025-01-07T01:00:00+07:00"))
	require.NoError(t, err)

	assert.Equal(t, "2025-01-06", rec.Date)
	require.Len(t, rec.Sessions, 1)
	assert.Equal(t, time.UTC, rec.Sessions[0].SessionStart.Location())
}

func TestIngest_RedeliveredClockInLeavesRecordUnchanged(t *testing.T) {
	e := newTestEngine(t, "emp-1")
	ctx := context.Background()
	in := raw("emp-1", attendance.KindClockIn, "2025-01-06T09:00:00Z")

	first, err := e.svc.Ingest(ctx, in)
	require.NoError(t, err)
	second, err := e.svc.Ingest(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, second.Sessions, 1)
	assert.Len(t, e.broadcaster.names(), 1)
}

func TestIngest_Rejections(t *testing.T) {
	e := newTestEngine(t, "emp-1")
	ctx := context.Background()

	tests := []struct {
		name   string
		event  attendance.RawEvent
		reason error
	}{
		{"unknown kind", raw("emp-1", "Teleport", "2025-01-06T09:00:00Z"), nil},
		{"bad timestamp", raw("emp-1", attendance.KindClockIn, "yesterday"), nil},
		{"missing employee", raw("", attendance.KindClockIn, "2025-01-06T09:00:00Z"), nil},
		{"unknown employee", raw("ghost", attendance.KindClockIn, "2025-01-06T09:00:00Z"), employee.ErrEmployeeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.svc.Ingest(ctx, tt.event)
			require.Error(t, err)

			var rejected *attendance.RejectedEvent
			require.ErrorAs(t, err, &rejected)
			assert.Equal(t, tt.event, rejected.Raw)
			if tt.reason != nil {
				assert.ErrorIs(t, err, tt.reason)
			} else {
				var verrs validator.ValidationErrors
				assert.ErrorAs(t, err, &verrs)
			}
		})
	}

	assert.Empty(t, e.broadcaster.names())
}

func TestIngest_InvalidLocationIsDropped(t *testing.T) {
	e := newTestEngine(t, "emp-1")
	event := raw("emp-1", attendance.KindClockIn, "2025-01-06T09:00:00Z")
	event.Location = &attendance.Location{Latitude: 123, Longitude: 10}

	rec, err := e.svc.Ingest(context.Background(), event)
	require.NoError(t, err)

	require.Len(t, rec.Sessions, 1)
	assert.Nil(t, rec.Sessions[0].StartLocation)
}

func TestIngest_FullDayScenario(t *testing.T) {
	e := newTestEngine(t, "emp-1")
	ctx := context.Background()

	var rec attendance.DailyRecord
	for _, ev := range []attendance.RawEvent{
		raw("emp-1", attendance.KindClockIn, "2025-01-06T09:00:00Z"),
		raw("emp-1", attendance.KindIdleStart, "2025-01-06T09:30:00Z"),
		raw("emp-1", attendance.KindIdleEnd, "2025-01-06T09:45:00Z"),
		raw("emp-1", attendance.KindClockOut, "2025-01-06T17:00:00Z"),
	} {
		var err error
		rec, err = e.svc.Ingest(ctx, ev)
		require.NoError(t, err)
	}

	assert.Equal(t, (7*time.Hour + 45*time.Minute).Milliseconds(), rec.TotalWorkDurationMs)
	assert.Equal(t, attendance.StatusPartiallyCompleted, rec.Status)
	assert.False(t, rec.IsDelayed)
	assert.Equal(t, []string{"employee.clocked_in", "employee.clocked_out"}, e.broadcaster.names())
}

func TestIngest_OutOfOrderClockOutThenClockIn(t *testing.T) {
	e := newTestEngine(t, "emp-1")
	ctx := context.Background()

	_, err := e.svc.Ingest(ctx, raw("emp-1", attendance.KindClockOut, "2025-01-06T17:00:00Z"))
	require.NoError(t, err)
	rec, err := e.svc.Ingest(ctx, raw("emp-1", attendance.KindClockIn, "2025-01-06T09:00:00Z"))
	require.NoError(t, err)

	require.Len(t, rec.Sessions, 1)
	assert.False(t, rec.Sessions[0].IsOpen())
	assert.Equal(t, (8 * time.Hour).Milliseconds(), rec.TotalWorkDurationMs)
}

func TestIngest_ConcurrentEventsForOneKey(t *testing.T) {
	e := newTestEngine(t, "emp-1")
	ctx := context.Background()

	base := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	var events []attendance.RawEvent
	for i := 0; i < 10; i++ {
		start := base.Add(time.Duration(i) * 30 * time.Minute)
		events = append(events,
			raw("emp-1", attendance.KindClockIn, start.Format(time.RFC3339)),
			raw("emp-1", attendance.KindClockOut, start.Add(20*time.Minute).Format(time.RFC3339)),
		)
	}

	var wg sync.WaitGroup
	for _, ev := range events {
		wg.Add(1)
		go func(ev attendance.RawEvent) {
			defer wg.Done()
			_, err := e.svc.Ingest(ctx, ev)
			assert.NoError(t, err)
		}(ev)
	}
	wg.Wait()

	rec, err := e.svc.GetRecord(ctx, "emp-1", "2025-01-06")
	require.NoError(t, err)
	assert.Len(t, rec.Sessions, 10)
	assert.Equal(t, (200 * time.Minute).Milliseconds(), rec.TotalWorkDurationMs)

	stored, err := e.records.ListEvents(ctx, "emp-1", "2025-01-06")
	require.NoError(t, err)
	assert.Len(t, stored, 20)
}

func TestIngestBatch_GroupsByKeyAndReportsRejections(t *testing.T) {
	e := newTestEngine(t, "emp-1", "emp-2")
	ctx := context.Background()

	result, err := e.svc.IngestBatch(ctx, attendance.IngestBatchRequest{Events: []attendance.RawEvent{
		raw("emp-2", attendance.KindClockOut, "2025-01-06T17:00:00Z"),
		raw("emp-1", attendance.KindClockIn, "2025-01-06T09:00:00Z"),
		raw("emp-2", attendance.KindClockIn, "2025-01-06T08:00:00Z"),
		raw("emp-1", attendance.KindClockIn, "2025-01-06T09:00:00Z"),
		raw("ghost", attendance.KindClockIn, "2025-01-06T09:00:00Z"),
		raw("emp-1", attendance.KindClockIn, "2025-01-07T09:00:00Z"),
	}})
	require.NoError(t, err)

	assert.Equal(t, 4, result.Accepted)
	assert.Equal(t, 1, result.Duplicates)
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, 4, result.Rejected[0].Index)

	require.Len(t, result.Records, 3)
	assert.Equal(t, "emp-1", result.Records[0].EmployeeID)
	assert.Equal(t, "2025-01-06", result.Records[0].Date)
	assert.Equal(t, "emp-2", result.Records[1].EmployeeID)
	assert.Equal(t, attendance.StatusCompletedWork, result.Records[1].Status)
	assert.Equal(t, "2025-01-07", result.Records[2].Date)
}

func TestIngestBatch_ClockOutAfterMidnightClosesPreviousDay(t *testing.T) {
	e := newTestEngine(t, "emp-1")

	result, err := e.svc.IngestBatch(context.Background(), attendance.IngestBatchRequest{Events: []attendance.RawEvent{
		raw("emp-1", attendance.KindClockOut, "2025-01-07T02:00:00Z"),
		raw("emp-1", attendance.KindClockIn, "2025-01-06T22:00:00Z"),
	}})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Accepted)
	require.Len(t, result.Records, 1)
	rec := result.Records[0]
	assert.Equal(t, "2025-01-06", rec.Date)
	assert.Equal(t, (4 * time.Hour).Milliseconds(), rec.TotalWorkDurationMs)
	assert.Equal(t, attendance.StatusPartiallyCompleted, rec.Status)
}

func TestIngestBatch_EmptyIsValidationError(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.svc.IngestBatch(context.Background(), attendance.IngestBatchRequest{})

	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}

func TestCloseOpenSession(t *testing.T) {
	e := newTestEngine(t, "emp-1")
	ctx := context.Background()

	_, err := e.svc.CloseOpenSession(ctx, "emp-1", time.Now())
	assert.ErrorIs(t, err, attendance.ErrNoOpenSession)
	assert.ErrorIs(t, err, apperror.ErrInvalidState)

	_, err = e.svc.Ingest(ctx, raw("emp-1", attendance.KindClockIn, "2025-01-06T22:00:00Z"))
	require.NoError(t, err)

	open, err := e.svc.HasOpenSession(ctx, "emp-1")
	require.NoError(t, err)
	assert.True(t, open)

	// closing after midnight lands in the day the session started
	rec, err := e.svc.CloseOpenSession(ctx, "emp-1", time.Date(2025, 1, 7, 1, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2025-01-06", rec.Date)
	require.Len(t, rec.Sessions, 1)
	assert.Equal(t, (3 * time.Hour).Milliseconds(), rec.TotalWorkDurationMs)

	open, err = e.svc.HasOpenSession(ctx, "emp-1")
	require.NoError(t, err)
	assert.False(t, open)
}

func TestIngest_SessionCrossingMidnightClosesOnStartDay(t *testing.T) {
	e := newTestEngine(t, "emp-1")
	ctx := context.Background()

	for _, ev := range []attendance.RawEvent{
		raw("emp-1", attendance.KindClockIn, "2025-01-06T22:00:00Z"),
		raw("emp-1", attendance.KindIdleStart, "2025-01-06T23:50:00Z"),
		raw("emp-1", attendance.KindIdleEnd, "2025-01-07T00:10:00Z"),
	} {
		_, err := e.svc.Ingest(ctx, ev)
		require.NoError(t, err)
	}

	out := raw("emp-1", attendance.KindClockOut, "2025-01-07T02:00:00Z")
	rec, err := e.svc.Ingest(ctx, out)
	require.NoError(t, err)

	assert.Equal(t, "2025-01-06", rec.Date)
	require.Len(t, rec.Sessions, 1)
	assert.False(t, rec.Sessions[0].IsOpen())
	assert.Equal(t, (20 * time.Minute).Milliseconds(), rec.Sessions[0].IdleDurationMs)
	assert.Equal(t, (3*time.Hour + 40*time.Minute).Milliseconds(), rec.TotalWorkDurationMs)
	assert.Equal(t, attendance.StatusPartiallyCompleted, rec.Status)

	open, err := e.svc.HasOpenSession(ctx, "emp-1")
	require.NoError(t, err)
	assert.False(t, open)

	// re-delivery after the session closed stays on the start day
	again, err := e.svc.Ingest(ctx, out)
	require.NoError(t, err)
	assert.Equal(t, rec, again)

	next, err := e.records.GetRecord(ctx, "emp-1", "2025-01-07")
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestIngest_CarryOverIsBounded(t *testing.T) {
	e := newTestEngine(t, "emp-1")
	ctx := context.Background()

	_, err := e.svc.Ingest(ctx, raw("emp-1", attendance.KindClockIn, "2025-01-05T22:00:00Z"))
	require.NoError(t, err)

	rec, err := e.svc.Ingest(ctx, raw("emp-1", attendance.KindClockOut, "2025-01-07T02:00:00Z"))
	require.NoError(t, err)
	assert.Equal(t, "2025-01-07", rec.Date)
	assert.Empty(t, rec.Sessions)

	stale, err := e.records.GetRecord(ctx, "emp-1", "2025-01-05")
	require.NoError(t, err)
	require.NotNil(t, stale)
	_, open := stale.OpenSession()
	assert.True(t, open)
}

func TestRecordScreenshots(t *testing.T) {
	e := newTestEngine(t, "emp-1")
	ctx := context.Background()

	_, err := e.svc.RecordScreenshots(ctx, attendance.ScreenshotRequest{EmployeeID: "emp-1", Date: "2025-01-06", Count: 3})
	require.NoError(t, err)
	_, err = e.svc.Ingest(ctx, raw("emp-1", attendance.KindClockIn, "2025-01-06T09:00:00Z"))
	require.NoError(t, err)
	rec, err := e.svc.RecordScreenshots(ctx, attendance.ScreenshotRequest{EmployeeID: "emp-1", Date: "2025-01-06", Count: 2})
	require.NoError(t, err)

	assert.Equal(t, 5, rec.ScreenshotCount)
	assert.Len(t, rec.Sessions, 1)

	_, err = e.svc.RecordScreenshots(ctx, attendance.ScreenshotRequest{EmployeeID: "ghost", Date: "2025-01-06", Count: 1})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestGetRecord_AbsentDayIsNotStored(t *testing.T) {
	e := newTestEngine(t, "emp-1")
	ctx := context.Background()

	rec, err := e.svc.GetRecord(ctx, "emp-1", "2025-02-01")
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusAbsent, rec.Status)
	assert.Equal(t, "2025-02-01", rec.Date)
	assert.Empty(t, rec.Sessions)

	stored, err := e.records.GetRecord(ctx, "emp-1", "2025-02-01")
	require.NoError(t, err)
	assert.Nil(t, stored)

	page, err := e.svc.GetRange(ctx, attendance.RangeQuery{StartDate: "2025-02-01", EndDate: "2025-02-01"})
	require.NoError(t, err)
	assert.Zero(t, page.Summary.RecordCount)
	assert.Empty(t, page.Records)

	_, err = e.svc.GetRecord(ctx, "ghost", "2025-02-01")
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)

	_, err = e.svc.GetRecord(ctx, "emp-1", "02/01/2025")
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}

func TestRecordStore_GetOrCreatePersistsAbsentRecord(t *testing.T) {
	e := newTestEngine(t, "emp-1")
	ctx := context.Background()

	rec, err := e.svc.store.GetOrCreate(ctx, "emp-1", "2025-02-01")
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusAbsent, rec.Status)
	assert.False(t, rec.UpdatedAt.IsZero())

	stored, err := e.records.GetRecord(ctx, "emp-1", "2025-02-01")
	require.NoError(t, err)
	require.NotNil(t, stored)

	again, err := e.svc.store.GetOrCreate(ctx, "emp-1", "2025-02-01")
	require.NoError(t, err)
	assert.Equal(t, rec, again)
}

func TestGetTimeline(t *testing.T) {
	e := newTestEngine(t, "emp-1")
	ctx := context.Background()

	for _, ev := range []attendance.RawEvent{
		raw("emp-1", attendance.KindClockIn, "2025-01-06T09:00:00Z"),
		raw("emp-1", attendance.KindClockOut, "2025-01-06T12:00:00Z"),
		raw("emp-1", attendance.KindClockIn, "2025-01-06T13:00:00Z"),
	} {
		_, err := e.svc.Ingest(ctx, ev)
		require.NoError(t, err)
	}

	entries, err := e.svc.GetTimeline(ctx, "emp-1", "2025-01-06")
	require.NoError(t, err)

	require.Len(t, entries, 3)
	assert.Equal(t, attendance.KindClockIn, entries[0].Kind)
	assert.Equal(t, attendance.KindClockOut, entries[1].Kind)
	assert.Equal(t, attendance.KindClockIn, entries[2].Kind)
}

func seedDays(t *testing.T, e *testEngine, employeeID string, start time.Time, days int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i)
		_, err := e.svc.Ingest(ctx, raw(employeeID, attendance.KindClockIn, day.Add(9*time.Hour).Format(time.RFC3339)))
		require.NoError(t, err)
		_, err = e.svc.Ingest(ctx, raw(employeeID, attendance.KindClockOut, day.Add(18*time.Hour).Format(time.RFC3339)))
		require.NoError(t, err)
	}
}

func TestGetRange_PaginatesAndSummarizesWholeRange(t *testing.T) {
	e := newTestEngine(t, "emp-1", "emp-2")
	ctx := context.Background()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	seedDays(t, e, "emp-1", start, 10)
	seedDays(t, e, "emp-2", start, 10)

	resp, err := e.svc.GetRange(ctx, attendance.RangeQuery{StartDate: "2025-01-01", EndDate: "2025-01-10", Page: 2, Limit: 5})
	require.NoError(t, err)

	assert.Equal(t, int64(20), resp.TotalCount)
	assert.Equal(t, 4, resp.TotalPages)
	require.Len(t, resp.Records, 5)
	assert.Equal(t, "2025-01-03", resp.Records[0].Date)
	assert.Equal(t, "emp-2", resp.Records[0].EmployeeID)
	assert.Equal(t, "2025-01-04", resp.Records[1].Date)
	assert.Equal(t, "emp-1", resp.Records[1].EmployeeID)

	assert.Equal(t, 20, resp.Summary.RecordCount)
	assert.Equal(t, 20, resp.Summary.DaysPresent)
	assert.Equal(t, (20 * 9 * time.Hour).Milliseconds(), resp.Summary.TotalWorkDurationMs)
	assert.Equal(t, (20 * time.Hour).Milliseconds(), resp.Summary.TotalOvertimeMs)
	assert.Equal(t, float64(100), resp.Summary.ProductivityPercent)
}

func TestGetRange_SummaryVisitsEveryRecordAcrossPages(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	const employees, days = 170, 3
	for i := 0; i < employees; i++ {
		for d := 0; d < days; d++ {
			rec := attendance.NewDailyRecord(fmt.Sprintf("emp-%03d", i), fmt.Sprintf("2025-04-%02d", d+1))
			rec.TotalWorkDurationMs = time.Hour.Milliseconds()
			rec.ScreenshotCount = 1
			rec.UpdatedAt = time.Now().UTC()
			require.NoError(t, e.records.SaveRecord(ctx, rec))
		}
	}

	resp, err := e.svc.GetRange(ctx, attendance.RangeQuery{StartDate: "2025-04-01", EndDate: "2025-04-30", Page: 1, Limit: 10})
	require.NoError(t, err)

	total := employees * days
	require.Greater(t, total, summaryPageSize)
	assert.Equal(t, int64(total), resp.TotalCount)
	assert.Equal(t, total, resp.Summary.RecordCount)
	assert.Equal(t, total, resp.Summary.ScreenshotCount)
	assert.Equal(t, int64(total)*time.Hour.Milliseconds(), resp.Summary.TotalWorkDurationMs)
}

func TestGetRange_FiltersByEmployeeAndRoundTrips(t *testing.T) {
	e := newTestEngine(t, "emp-1", "emp-2")
	ctx := context.Background()
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	seedDays(t, e, "emp-1", start, 3)
	seedDays(t, e, "emp-2", start, 3)

	emp := "emp-1"
	resp, err := e.svc.GetRange(ctx, attendance.RangeQuery{EmployeeID: &emp, StartDate: "2025-03-01", EndDate: "2025-03-03"})
	require.NoError(t, err)

	require.Len(t, resp.Records, 3)
	for i, rec := range resp.Records {
		assert.Equal(t, "emp-1", rec.EmployeeID)
		assert.Equal(t, fmt.Sprintf("2025-03-0%d", i+1), rec.Date)

		single, err := e.svc.GetRecord(ctx, "emp-1", rec.Date)
		require.NoError(t, err)
		assert.Equal(t, single, rec)
	}
	assert.Equal(t, attendance.DefaultPageLimit, resp.Limit)
}

func TestGetRange_Validation(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	tests := []attendance.RangeQuery{
		{StartDate: "2025-01-10", EndDate: "2025-01-01"},
		{StartDate: "2025-13-01", EndDate: "2025-01-01"},
		{StartDate: "2024-01-01", EndDate: "2025-12-31"},
		{StartDate: "2025-01-01", EndDate: "2025-01-02", Limit: attendance.MaxPageLimit + 1},
	}
	for _, q := range tests {
		_, err := e.svc.GetRange(ctx, q)
		var verrs validator.ValidationErrors
		assert.ErrorAs(t, err, &verrs, "query %+v", q)
	}
}

func TestGetWindow(t *testing.T) {
	e := newTestEngine(t, "emp-1")
	ctx := context.Background()
	// Wednesday
	e.svc.now = func() time.Time { return time.Date(2025, 1, 8, 12, 0, 0, 0, time.UTC) }
	seedDays(t, e, "emp-1", time.Date(2025, 1, 4, 0, 0, 0, 0, time.UTC), 7)

	today, err := e.svc.GetWindow(ctx, nil, attendance.WindowToday, 0, 0)
	require.NoError(t, err)
	require.Len(t, today.Records, 1)
	assert.Equal(t, "2025-01-08", today.Records[0].Date)

	week, err := e.svc.GetWindow(ctx, nil, attendance.WindowWeek, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-05", week.StartDate)
	assert.Equal(t, "2025-01-11", week.EndDate)
	assert.Len(t, week.Records, 6)

	month, err := e.svc.GetWindow(ctx, nil, attendance.WindowMonth, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-31", month.EndDate)
	assert.Len(t, month.Records, 7)

	_, err = e.svc.GetWindow(ctx, nil, attendance.Window("decade"), 0, 0)
	assert.ErrorIs(t, err, attendance.ErrInvalidWindow)
}

func TestWindowBounds(t *testing.T) {
	now := time.Date(2024, 2, 14, 23, 59, 0, 0, time.UTC)

	start, end := WindowBounds(attendance.WindowToday, now, 1)
	assert.Equal(t, "2024-02-13", start.Format(attendance.DateLayout))
	assert.Equal(t, "2024-02-15", end.Format(attendance.DateLayout))

	start, end = WindowBounds(attendance.WindowMonth, now, 0)
	assert.Equal(t, "2024-02-01", start.Format(attendance.DateLayout))
	assert.Equal(t, "2024-02-29", end.Format(attendance.DateLayout))

	start, end = WindowBounds(attendance.WindowYear, now, 0)
	assert.Equal(t, "2024-01-01", start.Format(attendance.DateLayout))
	assert.Equal(t, "2024-12-31", end.Format(attendance.DateLayout))
}
