package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/notification"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/settings"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

// Options tune the engine; zero values fall back to defaults.
type Options struct {
	SkewTolerance     time.Duration
	TodayPaddingDays  int
	IngestConcurrency int
	MaxRangeDays      int
}

const (
	DefaultIngestConcurrency = 8
	DefaultMaxRangeDays      = 366
)

type AttendanceServiceImpl struct {
	attendance.DailyRecordRepository
	employee.EmployeeRepository

	normalizer  *Normalizer
	store       *RecordStore
	broadcaster notification.Broadcaster
	opts        Options
	logger      *slog.Logger
	now         func() time.Time
}

func NewAttendanceService(
	recordRepo attendance.DailyRecordRepository,
	employeeRepo employee.EmployeeRepository,
	settingsProvider settings.Provider,
	broadcaster notification.Broadcaster,
	opts Options,
	logger *slog.Logger,
) *AttendanceServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	if broadcaster == nil {
		broadcaster = notification.Nop{}
	}
	if opts.IngestConcurrency <= 0 {
		opts.IngestConcurrency = DefaultIngestConcurrency
	}
	if opts.MaxRangeDays <= 0 {
		opts.MaxRangeDays = DefaultMaxRangeDays
	}
	if opts.TodayPaddingDays < 0 {
		opts.TodayPaddingDays = 0
	}

	return &AttendanceServiceImpl{
		DailyRecordRepository: recordRepo,
		EmployeeRepository:    employeeRepo,
		normalizer:            NewNormalizer(employeeRepo, logger),
		store:                 NewRecordStore(recordRepo, settingsProvider, opts.SkewTolerance, logger),
		broadcaster:           broadcaster,
		opts:                  opts,
		logger:                logger,
		now:                   func() time.Time { return time.Now().UTC() },
	}
}

// Ingest implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) Ingest(ctx context.Context, raw attendance.RawEvent) (attendance.DailyRecord, error) {
	e, err := a.normalizer.Normalize(ctx, raw)
	if err != nil {
		return attendance.DailyRecord{}, err
	}

	rec, applied, err := a.store.ApplyEvent(ctx, e)
	if err != nil {
		return attendance.DailyRecord{}, err
	}
	if applied {
		a.notifyClock(e, rec)
	}
	return rec, nil
}

// IngestBatch implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) IngestBatch(ctx context.Context, req attendance.IngestBatchRequest) (attendance.IngestResult, error) {
	if err := req.Validate(); err != nil {
		return attendance.IngestResult{}, err
	}

	result := attendance.IngestResult{
		Rejected: []attendance.RejectedEventResponse{},
		Records:  []attendance.DailyRecord{},
	}

	groups := make(map[string][]attendance.Event)
	var order []string
	for i, raw := range req.Events {
		e, err := a.normalizer.Normalize(ctx, raw)
		if err != nil {
			var rejected *attendance.RejectedEvent
			if !errors.As(err, &rejected) {
				return attendance.IngestResult{}, err
			}
			result.Rejected = append(result.Rejected, attendance.RejectedEventResponse{
				Index:  i,
				Event:  raw,
				Reason: rejected.Reason.Error(),
			})
			continue
		}

		// one group per employee: an event may be carried into the previous day's
		// session, so an employee's days cannot be applied out of order
		key := e.EmployeeID
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], e)
	}

	var (
		mu      sync.Mutex
		records = make(map[string]attendance.DailyRecord)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.IngestConcurrency)

	for _, key := range order {
		key := key
		events := groups[key]
		sort.SliceStable(events, func(i, j int) bool {
			return events[i].Timestamp.Before(events[j].Timestamp)
		})

		g.Go(func() error {
			var (
				last            = make(map[string]attendance.DailyRecord)
				accepted, dupes int
			)
			for _, e := range events {
				rec, applied, err := a.store.ApplyEvent(gctx, e)
				if err != nil {
					return fmt.Errorf("failed to apply event for %s: %w", key, err)
				}
				if applied {
					accepted++
					a.notifyClock(e, rec)
				} else {
					dupes++
				}
				last[dayKey(rec.EmployeeID, rec.Date)] = rec
			}

			mu.Lock()
			defer mu.Unlock()
			result.Accepted += accepted
			result.Duplicates += dupes
			for k, rec := range last {
				records[k] = rec
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return attendance.IngestResult{}, err
	}

	for _, rec := range records {
		result.Records = append(result.Records, rec)
	}
	sortRecords(result.Records)

	a.logger.Info("Attendance batch ingested",
		"received", len(req.Events),
		"accepted", result.Accepted,
		"duplicates", result.Duplicates,
		"rejected", len(result.Rejected),
		"days", len(result.Records))

	return result, nil
}

// CloseOpenSession implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) CloseOpenSession(ctx context.Context, employeeID string, at time.Time) (attendance.DailyRecord, error) {
	rec, err := a.store.closeOpenSession(ctx, employeeID, at)
	if err != nil {
		return attendance.DailyRecord{}, err
	}
	a.notifyClock(attendance.Event{EmployeeID: employeeID, Kind: attendance.KindClockOut, Timestamp: at.UTC()}, rec)
	return rec, nil
}

// HasOpenSession implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) HasOpenSession(ctx context.Context, employeeID string) (bool, error) {
	rec, err := a.DailyRecordRepository.FindOpenRecord(ctx, employeeID)
	if err != nil {
		return false, fmt.Errorf("failed to find open attendance record: %w", err)
	}
	return rec != nil, nil
}

// RecordScreenshots implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) RecordScreenshots(ctx context.Context, req attendance.ScreenshotRequest) (attendance.DailyRecord, error) {
	req.EmployeeID = strings.TrimSpace(req.EmployeeID)
	if err := req.Validate(); err != nil {
		return attendance.DailyRecord{}, err
	}
	if err := a.ensureEmployee(ctx, req.EmployeeID); err != nil {
		return attendance.DailyRecord{}, err
	}
	return a.store.RecordScreenshots(ctx, req.EmployeeID, req.Date, req.Count)
}

// GetRecord implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetRecord(ctx context.Context, employeeID string, date string) (attendance.DailyRecord, error) {
	if err := validateDayKey(employeeID, date); err != nil {
		return attendance.DailyRecord{}, err
	}
	if err := a.ensureEmployee(ctx, employeeID); err != nil {
		return attendance.DailyRecord{}, err
	}
	return a.store.Get(ctx, employeeID, date)
}

// GetTimeline implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetTimeline(ctx context.Context, employeeID string, date string) ([]attendance.TimelineEntry, error) {
	rec, err := a.GetRecord(ctx, employeeID, date)
	if err != nil {
		return nil, err
	}
	return Timeline(rec), nil
}

func (a *AttendanceServiceImpl) ensureEmployee(ctx context.Context, employeeID string) error {
	exists, err := a.EmployeeRepository.Exists(ctx, employeeID)
	if err != nil {
		return fmt.Errorf("failed to resolve employee %s: %w", employeeID, err)
	}
	if !exists {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

func (a *AttendanceServiceImpl) notifyClock(e attendance.Event, rec attendance.DailyRecord) {
	var name string
	switch e.Kind {
	case attendance.KindClockIn:
		name = notification.EventClockedIn
	case attendance.KindClockOut:
		name = notification.EventClockedOut
	default:
		return
	}

	a.broadcaster.Notify(name, map[string]interface{}{
		notification.PayloadEmployeeKey: e.EmployeeID,
		"date":                          rec.Date,
		"timestamp":                     e.Timestamp,
		"status":                        rec.Status,
		"isDelayed":                     rec.IsDelayed,
		"totalWorkDurationMs":           rec.TotalWorkDurationMs,
	})
}

func validateDayKey(employeeID, date string) error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(employeeID) {
		errs = append(errs, validator.ValidationError{Field: "employeeId", Message: "employeeId is required"})
	}
	if _, ok := validator.IsValidDate(date); !ok {
		errs = append(errs, validator.ValidationError{Field: "date", Message: "date must be in YYYY-MM-DD format"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// sortRecords orders by date then employee, the order every range read returns.
func sortRecords(records []attendance.DailyRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Date != records[j].Date {
			return records[i].Date < records[j].Date
		}
		return records[i].EmployeeID < records[j].EmployeeID
	})
}

var _ attendance.AttendanceService = (*AttendanceServiceImpl)(nil)
