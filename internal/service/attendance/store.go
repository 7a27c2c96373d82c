package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/settings"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/keylock"
)

// DefaultSkewTolerance is how far an event may trail the latest event of its kind
// pair before it is logged as out of order.
const DefaultSkewTolerance = 2 * time.Minute

// CarryOverDays bounds how many days back an event may reach to find the session it
// belongs to when its own UTC day has none open.
const CarryOverDays = 1

// RecordStore owns the read-modify-write cycle of daily records. All writes for one
// (employee, date) key are serialized; different keys proceed in parallel.
type RecordStore struct {
	repo          attendance.DailyRecordRepository
	settings      settings.Provider
	locks         *keylock.KeyedMutex
	skewTolerance time.Duration
	logger        *slog.Logger
	now           func() time.Time
}

func NewRecordStore(repo attendance.DailyRecordRepository, provider settings.Provider, skewTolerance time.Duration, logger *slog.Logger) *RecordStore {
	if logger == nil {
		logger = slog.Default()
	}
	if skewTolerance <= 0 {
		skewTolerance = DefaultSkewTolerance
	}
	return &RecordStore{
		repo:          repo,
		settings:      provider,
		locks:         keylock.New(),
		skewTolerance: skewTolerance,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func dayKey(employeeID, date string) string {
	return employeeID + "|" + date
}

// withDay runs fn holding the in-process key lock and the repository's day transaction.
func (s *RecordStore) withDay(ctx context.Context, employeeID, date string, fn func(ctx context.Context) error) error {
	unlock := s.locks.Lock(dayKey(employeeID, date))
	defer unlock()

	return s.repo.WithinDay(ctx, employeeID, date, fn)
}

// Get returns the day's record, or an unsaved absent one when none exists.
func (s *RecordStore) Get(ctx context.Context, employeeID, date string) (attendance.DailyRecord, error) {
	existing, err := s.repo.GetRecord(ctx, employeeID, date)
	if err != nil {
		return attendance.DailyRecord{}, fmt.Errorf("failed to get attendance record: %w", err)
	}
	if existing == nil {
		return attendance.NewDailyRecord(employeeID, date), nil
	}
	return existing.Clone(), nil
}

// GetOrCreate returns the day's record, persisting an absent one when none exists.
func (s *RecordStore) GetOrCreate(ctx context.Context, employeeID, date string) (attendance.DailyRecord, error) {
	if existing, err := s.repo.GetRecord(ctx, employeeID, date); err != nil {
		return attendance.DailyRecord{}, fmt.Errorf("failed to get attendance record: %w", err)
	} else if existing != nil {
		return existing.Clone(), nil
	}

	var out attendance.DailyRecord
	err := s.withDay(ctx, employeeID, date, func(ctx context.Context) error {
		rec, err := s.Get(ctx, employeeID, date)
		if err != nil {
			return err
		}
		if rec.UpdatedAt.IsZero() {
			rec.UpdatedAt = s.now()
			if err := s.repo.SaveRecord(ctx, rec); err != nil {
				return fmt.Errorf("failed to save attendance record: %w", err)
			}
		}
		out = rec
		return nil
	})
	if err != nil {
		return attendance.DailyRecord{}, err
	}
	return out.Clone(), nil
}

// ApplyEvent folds e into the record of its UTC day. Events other than ClockIn go to an
// earlier day instead when that day still holds the open session, so a shift crossing
// midnight is closed on the day it started. The bool is false when the event had
// already been applied.
func (s *RecordStore) ApplyEvent(ctx context.Context, e attendance.Event) (attendance.DailyRecord, bool, error) {
	date, err := s.targetDay(ctx, e)
	if err != nil {
		return attendance.DailyRecord{}, false, err
	}
	return s.applyToDay(ctx, date, e)
}

// targetDay picks the day whose event log e belongs to. A previous day within
// CarryOverDays is chosen when it has the session open or already holds e.
func (s *RecordStore) targetDay(ctx context.Context, e attendance.Event) (string, error) {
	own := e.Date()
	if e.Kind == attendance.KindClockIn {
		return own, nil
	}

	rec, err := s.repo.GetRecord(ctx, e.EmployeeID, own)
	if err != nil {
		return "", fmt.Errorf("failed to get attendance record: %w", err)
	}
	if rec != nil {
		if _, open := rec.OpenSession(); open {
			return own, nil
		}
	}

	day := e.Timestamp.UTC()
	for i := 1; i <= CarryOverDays; i++ {
		date := day.AddDate(0, 0, -i).Format(attendance.DateLayout)

		prev, err := s.repo.GetRecord(ctx, e.EmployeeID, date)
		if err != nil {
			return "", fmt.Errorf("failed to get attendance record: %w", err)
		}
		if prev == nil {
			continue
		}
		if idx, open := prev.OpenSession(); open && !e.Timestamp.Before(prev.Sessions[idx].SessionStart) {
			return date, nil
		}

		events, err := s.repo.ListEvents(ctx, e.EmployeeID, date)
		if err != nil {
			return "", fmt.Errorf("failed to list day events: %w", err)
		}
		for _, logged := range events {
			if logged.Key() == e.Key() {
				s.logger.Debug("Re-delivered event already carried to earlier day",
					"employee_id", e.EmployeeID,
					"date", date,
					"kind", e.Kind,
				)
				return date, nil
			}
		}
	}
	return own, nil
}

// applyToDay folds e into the record of date, which may differ from the event's own day
// when a session that started earlier is closed.
func (s *RecordStore) applyToDay(ctx context.Context, date string, e attendance.Event) (attendance.DailyRecord, bool, error) {
	var (
		out     attendance.DailyRecord
		applied bool
	)
	err := s.withDay(ctx, e.EmployeeID, date, func(ctx context.Context) error {
		events, err := s.repo.ListEvents(ctx, e.EmployeeID, date)
		if err != nil {
			return fmt.Errorf("failed to list day events: %w", err)
		}

		s.checkSkew(events, e)

		applied, err = s.repo.AppendEvent(ctx, date, e)
		if err != nil {
			return fmt.Errorf("failed to append event: %w", err)
		}

		base, err := s.Get(ctx, e.EmployeeID, date)
		if err != nil {
			return err
		}
		if !applied && !base.UpdatedAt.IsZero() {
			out = base
			return nil
		}
		if applied {
			events = append(events, e)
		}

		rec := FoldDay(base, events, FoldConfig{Settings: s.settings.Current(), Logger: s.logger})
		rec.UpdatedAt = s.now()
		if err := s.repo.SaveRecord(ctx, rec); err != nil {
			return fmt.Errorf("failed to save attendance record: %w", err)
		}
		out = rec
		return nil
	})
	if err != nil {
		return attendance.DailyRecord{}, false, err
	}
	return out.Clone(), applied, nil
}

// closeOpenSession feeds a ClockOut at `at` into the employee's open session, wherever
// its day is. It returns ErrNoOpenSession when the employee is not clocked in.
func (s *RecordStore) closeOpenSession(ctx context.Context, employeeID string, at time.Time) (attendance.DailyRecord, error) {
	open, err := s.repo.FindOpenRecord(ctx, employeeID)
	if err != nil {
		return attendance.DailyRecord{}, fmt.Errorf("failed to find open attendance record: %w", err)
	}
	if open == nil {
		return attendance.DailyRecord{}, attendance.ErrNoOpenSession
	}

	idx, ok := open.OpenSession()
	if !ok {
		return attendance.DailyRecord{}, attendance.ErrNoOpenSession
	}
	if start := open.Sessions[idx].SessionStart; at.Before(start) {
		at = start
	}

	rec, _, err := s.applyToDay(ctx, open.Date, attendance.Event{
		EmployeeID: employeeID,
		Kind:       attendance.KindClockOut,
		Timestamp:  at.UTC(),
	})
	if err != nil {
		return attendance.DailyRecord{}, err
	}
	if _, stillOpen := rec.OpenSession(); stillOpen {
		return attendance.DailyRecord{}, attendance.ErrNoOpenSession
	}
	return rec, nil
}

// RecordScreenshots adds n to the day's screenshot counter.
func (s *RecordStore) RecordScreenshots(ctx context.Context, employeeID, date string, n int) (attendance.DailyRecord, error) {
	var out attendance.DailyRecord
	err := s.withDay(ctx, employeeID, date, func(ctx context.Context) error {
		rec, err := s.Get(ctx, employeeID, date)
		if err != nil {
			return err
		}
		rec.ScreenshotCount += n
		rec.UpdatedAt = s.now()
		if err := s.repo.SaveRecord(ctx, rec); err != nil {
			return fmt.Errorf("failed to save attendance record: %w", err)
		}
		out = rec
		return nil
	})
	if err != nil {
		return attendance.DailyRecord{}, err
	}
	return out.Clone(), nil
}


// checkSkew logs events that arrive well behind the latest accepted event of their
// kind pair. They are still applied; the fold sorts by timestamp.
func (s *RecordStore) checkSkew(events []attendance.Event, e attendance.Event) {
	pair := e.Kind.Pair()
	var latest time.Time
	for _, prev := range events {
		if prev.Kind.Pair() != pair {
			continue
		}
		if prev.Timestamp.After(latest) {
			latest = prev.Timestamp
		}
	}
	if latest.IsZero() {
		return
	}
	if lag := latest.Sub(e.Timestamp); lag > s.skewTolerance {
		s.logger.Warn("Out-of-order event beyond clock skew tolerance",
			"employee_id", e.EmployeeID,
			"kind", e.Kind,
			"timestamp", e.Timestamp,
			"latest", latest,
			"lag", lag,
			"tolerance", s.skewTolerance)
	}
}
