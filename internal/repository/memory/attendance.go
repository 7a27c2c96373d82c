// Package memory holds in-process repositories. They are the default store for a
// single engine instance and back the service tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
)

type dayKey struct {
	employeeID string
	date       string
}

type attendanceRepositoryImpl struct {
	mu        sync.RWMutex
	events    map[dayKey][]attendance.Event
	eventKeys map[string]struct{}
	records   map[dayKey]attendance.DailyRecord
}

func NewAttendanceRepository() attendance.DailyRecordRepository {
	return &attendanceRepositoryImpl{
		events:    make(map[dayKey][]attendance.Event),
		eventKeys: make(map[string]struct{}),
		records:   make(map[dayKey]attendance.DailyRecord),
	}
}

// WithinDay runs fn directly. Per-key exclusion inside the process is the caller's
// key lock; there is no other process to coordinate with.
func (r *attendanceRepositoryImpl) WithinDay(ctx context.Context, employeeID string, date string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}

func (r *attendanceRepositoryImpl) AppendEvent(ctx context.Context, date string, e attendance.Event) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := date + "|" + e.Key()
	if _, dup := r.eventKeys[k]; dup {
		return false, nil
	}
	r.eventKeys[k] = struct{}{}

	key := dayKey{employeeID: e.EmployeeID, date: date}
	r.events[key] = append(r.events[key], e)
	return true, nil
}

func (r *attendanceRepositoryImpl) ListEvents(ctx context.Context, employeeID string, date string) ([]attendance.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.events[dayKey{employeeID: employeeID, date: date}]
	out := make([]attendance.Event, len(stored))
	copy(out, stored)
	return out, nil
}

func (r *attendanceRepositoryImpl) GetRecord(ctx context.Context, employeeID string, date string) (*attendance.DailyRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[dayKey{employeeID: employeeID, date: date}]
	if !ok {
		return nil, nil
	}
	cp := rec.Clone()
	return &cp, nil
}

func (r *attendanceRepositoryImpl) SaveRecord(ctx context.Context, record attendance.DailyRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[dayKey{employeeID: record.EmployeeID, date: record.Date}] = record.Clone()
	return nil
}

func (r *attendanceRepositoryImpl) FindOpenRecord(ctx context.Context, employeeID string) (*attendance.DailyRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found *attendance.DailyRecord
	for key, rec := range r.records {
		if key.employeeID != employeeID {
			continue
		}
		if _, open := rec.OpenSession(); !open {
			continue
		}
		if found == nil || rec.Date > found.Date {
			cp := rec.Clone()
			found = &cp
		}
	}
	return found, nil
}

func (r *attendanceRepositoryImpl) List(ctx context.Context, filter attendance.RecordFilter) ([]attendance.DailyRecord, error) {
	matched := r.match(filter)

	if filter.Offset >= len(matched) {
		return []attendance.DailyRecord{}, nil
	}
	end := len(matched)
	if filter.Limit > 0 && filter.Offset+filter.Limit < end {
		end = filter.Offset + filter.Limit
	}
	return matched[filter.Offset:end], nil
}

func (r *attendanceRepositoryImpl) Count(ctx context.Context, filter attendance.RecordFilter) (int64, error) {
	return int64(len(r.match(filter))), nil
}

func (r *attendanceRepositoryImpl) match(filter attendance.RecordFilter) []attendance.DailyRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []attendance.DailyRecord
	for key, rec := range r.records {
		if filter.EmployeeID != nil && key.employeeID != *filter.EmployeeID {
			continue
		}
		if key.date < filter.StartDate || key.date > filter.EndDate {
			continue
		}
		if filter.After != nil && !filter.After.Before(key.date, key.employeeID) {
			continue
		}
		out = append(out, rec.Clone())
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})
	return out
}
