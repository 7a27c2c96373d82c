package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/request"
)

type requestRepositoryImpl struct {
	mu       sync.RWMutex
	requests map[string]request.Request
}

func NewRequestRepository() request.RequestRepository {
	return &requestRepositoryImpl{requests: make(map[string]request.Request)}
}

func (r *requestRepositoryImpl) CreatePending(ctx context.Context, req request.Request) (request.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.requests {
		if existing.Kind == req.Kind && existing.EmployeeID == req.EmployeeID && existing.Status == request.StatusPending {
			return request.Request{}, request.ErrPendingRequestExists
		}
	}

	req.Status = request.StatusPending
	r.requests[req.ID] = req
	return req, nil
}

func (r *requestRepositoryImpl) GetByID(ctx context.Context, id string) (request.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	req, ok := r.requests[id]
	if !ok {
		return request.Request{}, request.ErrRequestNotFound
	}
	return req, nil
}

func (r *requestRepositoryImpl) Complete(ctx context.Context, id string, c request.Completion) (request.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[id]
	if !ok {
		return request.Request{}, request.ErrRequestNotFound
	}
	if req.Status != request.StatusPending {
		return request.Request{}, request.ErrRequestNotPending
	}

	processedAt := c.ProcessedAt
	processedBy := c.ProcessedBy
	req.Status = c.Status
	req.ProcessedAt = &processedAt
	req.ProcessedBy = &processedBy
	req.AdminNotes = c.AdminNotes
	r.requests[id] = req
	return req, nil
}

func (r *requestRepositoryImpl) List(ctx context.Context, filter request.Filter) ([]request.Request, int64, error) {
	r.mu.RLock()
	var matched []request.Request
	for _, req := range r.requests {
		if filter.Kind != "" && req.Kind != filter.Kind {
			continue
		}
		if filter.EmployeeID != nil && req.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.Status != nil && req.Status != *filter.Status {
			continue
		}
		matched = append(matched, req)
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].RequestedAt.Equal(matched[j].RequestedAt) {
			return matched[i].RequestedAt.After(matched[j].RequestedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := int64(len(matched))
	offset := (filter.Page - 1) * filter.Limit
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return []request.Request{}, total, nil
	}
	end := len(matched)
	if filter.Limit > 0 && offset+filter.Limit < end {
		end = offset + filter.Limit
	}
	return matched[offset:end], total, nil
}
