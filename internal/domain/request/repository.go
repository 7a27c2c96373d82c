package request

import "context"

type RequestRepository interface {
	// CreatePending stores a new pending request. It returns ErrPendingRequestExists when
	// the employee already has a pending request of the same kind.
	CreatePending(ctx context.Context, r Request) (Request, error)

	// GetByID returns ErrRequestNotFound for unknown ids
	GetByID(ctx context.Context, id string) (Request, error)

	// Complete moves a pending request to a terminal status; it returns ErrRequestNotPending
	// when the request is no longer pending at write time.
	Complete(ctx context.Context, id string, c Completion) (Request, error)

	List(ctx context.Context, filter Filter) ([]Request, int64, error)
}
