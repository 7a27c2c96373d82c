package request

import "context"

// Workflow is the Pending -> Approved | Rejected state machine for one request kind.
type Workflow interface {
	Kind() Kind
	Submit(ctx context.Context, req SubmitRequest) (Request, error)
	Process(ctx context.Context, req ProcessRequest) (Request, error)
	Get(ctx context.Context, id string) (Request, error)
	List(ctx context.Context, filter Filter) (ListResponse, error)
}
