package settings

import "context"

type Repository interface {
	// Get returns the stored settings, or nil when none have been saved yet.
	Get(ctx context.Context) (*AppSettings, error)
	Save(ctx context.Context, s AppSettings) error
}
