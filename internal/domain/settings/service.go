package settings

import "context"

// Provider hands out the settings snapshot used by a single computation.
type Provider interface {
	Current() AppSettings
}

type Service interface {
	Provider

	// Load reads the stored settings once at startup, seeding defaults when the store is empty
	Load(ctx context.Context, defaults AppSettings) error

	// Update validates and persists a partial update
	Update(ctx context.Context, req UpdateSettingsRequest, updatedBy string) (AppSettings, error)

	// Reload refreshes the cache from the store
	Reload(ctx context.Context) error
}
