package cron

import (
	"context"
	"fmt"
	"time"
)

// SettingsReloader is implemented by the settings service.
type SettingsReloader interface {
	Reload(ctx context.Context) error
}

// RegisterSettingsRefresh keeps the in-memory AppSettings cache in step with the store,
// so an update made through another instance reaches this one.
func RegisterSettingsRefresh(s *Scheduler, reloader SettingsReloader, interval time.Duration) {
	s.AddJob(Job{
		Name:         "refresh_app_settings",
		Interval:     interval,
		SkipFirstRun: true,
		Fn: func(ctx context.Context) error {
			if err := reloader.Reload(ctx); err != nil {
				return fmt.Errorf("reload app settings: %w", err)
			}
			return nil
		},
	})
}
