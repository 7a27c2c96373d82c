package settings

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/notification"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/settings"
)

// SettingsServiceImpl caches AppSettings in memory. Every fold reads a snapshot through
// Current, so readers never observe a half-applied update.
type SettingsServiceImpl struct {
	settings.Repository
	broadcaster notification.Broadcaster

	mu      sync.RWMutex
	current settings.AppSettings

	// serializes Update so concurrent partial updates do not overwrite each other
	writeMu sync.Mutex
	now     func() time.Time
}

func NewSettingsService(repo settings.Repository, broadcaster notification.Broadcaster) *SettingsServiceImpl {
	if broadcaster == nil {
		broadcaster = notification.Nop{}
	}
	return &SettingsServiceImpl{
		Repository:  repo,
		broadcaster: broadcaster,
		current:     settings.DefaultAppSettings(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Current implements settings.Provider.
func (s *SettingsServiceImpl) Current() settings.AppSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Load implements settings.Service.
func (s *SettingsServiceImpl) Load(ctx context.Context, defaults settings.AppSettings) error {
	stored, err := s.Repository.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to load app settings: %w", err)
	}

	if stored == nil {
		seed := defaults.Clone()
		seed.UpdatedAt = s.now()
		if err := s.Repository.Save(ctx, seed); err != nil {
			return fmt.Errorf("failed to seed app settings: %w", err)
		}
		slog.Info("App settings seeded from defaults",
			"standard_clock_in_time", seed.StandardClockInTime,
			"idle_threshold_seconds", seed.IdleThresholdSeconds)
		stored = &seed
	}

	s.set(*stored)
	return nil
}

// Update implements settings.Service.
func (s *SettingsServiceImpl) Update(ctx context.Context, req settings.UpdateSettingsRequest, updatedBy string) (settings.AppSettings, error) {
	if err := req.Validate(); err != nil {
		return settings.AppSettings{}, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := req.Apply(s.Current())
	next.UpdatedAt = s.now()
	if updatedBy != "" {
		by := updatedBy
		next.UpdatedBy = &by
	}

	if err := s.Repository.Save(ctx, next); err != nil {
		return settings.AppSettings{}, fmt.Errorf("failed to save app settings: %w", err)
	}
	s.set(next)

	slog.Info("App settings updated", "updated_by", updatedBy, "maintenance_mode", next.MaintenanceMode)
	s.broadcaster.Notify(notification.EventSettingsUpdated, map[string]interface{}{
		"updatedAt":       next.UpdatedAt,
		"updatedBy":       updatedBy,
		"maintenanceMode": next.MaintenanceMode,
	})

	return next.Clone(), nil
}

// Reload implements settings.Service.
func (s *SettingsServiceImpl) Reload(ctx context.Context) error {
	stored, err := s.Repository.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to reload app settings: %w", err)
	}
	if stored == nil {
		return nil
	}

	s.mu.Lock()
	changed := stored.UpdatedAt.After(s.current.UpdatedAt)
	if changed {
		s.current = stored.Clone()
	}
	s.mu.Unlock()

	if changed {
		slog.Info("App settings refreshed from store", "updated_at", stored.UpdatedAt)
	}
	return nil
}

func (s *SettingsServiceImpl) set(v settings.AppSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = v.Clone()
}

var _ settings.Service = (*SettingsServiceImpl)(nil)
