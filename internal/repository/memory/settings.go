package memory

import (
	"context"
	"sync"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/settings"
)

type settingsRepositoryImpl struct {
	mu    sync.RWMutex
	saved *settings.AppSettings
}

func NewSettingsRepository() settings.Repository {
	return &settingsRepositoryImpl{}
}

func (r *settingsRepositoryImpl) Get(ctx context.Context) (*settings.AppSettings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.saved == nil {
		return nil, nil
	}
	cp := r.saved.Clone()
	return &cp, nil
}

func (r *settingsRepositoryImpl) Save(ctx context.Context, s settings.AppSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := s.Clone()
	r.saved = &cp
	return nil
}
