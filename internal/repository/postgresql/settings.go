package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/settings"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
)

type settingsRepositoryImpl struct {
	db *database.DB
}

// NewSettingsRepository stores AppSettings as a single JSONB row.
func NewSettingsRepository(db *database.DB) settings.Repository {
	return &settingsRepositoryImpl{db: db}
}

func (r *settingsRepositoryImpl) Get(ctx context.Context) (*settings.AppSettings, error) {
	q := GetQuerier(ctx, r.db)

	var data []byte
	err := q.QueryRow(ctx, `SELECT data FROM app_settings WHERE id = 1`).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get app settings: %w", err)
	}

	var s settings.AppSettings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode app settings: %w", err)
	}
	s.UpdatedAt = s.UpdatedAt.UTC()
	return &s, nil
}

func (r *settingsRepositoryImpl) Save(ctx context.Context, s settings.AppSettings) error {
	q := GetQuerier(ctx, r.db)

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode app settings: %w", err)
	}

	query := `
		INSERT INTO app_settings (id, data, updated_at) VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
	`
	if _, err := q.Exec(ctx, query, data, s.UpdatedAt); err != nil {
		return fmt.Errorf("failed to save app settings: %w", err)
	}
	return nil
}
