package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/bureau-roster-api/internal/models"
	"github.com/noah-isme/bureau-roster-api/pkg/database"
)

// SettingsRepository stores rule and name tables as JSON values by key.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository constructs the repository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// List returns every stored setting.
func (r *SettingsRepository) List(ctx context.Context) ([]models.SettingRecord, error) {
	const query = `SELECT key, value, updated_by, updated_at FROM settings ORDER BY key`
	var records []models.SettingRecord
	if err := sqlx.SelectContext(ctx, database.Executor(ctx, r.db), &records, query); err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	return records, nil
}

// Upsert writes a setting value.
func (r *SettingsRepository) Upsert(ctx context.Context, record *models.SettingRecord) error {
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO settings (key, value, updated_by, updated_at)
	VALUES (:key, :value, :updated_by, :updated_at)
	ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`
	if _, err := sqlx.NamedExecContext(ctx, database.Executor(ctx, r.db), query, record); err != nil {
		return fmt.Errorf("upsert setting %s: %w", record.Key, err)
	}
	return nil
}
