package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/bureau-roster-api/internal/models"
	"github.com/noah-isme/bureau-roster-api/pkg/database"
)

// BlacklistRepository persists blacklist entries.
type BlacklistRepository struct {
	db *sqlx.DB
}

// NewBlacklistRepository constructs the repository.
func NewBlacklistRepository(db *sqlx.DB) *BlacklistRepository {
	return &BlacklistRepository{db: db}
}

// Create inserts an entry.
func (r *BlacklistRepository) Create(ctx context.Context, entry *models.BlacklistEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO blacklist (id, nickname, reason, term, issuer_nickname, created_at)
	VALUES (:id, :nickname, :reason, :term, :issuer_nickname, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, database.Executor(ctx, r.db), query, entry); err != nil {
		return fmt.Errorf("create blacklist entry: %w", err)
	}
	return nil
}

// List returns entries newest first.
func (r *BlacklistRepository) List(ctx context.Context) ([]models.BlacklistEntry, error) {
	const query = `SELECT id, nickname, reason, term, issuer_nickname, created_at FROM blacklist ORDER BY created_at DESC`
	var entries []models.BlacklistEntry
	if err := sqlx.SelectContext(ctx, database.Executor(ctx, r.db), &entries, query); err != nil {
		return nil, fmt.Errorf("list blacklist: %w", err)
	}
	return entries, nil
}

// GetByID fetches one entry.
func (r *BlacklistRepository) GetByID(ctx context.Context, id string) (*models.BlacklistEntry, error) {
	const query = `SELECT id, nickname, reason, term, issuer_nickname, created_at FROM blacklist WHERE id = $1`
	var entry models.BlacklistEntry
	if err := sqlx.GetContext(ctx, database.Executor(ctx, r.db), &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// ExistsByNickname reports whether the nickname is blacklisted, ignoring case.
func (r *BlacklistRepository) ExistsByNickname(ctx context.Context, nickname string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM blacklist WHERE LOWER(nickname) = LOWER($1))`
	var exists bool
	if err := sqlx.GetContext(ctx, database.Executor(ctx, r.db), &exists, query, nickname); err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}
	return exists, nil
}

// Delete removes an entry.
func (r *BlacklistRepository) Delete(ctx context.Context, id string) error {
	result, err := database.Executor(ctx, r.db).ExecContext(ctx, `DELETE FROM blacklist WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete blacklist entry: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check blacklist delete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
