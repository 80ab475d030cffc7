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

const newsColumns = `id, kind, title, content, author, pinned, archived, created_at, updated_at`

// NewsRepository persists news feed items, raids and raid comments.
type NewsRepository struct {
	db *sqlx.DB
}

// NewNewsRepository constructs the repository.
func NewNewsRepository(db *sqlx.DB) *NewsRepository {
	return &NewsRepository{db: db}
}

// Create inserts an item. Kind defaults to news.
func (r *NewsRepository) Create(ctx context.Context, item *models.NewsItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Kind == "" {
		item.Kind = models.ContentKindNews
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO news (id, kind, title, content, author, pinned, archived, created_at)
	VALUES (:id, :kind, :title, :content, :author, :pinned, :archived, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, database.Executor(ctx, r.db), query, item); err != nil {
		return fmt.Errorf("create news: %w", err)
	}
	return nil
}

// GetByID fetches one item without its comments.
func (r *NewsRepository) GetByID(ctx context.Context, id string) (*models.NewsItem, error) {
	const query = `SELECT ` + newsColumns + ` FROM news WHERE id = $1`
	var item models.NewsItem
	if err := sqlx.GetContext(ctx, database.Executor(ctx, r.db), &item, query, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// List returns one board, pinned items first, then newest first.
func (r *NewsRepository) List(ctx context.Context, filter models.ContentFilter) ([]models.NewsItem, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	kind := filter.Kind
	if kind == "" {
		kind = models.ContentKindNews
	}
	query := fmt.Sprintf(`SELECT `+newsColumns+` FROM news WHERE kind = $1 AND archived = $2
	ORDER BY pinned DESC, created_at DESC LIMIT %d`, limit)
	var items []models.NewsItem
	if err := sqlx.SelectContext(ctx, database.Executor(ctx, r.db), &items, query, kind, filter.Archived); err != nil {
		return nil, fmt.Errorf("list news: %w", err)
	}
	return items, nil
}

// Update stores title, content, pinned and archived. It returns
// sql.ErrNoRows when the item is gone.
func (r *NewsRepository) Update(ctx context.Context, item *models.NewsItem) error {
	now := time.Now().UTC()
	item.UpdatedAt = &now
	const query = `UPDATE news SET title = :title, content = :content, pinned = :pinned, archived = :archived,
	updated_at = :updated_at WHERE id = :id`
	result, err := sqlx.NamedExecContext(ctx, database.Executor(ctx, r.db), query, item)
	if err != nil {
		return fmt.Errorf("update news: %w", err)
	}
	return expectRow(result, "news update")
}

// Delete removes an item and, through the foreign key, its comments.
func (r *NewsRepository) Delete(ctx context.Context, id string) error {
	result, err := database.Executor(ctx, r.db).ExecContext(ctx, `DELETE FROM news WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete news: %w", err)
	}
	return expectRow(result, "news delete")
}

// AddComment appends a comment to an item.
func (r *NewsRepository) AddComment(ctx context.Context, comment *models.ContentComment) error {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO news_comments (id, item_id, author, text, created_at)
	VALUES (:id, :item_id, :author, :text, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, database.Executor(ctx, r.db), query, comment); err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

// ListComments returns an item's comments oldest first.
func (r *NewsRepository) ListComments(ctx context.Context, itemID string) ([]models.ContentComment, error) {
	const query = `SELECT id, item_id, author, text, created_at FROM news_comments WHERE item_id = $1 ORDER BY created_at ASC`
	var comments []models.ContentComment
	if err := sqlx.SelectContext(ctx, database.Executor(ctx, r.db), &comments, query, itemID); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

func expectRow(result sql.Result, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check %s rows: %w", op, err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
