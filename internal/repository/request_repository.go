package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/bureau-roster-api/internal/models"
	"github.com/noah-isme/bureau-roster-api/pkg/database"
)

const requestColumns = `id, author_id, author_nickname, kind, content, status, department, is_first_department_request,
       submitted_at, reviewer_nickname, decided_at, archive_id`

// RequestRepository persists pending and archived requests in one table.
// Pending rows have status PENDING; archived rows carry an archive_id.
type RequestRepository struct {
	db *sqlx.DB
}

// NewRequestRepository constructs the repository.
func NewRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// Create inserts a pending request.
func (r *RequestRepository) Create(ctx context.Context, request *models.Request) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	if request.Status == "" {
		request.Status = models.RequestStatusPending
	}
	if request.SubmittedAt.IsZero() {
		request.SubmittedAt = time.Now().UTC()
	}
	const query = `INSERT INTO requests
	(id, author_id, author_nickname, kind, content, status, department, is_first_department_request, submitted_at)
	VALUES (:id, :author_id, :author_nickname, :kind, :content, :status, :department, :is_first_department_request, :submitted_at)`
	if _, err := sqlx.NamedExecContext(ctx, database.Executor(ctx, r.db), query, request); err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return nil
}

// GetByID fetches a request regardless of state.
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*models.Request, error) {
	const query = `SELECT ` + requestColumns + ` FROM requests WHERE id = $1`
	var request models.Request
	if err := sqlx.GetContext(ctx, database.Executor(ctx, r.db), &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// GetByArchiveID fetches an archived request.
func (r *RequestRepository) GetByArchiveID(ctx context.Context, archiveID string) (*models.Request, error) {
	const query = `SELECT ` + requestColumns + ` FROM requests WHERE archive_id = $1`
	var request models.Request
	if err := sqlx.GetContext(ctx, database.Executor(ctx, r.db), &request, query, archiveID); err != nil {
		return nil, err
	}
	return &request, nil
}

// ExistsPending reports whether the author already has a pending request of kind.
func (r *RequestRepository) ExistsPending(ctx context.Context, authorID string, kind models.RequestKind) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM requests WHERE author_id = $1 AND kind = $2 AND status = $3)`
	var exists bool
	if err := sqlx.GetContext(ctx, database.Executor(ctx, r.db), &exists, query, authorID, kind, models.RequestStatusPending); err != nil {
		return false, fmt.Errorf("check pending request: %w", err)
	}
	return exists, nil
}

// ListPending returns pending requests oldest submission first.
func (r *RequestRepository) ListPending(ctx context.Context) ([]models.Request, error) {
	const query = `SELECT ` + requestColumns + ` FROM requests WHERE status = $1 ORDER BY submitted_at ASC, id ASC`
	var requests []models.Request
	if err := sqlx.SelectContext(ctx, database.Executor(ctx, r.db), &requests, query, models.RequestStatusPending); err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	return requests, nil
}

// ListByAuthor returns an author's requests newest first.
func (r *RequestRepository) ListByAuthor(ctx context.Context, authorID string) ([]models.Request, error) {
	const query = `SELECT ` + requestColumns + ` FROM requests WHERE author_id = $1 ORDER BY submitted_at DESC`
	var requests []models.Request
	if err := sqlx.SelectContext(ctx, database.Executor(ctx, r.db), &requests, query, authorID); err != nil {
		return nil, fmt.Errorf("list author requests: %w", err)
	}
	return requests, nil
}

// ListArchived returns archived requests newest decision first, with the total
// count before pagination.
func (r *RequestRepository) ListArchived(ctx context.Context, filter models.RequestFilter) ([]models.Request, int, error) {
	where := " WHERE archive_id IS NOT NULL"
	args := make([]interface{}, 0, 3+len(filter.Status))
	if filter.AuthorID != "" {
		args = append(args, filter.AuthorID)
		where += fmt.Sprintf(" AND author_id = $%d", len(args))
	}
	if filter.Kind != "" {
		args = append(args, filter.Kind)
		where += fmt.Sprintf(" AND kind = $%d", len(args))
	}
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		where += " AND status IN (" + strings.Join(placeholders, ", ") + ")"
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+strings.ToLower(search)+"%")
		where += fmt.Sprintf(" AND (LOWER(archive_id) LIKE $%d OR LOWER(author_nickname) LIKE $%d)", len(args), len(args))
	}
	exec := database.Executor(ctx, r.db)

	var total int
	if err := sqlx.GetContext(ctx, exec, &total, `SELECT COUNT(*) FROM requests`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count archived requests: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + requestColumns + ` FROM requests` + where +
		fmt.Sprintf(" ORDER BY decided_at DESC LIMIT %d OFFSET %d", limit, offset)
	var requests []models.Request
	if err := sqlx.SelectContext(ctx, exec, &requests, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list archived requests: %w", err)
	}
	return requests, total, nil
}

// DeleteArchived removes an archived request. Pending requests are never
// matched. It returns sql.ErrNoRows when nothing was deleted.
func (r *RequestRepository) DeleteArchived(ctx context.Context, archiveID string) error {
	result, err := database.Executor(ctx, r.db).ExecContext(ctx, `DELETE FROM requests WHERE archive_id = $1`, archiveID)
	if err != nil {
		return fmt.Errorf("delete archived request: %w", err)
	}
	return expectRow(result, "archived request delete")
}

// Archive stamps a pending request with its decision. It returns
// sql.ErrNoRows when the request is no longer pending.
func (r *RequestRepository) Archive(ctx context.Context, decision models.ArchiveDecision) error {
	query := fmt.Sprintf(`UPDATE requests SET status = :status, reviewer_nickname = :reviewer_nickname,
	decided_at = :decided_at, archive_id = :archive_id
	WHERE id = :id AND status = '%s'`, models.RequestStatusPending)
	result, err := sqlx.NamedExecContext(ctx, database.Executor(ctx, r.db), query, map[string]interface{}{
		"id":                decision.RequestID,
		"status":            decision.Status,
		"reviewer_nickname": decision.ReviewerNickname,
		"decided_at":        decision.DecidedAt,
		"archive_id":        decision.ArchiveID,
	})
	if err != nil {
		return fmt.Errorf("archive request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check archive rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
