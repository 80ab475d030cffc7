package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/bureau-roster-api/internal/models"
	"github.com/noah-isme/bureau-roster-api/pkg/database"
)

// NotificationRepository persists notifications. Personal notifications carry
// their own read flag; read state of global notifications is kept per viewer
// in notification_reads.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// CreateBatch inserts notifications in one statement.
func (r *NotificationRepository) CreateBatch(ctx context.Context, notifications []*models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, n := range notifications {
		if n.ID == "" {
			n.ID = uuid.NewString()
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = now
		}
	}
	const query = `INSERT INTO notifications (id, recipient_id, text, kind, read, link, created_at)
	VALUES (:id, :recipient_id, :text, :kind, :read, :link, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, database.Executor(ctx, r.db), query, notifications); err != nil {
		return fmt.Errorf("create notifications: %w", err)
	}
	return nil
}

// ListFor returns notifications relevant to the member, newest first.
func (r *NotificationRepository) ListFor(ctx context.Context, memberID string, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT n.id, n.recipient_id, n.text, n.kind, n.link, n.created_at,
       CASE WHEN n.recipient_id IS NULL
            THEN EXISTS(SELECT 1 FROM notification_reads nr WHERE nr.notification_id = n.id AND nr.member_id = $1)
            ELSE n.read END AS read
	FROM notifications n
	WHERE n.recipient_id IS NULL OR n.recipient_id = $1
	ORDER BY n.created_at DESC LIMIT %d`, limit)
	var notifications []models.Notification
	if err := sqlx.SelectContext(ctx, database.Executor(ctx, r.db), &notifications, query, memberID); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// MarkAllRead flags every notification relevant to the member as read.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, memberID string) error {
	exec := database.Executor(ctx, r.db)
	if _, err := exec.ExecContext(ctx, `UPDATE notifications SET read = TRUE WHERE recipient_id = $1 AND read = FALSE`, memberID); err != nil {
		return fmt.Errorf("mark personal notifications read: %w", err)
	}
	const globals = `INSERT INTO notification_reads (notification_id, member_id)
	SELECT id, $1 FROM notifications WHERE recipient_id IS NULL
	ON CONFLICT (notification_id, member_id) DO NOTHING`
	if _, err := exec.ExecContext(ctx, globals, memberID); err != nil {
		return fmt.Errorf("mark global notifications read: %w", err)
	}
	return nil
}
