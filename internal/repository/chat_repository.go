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

// ChatRepository persists channel messages.
type ChatRepository struct {
	db *sqlx.DB
}

// NewChatRepository constructs the repository.
func NewChatRepository(db *sqlx.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// Create stores a message.
func (r *ChatRepository) Create(ctx context.Context, message *models.ChatMessage) error {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO chat_messages (id, channel, author_id, author, text, created_at)
	VALUES (:id, :channel, :author_id, :author, :text, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, database.Executor(ctx, r.db), query, message); err != nil {
		return fmt.Errorf("create chat message: %w", err)
	}
	return nil
}

// ListByChannel returns the latest messages of a channel in posting order.
func (r *ChatRepository) ListByChannel(ctx context.Context, channel string, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := fmt.Sprintf(`SELECT id, channel, author_id, author, text, created_at FROM (
		SELECT id, channel, author_id, author, text, created_at FROM chat_messages
		WHERE channel = $1 ORDER BY created_at DESC LIMIT %d
	) latest ORDER BY created_at ASC`, limit)
	var messages []models.ChatMessage
	if err := sqlx.SelectContext(ctx, database.Executor(ctx, r.db), &messages, query, channel); err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	return messages, nil
}
