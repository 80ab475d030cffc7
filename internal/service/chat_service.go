package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/bureau-roster-api/internal/dto"
	"github.com/noah-isme/bureau-roster-api/internal/models"
	appErrors "github.com/noah-isme/bureau-roster-api/pkg/errors"
)

type chatStore interface {
	Create(ctx context.Context, message *models.ChatMessage) error
	ListByChannel(ctx context.Context, channel string, limit int) ([]models.ChatMessage, error)
}

type rosterReader interface {
	memberReader
	List(ctx context.Context, filter models.MemberFilter) ([]models.Member, error)
}

// ChatService stores channel messages and notifies mentioned members.
type ChatService struct {
	messages      chatStore
	members       rosterReader
	settings      settingsProvider
	tx            txRunner
	notifications *NotificationService
	logger        *zap.Logger
	now           func() time.Time
}

// NewChatService constructs the service.
func NewChatService(messages chatStore, members rosterReader, settings settingsProvider, tx txRunner, notifications *NotificationService, logger *zap.Logger) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{
		messages:      messages,
		members:       members,
		settings:      settings,
		tx:            runnerOrDirect(tx),
		notifications: notifications,
		logger:        logger,
		now:           time.Now,
	}
}

// Channels returns the general channel followed by one per department.
func (s *ChatService) Channels(ctx context.Context) ([]string, error) {
	settings, err := s.settings.Current(ctx)
	if err != nil {
		return nil, err
	}
	return channelsFor(settings), nil
}

func channelsFor(settings *models.Settings) []string {
	channels := []string{models.ChannelGeneral}
	for key := range settings.Departments {
		channels = append(channels, strings.ToLower(key))
	}
	sort.Strings(channels[1:])
	return channels
}

func (s *ChatService) resolveChannel(ctx context.Context, channel string) (string, *models.Settings, error) {
	settings, err := s.settings.Current(ctx)
	if err != nil {
		return "", nil, err
	}
	channel = strings.ToLower(strings.TrimSpace(channel))
	for _, known := range channelsFor(settings) {
		if known == channel {
			return channel, settings, nil
		}
	}
	return "", nil, appErrors.Clone(appErrors.ErrNotFound, "channel not found")
}

// History returns the latest messages of channel in posting order.
func (s *ChatService) History(ctx context.Context, channel string, limit int) ([]models.ChatMessage, error) {
	channel, _, err := s.resolveChannel(ctx, channel)
	if err != nil {
		return nil, err
	}
	messages, err := s.messages.ListByChannel(ctx, channel, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load chat")
	}
	return messages, nil
}

// Send posts a message and sends one personal notification per distinct
// mentioned member.
func (s *ChatService) Send(ctx context.Context, actorID, channel string, req dto.SendMessageRequest) (*dto.SendMessageResult, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "message text is required")
	}
	sender, err := loadActor(ctx, s.members, actorID)
	if err != nil {
		return nil, err
	}
	channel, settings, err := s.resolveChannel(ctx, channel)
	if err != nil {
		return nil, err
	}

	message := &models.ChatMessage{
		Channel:   channel,
		AuthorID:  sender.ID,
		Author:    sender.Nickname,
		Text:      text,
		CreatedAt: s.now().UTC(),
	}
	var notifications []*models.Notification
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.messages.Create(ctx, message); err != nil {
			return internalError(err, "failed to store message")
		}
		if !strings.Contains(text, "@") {
			return nil
		}
		roster, err := s.members.List(ctx, models.MemberFilter{})
		if err != nil {
			return internalError(err, "failed to load roster")
		}
		recipients := ResolveMentionRecipients(text, sender, roster, settings.Departments)
		notice := fmt.Sprintf("%s mentioned you in #%s: %q", sender.Nickname, channel, text)
		for _, id := range recipients {
			notifications = append(notifications, PersonalNotification(id, notice, models.LinkChat))
		}
		return s.notifications.Create(ctx, notifications...)
	})
	if err != nil {
		return nil, err
	}
	s.notifications.Publish(notifications...)
	return &dto.SendMessageResult{MessageID: message.ID, Notified: len(notifications)}, nil
}
