package service

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/bureau-roster-api/internal/models"
	appErrors "github.com/noah-isme/bureau-roster-api/pkg/errors"
)

type notificationStore interface {
	CreateBatch(ctx context.Context, notifications []*models.Notification) error
	ListFor(ctx context.Context, memberID string, limit int) ([]models.Notification, error)
	MarkAllRead(ctx context.Context, memberID string) error
}

// NotificationPublisher delivers notifications out of band. Publish must not
// block the caller.
type NotificationPublisher interface {
	Publish(notifications ...*models.Notification)
}

// NotificationService records notifications and hands them to the publisher
// once the producing transaction has committed.
type NotificationService struct {
	store     notificationStore
	publisher NotificationPublisher
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time
}

// NewNotificationService constructs the service. publisher may be nil.
func NewNotificationService(store notificationStore, publisher NotificationPublisher, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{store: store, publisher: publisher, metrics: metrics, logger: logger, now: time.Now}
}

// PersonalNotification builds a notification addressed to one member.
func PersonalNotification(recipientID, text, link string) *models.Notification {
	n := &models.Notification{RecipientID: &recipientID, Text: text, Kind: models.NotificationPersonal}
	if link != "" {
		n.Link = &link
	}
	return n
}

// GlobalNotification builds a broadcast notification.
func GlobalNotification(text, link string) *models.Notification {
	n := &models.Notification{Text: text, Kind: models.NotificationGlobal}
	if link != "" {
		n.Link = &link
	}
	return n
}

// Create persists notifications, joining the transaction carried by ctx.
func (s *NotificationService) Create(ctx context.Context, notifications ...*models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	now := s.now().UTC()
	for _, n := range notifications {
		if n.CreatedAt.IsZero() {
			n.CreatedAt = now
		}
	}
	if err := s.store.CreateBatch(ctx, notifications); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create notifications")
	}
	s.metrics.RecordNotifications(notifications...)
	return nil
}

// Publish forwards committed notifications to the publisher.
func (s *NotificationService) Publish(notifications ...*models.Notification) {
	if s.publisher == nil || len(notifications) == 0 {
		return
	}
	s.publisher.Publish(notifications...)
}

// ListFor returns notifications relevant to the member, newest first.
func (s *NotificationService) ListFor(ctx context.Context, memberID string, limit int) ([]models.Notification, error) {
	list, err := s.store.ListFor(ctx, memberID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return list, nil
}

// MarkAllRead marks every relevant notification read for the member at once.
func (s *NotificationService) MarkAllRead(ctx context.Context, memberID string) error {
	if err := s.store.MarkAllRead(ctx, memberID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications read")
	}
	return nil
}

var mentionPattern = regexp.MustCompile(`@([\p{L}\p{N}_]+)`)

// ResolveMentionRecipients returns the distinct member ids addressed by the
// @mentions in text. A token naming a department display name addresses every
// member of that department; otherwise it addresses the member with that
// nickname. The sender is never included. Matching ignores case.
func ResolveMentionRecipients(text string, sender *models.Member, members []models.Member, departments map[string]string) []string {
	matches := mentionPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	departmentByName := make(map[string]string, len(departments))
	for key, name := range departments {
		departmentByName[strings.ToLower(name)] = key
	}
	byNickname := make(map[string]*models.Member, len(members))
	byDepartment := make(map[string][]*models.Member)
	for i := range members {
		m := &members[i]
		byNickname[strings.ToLower(m.Nickname)] = m
		byDepartment[m.Department] = append(byDepartment[m.Department], m)
	}

	senderID := ""
	if sender != nil {
		senderID = sender.ID
	}
	recipients := make(map[string]struct{})
	for _, match := range matches {
		token := strings.ToLower(match[1])
		if key, ok := departmentByName[token]; ok {
			for _, m := range byDepartment[key] {
				if m.ID != senderID {
					recipients[m.ID] = struct{}{}
				}
			}
			continue
		}
		if m, ok := byNickname[token]; ok && m.ID != senderID {
			recipients[m.ID] = struct{}{}
		}
	}

	ids := make([]string, 0, len(recipients))
	for id := range recipients {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
