package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/bureau-roster-api/internal/dto"
	"github.com/noah-isme/bureau-roster-api/internal/models"
	appErrors "github.com/noah-isme/bureau-roster-api/pkg/errors"
)

type contentStore interface {
	newsWriter
	GetByID(ctx context.Context, id string) (*models.NewsItem, error)
	List(ctx context.Context, filter models.ContentFilter) ([]models.NewsItem, error)
	Update(ctx context.Context, item *models.NewsItem) error
	Delete(ctx context.Context, id string) error
	AddComment(ctx context.Context, comment *models.ContentComment) error
	ListComments(ctx context.Context, itemID string) ([]models.ContentComment, error)
}

// contentActions maps each board to its audit labels.
var contentActions = map[models.ContentKind]struct{ create, edit, remove string }{
	models.ContentKindNews: {create: models.AuditActionNewsCreate, edit: models.AuditActionNewsEdit, remove: models.AuditActionNewsDelete},
	models.ContentKindRaid: {create: models.AuditActionRaidCreate, edit: models.AuditActionRaidEdit, remove: models.AuditActionRaidDelete},
}

// NewsService manages the news feed and the raids board. Any member may
// post a raid or comment on one; everything else on either board is
// reserved to Admins and the Director.
type NewsService struct {
	store   contentStore
	members memberReader
	tx      txRunner
	audit   *AuditService
	logger  *zap.Logger
	now     func() time.Time
}

// NewNewsService constructs the service.
func NewNewsService(store contentStore, members memberReader, tx txRunner, audit *AuditService, logger *zap.Logger) *NewsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NewsService{
		store:   store,
		members: members,
		tx:      runnerOrDirect(tx),
		audit:   audit,
		logger:  logger,
		now:     time.Now,
	}
}

// List returns one board, pinned items first.
func (s *NewsService) List(ctx context.Context, filter models.ContentFilter) ([]models.NewsItem, error) {
	if !filter.Kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown board")
	}
	items, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list news")
	}
	return items, nil
}

// Get returns one item with its comments.
func (s *NewsService) Get(ctx context.Context, kind models.ContentKind, id string) (*models.NewsItem, error) {
	item, err := s.load(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	comments, err := s.store.ListComments(ctx, item.ID)
	if err != nil {
		return nil, internalError(err, "failed to load comments")
	}
	item.Comments = comments
	return item, nil
}

// Create publishes a news item or posts a raid.
func (s *NewsService) Create(ctx context.Context, actorID string, kind models.ContentKind, req dto.ContentRequest) (*models.NewsItem, error) {
	if !kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown board")
	}
	title, content, err := cleanContent(req)
	if err != nil {
		return nil, err
	}
	actor, err := loadActor(ctx, s.members, actorID)
	if err != nil {
		return nil, err
	}
	if kind == models.ContentKindNews {
		if err := requireManager(actor); err != nil {
			return nil, err
		}
	}
	item := &models.NewsItem{Kind: kind, Title: title, Content: content, Author: actor.Nickname, CreatedAt: s.now().UTC()}
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.store.Create(ctx, item); err != nil {
			return internalError(err, "failed to create "+kind.Label())
		}
		return s.audit.Record(ctx, actor, contentActions[kind].create, titleDetails(item.Title))
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Update replaces the title and content.
func (s *NewsService) Update(ctx context.Context, actorID string, kind models.ContentKind, id string, req dto.ContentRequest) (*models.NewsItem, error) {
	title, content, err := cleanContent(req)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, actorID, kind, id, func(item *models.NewsItem) (string, string, error) {
		item.Title, item.Content = title, content
		return contentActions[kind].edit, titleDetails(title), nil
	})
}

// SetPinned pins or unpins a news item on the feed.
func (s *NewsService) SetPinned(ctx context.Context, actorID, id string, pinned bool) (*models.NewsItem, error) {
	return s.mutate(ctx, actorID, models.ContentKindNews, id, func(item *models.NewsItem) (string, string, error) {
		if item.Archived {
			return "", "", appErrors.Clone(appErrors.ErrConflict, "archived news cannot be pinned")
		}
		item.Pinned = pinned
		action := models.AuditActionNewsPin
		if !pinned {
			action = models.AuditActionNewsUnpin
		}
		return action, titleDetails(item.Title), nil
	})
}

// Archive moves a news item off the feed into the news archive, unpinned.
func (s *NewsService) Archive(ctx context.Context, actorID, id string) (*models.NewsItem, error) {
	return s.mutate(ctx, actorID, models.ContentKindNews, id, func(item *models.NewsItem) (string, string, error) {
		if item.Archived {
			return "", "", appErrors.Clone(appErrors.ErrConflict, "news item is already archived")
		}
		item.Archived = true
		item.Pinned = false
		return models.AuditActionNewsArchive, titleDetails(item.Title), nil
	})
}

// Delete removes an item and its comments.
func (s *NewsService) Delete(ctx context.Context, actorID string, kind models.ContentKind, id string) error {
	actor, err := loadActor(ctx, s.members, actorID)
	if err != nil {
		return err
	}
	if err := requireManager(actor); err != nil {
		return err
	}
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		item, err := s.load(ctx, kind, id)
		if err != nil {
			return err
		}
		if err := s.store.Delete(ctx, item.ID); err != nil {
			if isNoRows(err) {
				return appErrors.Clone(appErrors.ErrNotFound, kind.Label()+" not found")
			}
			return internalError(err, "failed to delete "+kind.Label())
		}
		return s.audit.Record(ctx, actor, contentActions[kind].remove, titleDetails(item.Title))
	})
}

// Comment adds a member's reply to a raid.
func (s *NewsService) Comment(ctx context.Context, actorID, raidID string, req dto.CommentRequest) (*models.ContentComment, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "comment text is required")
	}
	actor, err := loadActor(ctx, s.members, actorID)
	if err != nil {
		return nil, err
	}
	item, err := s.load(ctx, models.ContentKindRaid, raidID)
	if err != nil {
		return nil, err
	}
	comment := &models.ContentComment{ItemID: item.ID, Author: actor.Nickname, Text: text, CreatedAt: s.now().UTC()}
	if err := s.store.AddComment(ctx, comment); err != nil {
		return nil, internalError(err, "failed to add comment")
	}
	return comment, nil
}

// mutate loads an item under the manager check, applies change and stores
// the result with one audit entry.
func (s *NewsService) mutate(ctx context.Context, actorID string, kind models.ContentKind, id string, change func(*models.NewsItem) (action, details string, err error)) (*models.NewsItem, error) {
	actor, err := loadActor(ctx, s.members, actorID)
	if err != nil {
		return nil, err
	}
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	var item *models.NewsItem
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		item, err = s.load(ctx, kind, id)
		if err != nil {
			return err
		}
		action, details, err := change(item)
		if err != nil {
			return err
		}
		if err := s.store.Update(ctx, item); err != nil {
			if isNoRows(err) {
				return appErrors.Clone(appErrors.ErrNotFound, kind.Label()+" not found")
			}
			return internalError(err, "failed to save "+kind.Label())
		}
		return s.audit.Record(ctx, actor, action, details)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// load fetches an item and hides items of another board.
func (s *NewsService) load(ctx context.Context, kind models.ContentKind, id string) (*models.NewsItem, error) {
	item, err := s.store.GetByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, kind.Label()+" not found")
		}
		return nil, internalError(err, "failed to load "+kind.Label())
	}
	if item.Kind != kind {
		return nil, appErrors.Clone(appErrors.ErrNotFound, kind.Label()+" not found")
	}
	return item, nil
}

func cleanContent(req dto.ContentRequest) (string, string, error) {
	title := strings.TrimSpace(req.Title)
	content := strings.TrimSpace(req.Content)
	if title == "" || content == "" {
		return "", "", appErrors.Clone(appErrors.ErrValidation, "title and content are required")
	}
	return title, content, nil
}

func titleDetails(title string) string {
	return fmt.Sprintf("Title: %q", title)
}
