package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/bureau-roster-api/internal/dto"
	"github.com/noah-isme/bureau-roster-api/internal/models"
	appErrors "github.com/noah-isme/bureau-roster-api/pkg/errors"
	"github.com/noah-isme/bureau-roster-api/pkg/storage"
)

const uniqueViolation = "23505"

type requestStore interface {
	Create(ctx context.Context, request *models.Request) error
	GetByID(ctx context.Context, id string) (*models.Request, error)
	GetByArchiveID(ctx context.Context, archiveID string) (*models.Request, error)
	ExistsPending(ctx context.Context, authorID string, kind models.RequestKind) (bool, error)
	ListPending(ctx context.Context) ([]models.Request, error)
	ListByAuthor(ctx context.Context, authorID string) ([]models.Request, error)
	ListArchived(ctx context.Context, filter models.RequestFilter) ([]models.Request, int, error)
	Archive(ctx context.Context, decision models.ArchiveDecision) error
	DeleteArchived(ctx context.Context, archiveID string) error
}

type settingsProvider interface {
	Current(ctx context.Context) (*models.Settings, error)
}

// RequestService handles submission and browsing of member requests.
type RequestService struct {
	requests requestStore
	members  memberReader
	settings settingsProvider
	tx       txRunner
	audit    *AuditService
	signer   *storage.LinkSigner
	metrics  *MetricsService
	logger   *zap.Logger
	now      func() time.Time
}

// NewRequestService constructs the service. signer may be nil, which
// disables share links.
func NewRequestService(requests requestStore, members memberReader, settings settingsProvider, tx txRunner, audit *AuditService, signer *storage.LinkSigner, metrics *MetricsService, logger *zap.Logger) *RequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestService{
		requests: requests,
		members:  members,
		settings: settings,
		tx:       runnerOrDirect(tx),
		audit:    audit,
		signer:   signer,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Submit files a new pending request for the calling member.
func (s *RequestService) Submit(ctx context.Context, actorID string, req dto.SubmitRequest) (*models.Request, error) {
	if !req.Kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown request kind")
	}
	author, err := loadActor(ctx, s.members, actorID)
	if err != nil {
		return nil, err
	}
	settings, err := s.settings.Current(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()

	request := &models.Request{
		AuthorID:       author.ID,
		AuthorNickname: author.Nickname,
		Kind:           req.Kind,
		Content:        strings.TrimSpace(req.Content),
		Status:         models.RequestStatusPending,
		SubmittedAt:    now,
	}

	switch req.Kind {
	case models.RequestKindPromotion:
		if err := CheckCooldown(author, settings.PromotionSystem, now); err != nil {
			return nil, err
		}
	case models.RequestKindDepartmentJoin:
		key := strings.ToUpper(strings.TrimSpace(req.Department))
		if key == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "department is required")
		}
		name, ok := settings.Departments[key]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		if author.Department == key {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("you already belong to %s", name))
		}
		request.Department = &key
		request.IsFirstDepartmentRequest = len(author.DepartmentHistory) == 0
		if request.Content == "" {
			request.Content = fmt.Sprintf("Please consider my application to join %s.", name)
		}
	}
	if request.Content == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "content is required")
	}

	exists, err := s.requests.ExistsPending(ctx, author.ID, req.Kind)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check pending requests")
	}
	if exists {
		return nil, appErrors.ErrDuplicatePending
	}
	if err := s.requests.Create(ctx, request); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, appErrors.ErrDuplicatePending
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit request")
	}
	s.metrics.RecordRequestSubmitted(request.Kind)
	s.logger.Info("request submitted",
		zap.String("request_id", request.ID),
		zap.String("kind", string(request.Kind)),
		zap.String("author", author.Nickname))
	return request, nil
}

// ListPendingFor returns the review queue visible to the reviewer, oldest
// submission first.
func (s *RequestService) ListPendingFor(ctx context.Context, reviewerID string) ([]models.Request, error) {
	reviewer, err := loadActor(ctx, s.members, reviewerID)
	if err != nil {
		return nil, err
	}
	pending, err := s.requests.ListPending(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending requests")
	}
	visible := make([]models.Request, 0, len(pending))
	for i := range pending {
		if CanReview(reviewer, &pending[i]) {
			visible = append(visible, pending[i])
		}
	}
	return visible, nil
}

// ListMine returns the caller's own requests, newest first.
func (s *RequestService) ListMine(ctx context.Context, actorID string) ([]models.Request, error) {
	if _, err := loadActor(ctx, s.members, actorID); err != nil {
		return nil, err
	}
	requests, err := s.requests.ListByAuthor(ctx, actorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list requests")
	}
	return requests, nil
}

// ListArchive searches decided requests, newest decision first. Leadership
// only.
func (s *RequestService) ListArchive(ctx context.Context, actorID string, query dto.ArchiveQuery) ([]models.Request, *models.Pagination, error) {
	actor, err := loadActor(ctx, s.members, actorID)
	if err != nil {
		return nil, nil, err
	}
	if err := requireLeadership(actor); err != nil {
		return nil, nil, err
	}
	filter := models.RequestFilter{
		AuthorID: strings.TrimSpace(query.AuthorID),
		Search:   strings.TrimSpace(query.Search),
	}
	if kind := strings.ToUpper(strings.TrimSpace(query.Kind)); kind != "" {
		filter.Kind = models.RequestKind(kind)
		if !filter.Kind.Valid() {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown request kind")
		}
	}
	for _, raw := range query.Status {
		status := models.RequestStatus(strings.ToUpper(strings.TrimSpace(raw)))
		if !status.Decided() {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "archive status must be APPROVED or REJECTED")
		}
		filter.Status = append(filter.Status, status)
	}
	page, size := normalizePage(query.Page, query.PageSize)
	filter.Limit = size
	filter.Offset = (page - 1) * size
	requests, total, err := s.requests.ListArchived(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list archive")
	}
	return requests, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// GetArchived returns one archived request to leadership or its author.
func (s *RequestService) GetArchived(ctx context.Context, actorID, archiveID string) (*models.Request, error) {
	actor, err := loadActor(ctx, s.members, actorID)
	if err != nil {
		return nil, err
	}
	request, err := s.archived(ctx, archiveID)
	if err != nil {
		return nil, err
	}
	if !actor.IsLeadership() && request.AuthorID != actor.ID {
		return nil, appErrors.ErrForbidden
	}
	return request, nil
}

// ArchiveLink signs a shareable link to an archived request.
func (s *RequestService) ArchiveLink(ctx context.Context, actorID, archiveID string) (*models.ArchiveLink, error) {
	if s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "archive links are disabled")
	}
	request, err := s.GetArchived(ctx, actorID, archiveID)
	if err != nil {
		return nil, err
	}
	token, url, expiresAt, err := s.signer.Sign(*request.ArchiveID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign archive link")
	}
	return &models.ArchiveLink{ArchiveID: *request.ArchiveID, URL: url, Token: token, ExpiresAt: expiresAt}, nil
}

// SharedArchive resolves an archived request through a signed link.
func (s *RequestService) SharedArchive(ctx context.Context, archiveID, token string) (*models.Request, error) {
	if s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "archive links are disabled")
	}
	if err := s.signer.Verify(archiveID, token); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid or expired link")
	}
	return s.archived(ctx, archiveID)
}

// DeleteArchived removes an archived request. Admins and the Director only.
func (s *RequestService) DeleteArchived(ctx context.Context, actorID, archiveID string) error {
	actor, err := loadActor(ctx, s.members, actorID)
	if err != nil {
		return err
	}
	if err := requireManager(actor); err != nil {
		return err
	}
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		request, err := s.archived(ctx, archiveID)
		if err != nil {
			return err
		}
		if err := s.requests.DeleteArchived(ctx, archiveID); err != nil {
			if isNoRows(err) {
				return appErrors.Clone(appErrors.ErrNotFound, "archived request not found")
			}
			return internalError(err, "failed to delete archived request")
		}
		return s.audit.Record(ctx, actor, models.AuditActionArchiveDelete,
			fmt.Sprintf("ID: %s, Author: %s", archiveID, request.AuthorNickname))
	})
}

func (s *RequestService) archived(ctx context.Context, archiveID string) (*models.Request, error) {
	request, err := s.requests.GetByArchiveID(ctx, archiveID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "archived request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load archived request")
	}
	return request, nil
}
