package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/bureau-roster-api/internal/dto"
	"github.com/noah-isme/bureau-roster-api/internal/models"
	appErrors "github.com/noah-isme/bureau-roster-api/pkg/errors"
)

// Locker serializes work per key. The returned func releases the lock.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

type decisionMembers interface {
	directorStore
	GetByID(ctx context.Context, id string) (*models.Member, error)
	GetForUpdate(ctx context.Context, id string) (*models.Member, error)
}

// DecisionService applies approve or reject decisions to pending requests.
// Each decision is one transaction: archive, audit entry, consequence and
// notification commit together or not at all.
type DecisionService struct {
	requests      requestStore
	members       decisionMembers
	settings      settingsProvider
	tx            txRunner
	locker        Locker
	audit         *AuditService
	notifications *NotificationService
	handlers      map[models.RequestKind]ConsequenceHandler
	metrics       *MetricsService
	logger        *zap.Logger
	now           func() time.Time
	archiveID     func() string
}

// DecisionServiceOption configures the service.
type DecisionServiceOption func(*DecisionService)

// WithConsequenceHandlers overrides handlers per request kind.
func WithConsequenceHandlers(handlers map[models.RequestKind]ConsequenceHandler) DecisionServiceOption {
	return func(s *DecisionService) {
		for kind, handler := range handlers {
			s.handlers[kind] = handler
		}
	}
}

// WithClock overrides the decision clock.
func WithClock(now func() time.Time) DecisionServiceOption {
	return func(s *DecisionService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewDecisionService constructs the service. A nil locker falls back to an
// in-process keyed mutex.
func NewDecisionService(requests requestStore, members decisionMembers, settings settingsProvider, tx txRunner, locker Locker, audit *AuditService, notifications *NotificationService, metrics *MetricsService, logger *zap.Logger, opts ...DecisionServiceOption) *DecisionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if locker == nil {
		locker = NewKeyedMutex()
	}
	svc := &DecisionService{
		requests:      requests,
		members:       members,
		settings:      settings,
		tx:            runnerOrDirect(tx),
		locker:        locker,
		audit:         audit,
		notifications: notifications,
		handlers:      DefaultConsequences(members),
		metrics:       metrics,
		logger:        logger,
		now:           time.Now,
		archiveID:     func() string { return "R-" + uuid.NewString() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Decide applies outcome to the pending request. Only the first decision on
// a request succeeds; later calls fail with ALREADY_DECIDED.
func (s *DecisionService) Decide(ctx context.Context, reviewerID, requestID string, outcome models.RequestStatus) (*dto.DecisionResult, error) {
	if !outcome.Decided() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "outcome must be APPROVED or REJECTED")
	}
	unlock, err := s.locker.Lock(ctx, "request:"+requestID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "request is being decided")
	}
	defer unlock()

	var (
		result       dto.DecisionResult
		notification *models.Notification
	)
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		reviewer, err := s.members.GetByID(ctx, reviewerID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.ErrForbidden
			}
			return internalError(err, "failed to load reviewer")
		}
		request, err := s.requests.GetByID(ctx, requestID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "request not found")
			}
			return internalError(err, "failed to load request")
		}
		if request.Status != models.RequestStatusPending {
			return appErrors.ErrAlreadyDecided
		}
		if !CanReview(reviewer, request) {
			return appErrors.ErrForbidden
		}
		settings, err := s.settings.Current(ctx)
		if err != nil {
			return err
		}

		decidedAt := s.now().UTC()
		archiveID := s.archiveID()
		if err := s.requests.Archive(ctx, models.ArchiveDecision{
			RequestID:        request.ID,
			Status:           outcome,
			ReviewerNickname: reviewer.Nickname,
			DecidedAt:        decidedAt,
			ArchiveID:        archiveID,
		}); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.ErrAlreadyDecided
			}
			return internalError(err, "failed to archive request")
		}
		request.Status = outcome
		request.ReviewerNickname = &reviewer.Nickname
		request.DecidedAt = &decidedAt
		request.ArchiveID = &archiveID
		result.Request = request

		action := models.AuditActionRequestRejected
		if outcome == models.RequestStatusApproved {
			action = models.AuditActionRequestApproved
		}
		details := fmt.Sprintf("Kind: %s, Author: %s", requestTitle(request, settings), request.AuthorNickname)
		if err := s.audit.Record(ctx, reviewer, action, details); err != nil {
			return err
		}

		author, err := s.members.GetForUpdate(ctx, request.AuthorID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				s.logger.Warn("request author no longer exists, consequence skipped",
					zap.String("request_id", request.ID),
					zap.String("author", request.AuthorNickname))
				return nil
			}
			return internalError(err, "failed to load author")
		}

		text := rejectionText(request, settings)
		if outcome == models.RequestStatusApproved {
			handler, ok := s.handlers[request.Kind]
			if !ok {
				return appErrors.Clone(appErrors.ErrInternal, fmt.Sprintf("no consequence for %s", request.Kind))
			}
			text, err = handler.Apply(ctx, &Consequence{Request: request, Author: author, Settings: settings, DecidedAt: decidedAt})
			if err != nil {
				return internalError(err, "failed to apply consequence")
			}
			if err := s.members.Save(ctx, author); err != nil {
				return internalError(err, "failed to update author")
			}
		}
		result.Author = author
		result.Notification = text

		notification = PersonalNotification(author.ID, text, models.LinkProfile)
		return s.notifications.Create(ctx, notification)
	})
	if err != nil {
		return nil, err
	}

	if notification != nil {
		s.notifications.Publish(notification)
	}
	s.metrics.RecordDecision(result.Request.Kind, outcome)
	s.logger.Info("request decided",
		zap.String("request_id", result.Request.ID),
		zap.String("archive_id", *result.Request.ArchiveID),
		zap.String("outcome", string(outcome)),
		zap.String("reviewer", *result.Request.ReviewerNickname))
	return &result, nil
}
