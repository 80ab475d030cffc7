package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/noah-isme/bureau-roster-api/internal/dto"
	"github.com/noah-isme/bureau-roster-api/internal/models"
	appErrors "github.com/noah-isme/bureau-roster-api/pkg/errors"
)

type blacklistStore interface {
	blacklistChecker
	Create(ctx context.Context, entry *models.BlacklistEntry) error
	List(ctx context.Context) ([]models.BlacklistEntry, error)
	GetByID(ctx context.Context, id string) (*models.BlacklistEntry, error)
	Delete(ctx context.Context, id string) error
}

// BlacklistService manages people barred from joining.
type BlacklistService struct {
	store   blacklistStore
	members memberReader
	tx      txRunner
	audit   *AuditService
}

// NewBlacklistService constructs the service.
func NewBlacklistService(store blacklistStore, members memberReader, tx txRunner, audit *AuditService) *BlacklistService {
	return &BlacklistService{store: store, members: members, tx: runnerOrDirect(tx), audit: audit}
}

// List returns every entry.
func (s *BlacklistService) List(ctx context.Context) ([]models.BlacklistEntry, error) {
	entries, err := s.store.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list blacklist")
	}
	return entries, nil
}

// Add bars a nickname. Leadership only.
func (s *BlacklistService) Add(ctx context.Context, actorID string, req dto.BlacklistRequest) (*models.BlacklistEntry, error) {
	nickname := NormalizeNickname(req.Nickname)
	reason := strings.TrimSpace(req.Reason)
	if nickname == "" || reason == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "nickname and reason are required")
	}
	actor, err := loadActor(ctx, s.members, actorID)
	if err != nil {
		return nil, err
	}
	if err := requireLeadership(actor); err != nil {
		return nil, err
	}
	term := strings.TrimSpace(req.Term)
	if term == "" {
		term = models.BlacklistTermPermanent
	}
	entry := &models.BlacklistEntry{Nickname: nickname, Reason: reason, Term: term, IssuerNickname: actor.Nickname}
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		exists, err := s.store.ExistsByNickname(ctx, nickname)
		if err != nil {
			return internalError(err, "failed to check blacklist")
		}
		if exists {
			return appErrors.Clone(appErrors.ErrConflict, "nickname is already blacklisted")
		}
		if err := s.store.Create(ctx, entry); err != nil {
			return internalError(err, "failed to add blacklist entry")
		}
		return s.audit.Record(ctx, actor, models.AuditActionBlacklistAdd,
			fmt.Sprintf("Nickname: %s, Term: %s, Reason: %s", nickname, term, reason))
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Remove deletes an entry. Leadership only.
func (s *BlacklistService) Remove(ctx context.Context, actorID, id string) error {
	actor, err := loadActor(ctx, s.members, actorID)
	if err != nil {
		return err
	}
	if err := requireLeadership(actor); err != nil {
		return err
	}
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		entry, err := s.store.GetByID(ctx, id)
		if err != nil {
			if isNoRows(err) {
				return appErrors.Clone(appErrors.ErrNotFound, "blacklist entry not found")
			}
			return internalError(err, "failed to load blacklist entry")
		}
		if err := s.store.Delete(ctx, id); err != nil {
			return internalError(err, "failed to remove blacklist entry")
		}
		return s.audit.Record(ctx, actor, models.AuditActionBlacklistRemove, "Nickname: "+entry.Nickname)
	})
}
