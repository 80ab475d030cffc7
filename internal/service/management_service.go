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

type blacklistChecker interface {
	ExistsByNickname(ctx context.Context, nickname string) (bool, error)
}

// ManagementService performs privileged roster actions. Every action writes
// one audit entry in the same transaction as the change.
type ManagementService struct {
	members       memberStore
	blacklist     blacklistChecker
	settings      settingsProvider
	tx            txRunner
	audit         *AuditService
	notifications *NotificationService
	logger        *zap.Logger
	now           func() time.Time
}

// NewManagementService constructs the service.
func NewManagementService(members memberStore, blacklist blacklistChecker, settings settingsProvider, tx txRunner, audit *AuditService, notifications *NotificationService, logger *zap.Logger) *ManagementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ManagementService{
		members:       members,
		blacklist:     blacklist,
		settings:      settings,
		tx:            runnerOrDirect(tx),
		audit:         audit,
		notifications: notifications,
		logger:        logger,
		now:           time.Now,
	}
}

// NormalizeNickname trims the nickname and replaces inner spaces with
// underscores.
func NormalizeNickname(nickname string) string {
	return strings.Join(strings.Fields(nickname), "_")
}

// Whitelist adds a new cadet to the academy. Leadership only.
func (s *ManagementService) Whitelist(ctx context.Context, actorID string, req dto.WhitelistRequest) (*models.Member, error) {
	nickname := NormalizeNickname(req.Nickname)
	if nickname == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "nickname is required")
	}
	actor, err := loadActor(ctx, s.members, actorID)
	if err != nil {
		return nil, err
	}
	if err := requireLeadership(actor); err != nil {
		return nil, err
	}
	member := &models.Member{
		Nickname:   nickname,
		Rank:       0,
		Position:   models.PositionCadet,
		Department: models.DepartmentAcademy,
	}
	if err := s.addMember(ctx, actor, member, models.AuditActionWhitelistAdd); err != nil {
		return nil, err
	}
	return member, nil
}

// AddAdmin adds another administrator. Administrator only.
func (s *ManagementService) AddAdmin(ctx context.Context, actorID string, req dto.WhitelistRequest) (*models.Member, error) {
	nickname := NormalizeNickname(req.Nickname)
	if nickname == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "nickname is required")
	}
	actor, err := loadActor(ctx, s.members, actorID)
	if err != nil {
		return nil, err
	}
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	member := &models.Member{
		Nickname:   nickname,
		Rank:       models.RankDirector,
		IsAdmin:    true,
		Position:   models.PositionAdministrator,
		Department: models.DepartmentManagement,
		IsHead:     true,
	}
	if err := s.addMember(ctx, actor, member, models.AuditActionAdminAdd); err != nil {
		return nil, err
	}
	return member, nil
}

func (s *ManagementService) addMember(ctx context.Context, actor, member *models.Member, action string) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		exists, err := s.members.ExistsByNickname(ctx, member.Nickname)
		if err != nil {
			return internalError(err, "failed to check nickname")
		}
		if exists {
			return appErrors.Clone(appErrors.ErrConflict, "a member with this nickname already exists")
		}
		if s.blacklist != nil {
			barred, err := s.blacklist.ExistsByNickname(ctx, member.Nickname)
			if err != nil {
				return internalError(err, "failed to check blacklist")
			}
			if barred {
				return appErrors.Clone(appErrors.ErrConflict, "this nickname is blacklisted")
			}
		}
		if err := s.members.Create(ctx, member); err != nil {
			return internalError(err, "failed to create member")
		}
		return s.audit.Record(ctx, actor, action, "Nickname: "+member.Nickname)
	})
}

// AssignDirector makes target the Director and demotes the incumbent to
// Deputy Director. Administrator only.
func (s *ManagementService) AssignDirector(ctx context.Context, actorID, targetID string) (*models.Member, error) {
	actor, err := loadActor(ctx, s.members, actorID)
	if err != nil {
		return nil, err
	}
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var (
		target        *models.Member
		notifications []*models.Notification
	)
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		target, err = loadMember(ctx, s.members.GetForUpdate, targetID)
		if err != nil {
			return err
		}
		if target.IsAdmin {
			return appErrors.ErrImmutableAdmin
		}
		if target.Rank == models.RankDirector {
			return appErrors.Clone(appErrors.ErrConflict, "member is already the director")
		}

		details := "New director: " + target.Nickname
		incumbent, err := s.members.FindDirector(ctx)
		switch {
		case err == nil:
			incumbent.Rank = models.RankDeputyDirector
			incumbent.Position = models.PositionDeputyDirector
			if err := s.members.Save(ctx, incumbent); err != nil {
				return internalError(err, "failed to demote director")
			}
			details += ", previous director: " + incumbent.Nickname
			notifications = append(notifications, PersonalNotification(incumbent.ID,
				fmt.Sprintf("%s appointed %s as Director. You have been moved to Deputy Director.", actor.Nickname, target.Nickname),
				models.LinkProfile))
		case isNoRows(err):
		default:
			return internalError(err, "failed to find director")
		}

		target.Rank = models.RankDirector
		target.Position = models.PositionDirector
		if err := s.members.Save(ctx, target); err != nil {
			return internalError(err, "failed to promote member")
		}
		notifications = append(notifications, PersonalNotification(target.ID,
			fmt.Sprintf("%s appointed you as Director.", actor.Nickname), models.LinkProfile))
		if err := s.notifications.Create(ctx, notifications...); err != nil {
			return err
		}
		return s.audit.Record(ctx, actor, models.AuditActionDirectorAssigned, details)
	})
	if err != nil {
		return nil, err
	}
	s.notifications.Publish(notifications...)
	return target, nil
}

// IssuePenalty gives target a severe reprimand.
func (s *ManagementService) IssuePenalty(ctx context.Context, actorID, targetID string, req dto.IssuePenaltyRequest) (*models.Member, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "penalty reason is required")
	}
	actor, err := loadActor(ctx, s.members, actorID)
	if err != nil {
		return nil, err
	}

	var (
		target       *models.Member
		notification *models.Notification
	)
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		target, err = loadMember(ctx, s.members.GetForUpdate, targetID)
		if err != nil {
			return err
		}
		if !CanManage(actor, target) {
			return appErrors.ErrForbidden
		}
		penalty := &models.Penalty{
			MemberID: target.ID,
			Type:     models.PenaltyTypeSevereReprimand,
			Reason:   reason,
			IssuedBy: actor.Nickname,
			IssuedAt: s.now().UTC(),
		}
		if err := s.members.AddPenalty(ctx, penalty); err != nil {
			return internalError(err, "failed to issue penalty")
		}
		target.Penalties = append(target.Penalties, *penalty)

		notification = PersonalNotification(target.ID,
			fmt.Sprintf("You received a severe reprimand from %s. Reason: %s", actor.Nickname, reason), models.LinkProfile)
		if err := s.notifications.Create(ctx, notification); err != nil {
			return err
		}
		return s.audit.Record(ctx, actor, models.AuditActionPenaltyIssued,
			fmt.Sprintf("Member: %s, Reason: %s", target.Nickname, reason))
	})
	if err != nil {
		return nil, err
	}
	s.notifications.Publish(notification)
	return target, nil
}

// RemovePenalty removes the penalty at index from target.
func (s *ManagementService) RemovePenalty(ctx context.Context, actorID, targetID string, index int) (*models.Member, error) {
	actor, err := loadActor(ctx, s.members, actorID)
	if err != nil {
		return nil, err
	}
	var target *models.Member
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		target, err = loadMember(ctx, s.members.GetForUpdate, targetID)
		if err != nil {
			return err
		}
		if !CanManage(actor, target) {
			return appErrors.ErrForbidden
		}
		if index < 0 || index >= len(target.Penalties) {
			return appErrors.Clone(appErrors.ErrNotFound, "penalty not found")
		}
		removed := target.Penalties[index]
		penalties := make([]models.Penalty, 0, len(target.Penalties)-1)
		penalties = append(penalties, target.Penalties[:index]...)
		target.Penalties = append(penalties, target.Penalties[index+1:]...)
		if err := s.members.Save(ctx, target); err != nil {
			return internalError(err, "failed to remove penalty")
		}
		return s.audit.Record(ctx, actor, models.AuditActionPenaltyRemoved,
			fmt.Sprintf("Member: %s, Penalty: %s", target.Nickname, removed.Reason))
	})
	if err != nil {
		return nil, err
	}
	return target, nil
}

// ChangeRank assigns a new rank and position to target.
func (s *ManagementService) ChangeRank(ctx context.Context, actorID, targetID string, req dto.ChangeRankRequest) (*models.Member, error) {
	if req.Rank == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rank is required")
	}
	newRank := *req.Rank
	actor, err := loadActor(ctx, s.members, actorID)
	if err != nil {
		return nil, err
	}
	settings, err := s.settings.Current(ctx)
	if err != nil {
		return nil, err
	}
	if newRank < 0 || newRank > settings.MaxRank() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("rank must be between 0 and %d", settings.MaxRank()))
	}

	var (
		target       *models.Member
		notification *models.Notification
	)
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		target, err = loadMember(ctx, s.members.GetForUpdate, targetID)
		if err != nil {
			return err
		}
		if err := CanAssignRank(actor, newRank, target); err != nil {
			return err
		}
		if !CanManage(actor, target) {
			return appErrors.ErrForbidden
		}
		if newRank == models.RankDirector && target.Rank != models.RankDirector {
			if err := demoteDirector(ctx, s.members, target.ID); err != nil {
				return internalError(err, "failed to demote director")
			}
		}

		oldRank, oldPosition := target.Rank, target.Position
		position := strings.TrimSpace(req.Position)
		if position == "" {
			position = oldPosition
		}
		target.Rank = newRank
		target.Position = position
		if err := s.members.Save(ctx, target); err != nil {
			return internalError(err, "failed to change rank")
		}

		newRankName := settings.RankName(newRank)
		notification = PersonalNotification(target.ID,
			fmt.Sprintf("Your rank was changed to %q and your position to %q by %s.", newRankName, position, actor.Nickname),
			models.LinkProfile)
		if err := s.notifications.Create(ctx, notification); err != nil {
			return err
		}
		return s.audit.Record(ctx, actor, models.AuditActionRankChanged,
			fmt.Sprintf("Member: %s. Rank: %s -> %s. Position: %q -> %q",
				target.Nickname, settings.RankName(oldRank), newRankName, oldPosition, position))
	})
	if err != nil {
		return nil, err
	}
	s.notifications.Publish(notification)
	return target, nil
}

// Fire dismisses target from the bureau.
func (s *ManagementService) Fire(ctx context.Context, actorID, targetID string, req dto.FireRequest) error {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return appErrors.Clone(appErrors.ErrValidation, "dismissal reason is required")
	}
	actor, err := loadActor(ctx, s.members, actorID)
	if err != nil {
		return err
	}
	var notification *models.Notification
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		target, err := loadMember(ctx, s.members.GetForUpdate, targetID)
		if err != nil {
			return err
		}
		if !CanManage(actor, target) {
			return appErrors.ErrForbidden
		}
		// Created before the member row goes away; recipient_id is not a
		// foreign key so the notice survives the dismissal.
		notification = PersonalNotification(target.ID,
			fmt.Sprintf("You were dismissed by %s. Reason: %s", actor.Nickname, reason), models.LinkProfile)
		if err := s.notifications.Create(ctx, notification); err != nil {
			return err
		}
		if err := s.members.Delete(ctx, target.ID); err != nil {
			return internalError(err, "failed to dismiss member")
		}
		return s.audit.Record(ctx, actor, models.AuditActionMemberFired,
			fmt.Sprintf("Member: %s, Reason: %s", target.Nickname, reason))
	})
	if err != nil {
		return err
	}
	s.notifications.Publish(notification)
	return nil
}
