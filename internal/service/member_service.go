package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/bureau-roster-api/internal/models"
	appErrors "github.com/noah-isme/bureau-roster-api/pkg/errors"
)

// MemberService serves roster reads and self-service updates.
type MemberService struct {
	members memberStore
	logger  *zap.Logger
}

// NewMemberService constructs the service.
func NewMemberService(members memberStore, logger *zap.Logger) *MemberService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemberService{members: members, logger: logger}
}

// List returns the roster.
func (s *MemberService) List(ctx context.Context, filter models.MemberFilter) ([]models.Member, error) {
	filter.Department = strings.ToUpper(strings.TrimSpace(filter.Department))
	filter.Search = strings.TrimSpace(filter.Search)
	members, err := s.members.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list members")
	}
	return members, nil
}

// Get returns one member.
func (s *MemberService) Get(ctx context.Context, id string) (*models.Member, error) {
	return loadMember(ctx, s.members.GetByID, id)
}

// Leadership lists administrators, the Director and deputies.
func (s *MemberService) Leadership(ctx context.Context) ([]models.Member, error) {
	return s.List(ctx, models.MemberFilter{Leadership: true})
}

// SetOnDuty toggles the caller's own duty flag.
func (s *MemberService) SetOnDuty(ctx context.Context, actorID string, onDuty bool) (*models.Member, error) {
	member, err := loadActor(ctx, s.members, actorID)
	if err != nil {
		return nil, err
	}
	if member.OnDuty == onDuty {
		return member, nil
	}
	member.OnDuty = onDuty
	if err := s.members.Save(ctx, member); err != nil {
		return nil, internalError(err, "failed to update duty status")
	}
	s.logger.Debug("duty status changed", zap.String("member", member.Nickname), zap.Bool("on_duty", onDuty))
	return member, nil
}
