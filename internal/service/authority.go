package service

import (
	"github.com/noah-isme/bureau-roster-api/internal/models"
	appErrors "github.com/noah-isme/bureau-roster-api/pkg/errors"
)

// CanManage reports whether manager may act on target (penalties, rank
// changes, dismissal).
func CanManage(manager, target *models.Member) bool {
	if manager == nil || target == nil {
		return false
	}
	if manager.ID == target.ID {
		return false
	}
	targetRole := target.Role()
	if targetRole == models.RoleAdmin {
		return false
	}
	switch manager.Role() {
	case models.RoleAdmin:
		return true
	case models.RoleDirector:
		if targetRole == models.RoleDirector {
			return false
		}
	case models.RoleDeputyDirector:
		if targetRole == models.RoleDirector || targetRole == models.RoleDeputyDirector {
			return false
		}
	}
	return manager.Rank > target.Rank
}

// CanReview reports whether reviewer may decide request. Department heads may
// decide a first-time join request for their own department; everything else
// needs leadership.
func CanReview(reviewer *models.Member, request *models.Request) bool {
	if reviewer == nil || request == nil {
		return false
	}
	if reviewer.IsLeadership() {
		return true
	}
	if request.Kind != models.RequestKindDepartmentJoin {
		return false
	}
	return request.IsFirstDepartmentRequest &&
		reviewer.IsHead &&
		reviewer.Department == request.DepartmentKey()
}

// CanAssignRank validates that assigner may give target the rank newRank.
func CanAssignRank(assigner *models.Member, newRank int, target *models.Member) error {
	if assigner == nil {
		return appErrors.ErrForbidden
	}
	assignerRole := assigner.Role()
	if assignerRole != models.RoleAdmin && newRank >= assigner.Rank {
		return appErrors.ErrInsufficientAuth
	}
	if target != nil && target.Role() == models.RoleAdmin {
		return appErrors.ErrImmutableAdmin
	}
	switch models.RoleForRank(newRank) {
	case models.RoleDirector:
		if assignerRole != models.RoleAdmin {
			return appErrors.ErrDirectorRestricted
		}
	case models.RoleDeputyDirector:
		if assignerRole != models.RoleAdmin && assignerRole != models.RoleDirector {
			return appErrors.ErrDeputyRestricted
		}
	}
	return nil
}
