package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/noah-isme/bureau-roster-api/internal/models"
	appErrors "github.com/noah-isme/bureau-roster-api/pkg/errors"
)

// txRunner executes fn as one atomic unit of work.
type txRunner interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// noTx runs fn directly. Used when no database transaction manager is wired.
type noTx struct{}

func (noTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func runnerOrDirect(tx txRunner) txRunner {
	if tx == nil {
		return noTx{}
	}
	return tx
}

type memberReader interface {
	GetByID(ctx context.Context, id string) (*models.Member, error)
}

type memberStore interface {
	memberReader
	Create(ctx context.Context, member *models.Member) error
	GetForUpdate(ctx context.Context, id string) (*models.Member, error)
	GetByNickname(ctx context.Context, nickname string) (*models.Member, error)
	FindDirector(ctx context.Context) (*models.Member, error)
	ExistsByNickname(ctx context.Context, nickname string) (bool, error)
	List(ctx context.Context, filter models.MemberFilter) ([]models.Member, error)
	Save(ctx context.Context, member *models.Member) error
	Delete(ctx context.Context, id string) error
	AddPenalty(ctx context.Context, penalty *models.Penalty) error
}

// loadActor resolves the calling member. Authority always comes from the
// stored record.
func loadActor(ctx context.Context, members memberReader, actorID string) (*models.Member, error) {
	if actorID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	actor, err := members.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "member no longer exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load member")
	}
	return actor, nil
}

// loadMember resolves a target member, mapping a miss to NotFound.
func loadMember(ctx context.Context, load func(context.Context, string) (*models.Member, error), id string) (*models.Member, error) {
	member, err := load(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load member")
	}
	return member, nil
}

func internalError(err error, message string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func requireLeadership(actor *models.Member) error {
	if !actor.IsLeadership() {
		return appErrors.ErrForbidden
	}
	return nil
}

func requireAdmin(actor *models.Member) error {
	if actor.Role() != models.RoleAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "administrator only")
	}
	return nil
}

// requireManager admits Admins and the Director.
func requireManager(actor *models.Member) error {
	switch actor.Role() {
	case models.RoleAdmin, models.RoleDirector:
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, "administrator or director only")
}

func normalizePage(page, size int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	return page, size
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
