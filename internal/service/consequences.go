package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/noah-isme/bureau-roster-api/internal/models"
)

// Consequence is the input of a handler: an approved request, its author as
// loaded inside the decision transaction, and the tables in force.
type Consequence struct {
	Request   *models.Request
	Author    *models.Member
	Settings  *models.Settings
	DecidedAt time.Time
}

// ConsequenceHandler mutates the author of an approved request and returns
// the text of the personal notification describing the change. The caller
// persists the author.
type ConsequenceHandler interface {
	Apply(ctx context.Context, c *Consequence) (string, error)
}

// ConsequenceFunc adapts a plain function to ConsequenceHandler.
type ConsequenceFunc func(ctx context.Context, c *Consequence) (string, error)

// Apply implements ConsequenceHandler.
func (f ConsequenceFunc) Apply(ctx context.Context, c *Consequence) (string, error) {
	return f(ctx, c)
}

type directorStore interface {
	FindDirector(ctx context.Context) (*models.Member, error)
	Save(ctx context.Context, member *models.Member) error
}

// DefaultConsequences returns the handler for every request kind.
func DefaultConsequences(members directorStore) map[models.RequestKind]ConsequenceHandler {
	return map[models.RequestKind]ConsequenceHandler{
		models.RequestKindPromotion:      PromotionConsequence(members),
		models.RequestKindPenaltyRemoval: ConsequenceFunc(removeOldestPenalty),
		models.RequestKindDepartmentJoin: ConsequenceFunc(joinDepartment),
	}
}

// PromotionConsequence raises the author one rank, capped at the highest
// rank. Reaching Director demotes the incumbent to Deputy Director.
func PromotionConsequence(members directorStore) ConsequenceHandler {
	return ConsequenceFunc(func(ctx context.Context, c *Consequence) (string, error) {
		author := c.Author
		newRank := author.Rank + 1
		if maxRank := c.Settings.MaxRank(); newRank > maxRank {
			newRank = maxRank
		}
		if newRank == models.RankDirector && !author.IsAdmin && author.Rank != models.RankDirector {
			if err := demoteDirector(ctx, members, author.ID); err != nil {
				return "", err
			}
		}
		decidedAt := c.DecidedAt
		author.Rank = newRank
		author.LastPromotionDate = &decidedAt
		return fmt.Sprintf("Your promotion request was approved. You have been promoted to %q.", c.Settings.RankName(newRank)), nil
	})
}

// demoteDirector moves the current Director, if any and not exceptID, to
// Deputy Director.
func demoteDirector(ctx context.Context, members directorStore, exceptID string) error {
	incumbent, err := members.FindDirector(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("find director: %w", err)
	}
	if incumbent.ID == exceptID {
		return nil
	}
	incumbent.Rank = models.RankDeputyDirector
	incumbent.Position = models.PositionDeputyDirector
	if err := members.Save(ctx, incumbent); err != nil {
		return fmt.Errorf("demote director: %w", err)
	}
	return nil
}

// removeOldestPenalty drops the first penalty. No penalties is not an error.
func removeOldestPenalty(_ context.Context, c *Consequence) (string, error) {
	if len(c.Author.Penalties) > 0 {
		c.Author.Penalties = append([]models.Penalty(nil), c.Author.Penalties[1:]...)
	}
	return "Your penalty removal request was approved.", nil
}

// joinDepartment moves the author to the requested department. Headship is
// always cleared.
func joinDepartment(_ context.Context, c *Consequence) (string, error) {
	key := c.Request.DepartmentKey()
	if key == "" {
		return "", fmt.Errorf("department join request %s has no department", c.Request.ID)
	}
	author := c.Author
	author.DepartmentHistory = append(author.DepartmentHistory, author.Department)
	author.Department = key
	author.IsHead = false
	return fmt.Sprintf("Your request to join %s was approved.", c.Settings.DepartmentName(key)), nil
}

// rejectionText describes a rejected request to its author.
func rejectionText(request *models.Request, settings *models.Settings) string {
	switch request.Kind {
	case models.RequestKindPromotion:
		return "Your promotion request was rejected."
	case models.RequestKindPenaltyRemoval:
		return "Your penalty removal request was rejected."
	default:
		return fmt.Sprintf("Your request to join %s was rejected.", settings.DepartmentName(request.DepartmentKey()))
	}
}

func requestTitle(request *models.Request, settings *models.Settings) string {
	switch request.Kind {
	case models.RequestKindPromotion:
		return "Promotion request"
	case models.RequestKindPenaltyRemoval:
		return "Penalty removal request"
	default:
		return "Request to join " + settings.DepartmentName(request.DepartmentKey())
	}
}
