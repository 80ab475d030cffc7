package middleware

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bureau-roster-api/internal/models"
	appErrors "github.com/noah-isme/bureau-roster-api/pkg/errors"
	"github.com/noah-isme/bureau-roster-api/pkg/response"
)

// ContextMemberKey holds the member loaded by RequireLeadership.
const ContextMemberKey = "currentMember"

// MemberLookup loads the stored member behind a token.
type MemberLookup interface {
	GetByID(ctx context.Context, id string) (*models.Member, error)
}

// RequireLeadership admits only Admins, the Director and Deputy Directors.
// The role is derived from the stored member on every request, so a rank
// change takes effect without reissuing tokens.
func RequireLeadership(members MemberLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		member, err := members.GetByID(c.Request.Context(), claims.MemberID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "member no longer exists"))
			} else {
				response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load member"))
			}
			c.Abort()
			return
		}
		if !member.IsLeadership() {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Set(ContextMemberKey, member)
		c.Next()
	}
}
