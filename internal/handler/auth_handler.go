package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bureau-roster-api/pkg/response"
)

// AuthHandler reports who the bearer token belongs to.
type AuthHandler struct {
	members memberService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(members memberService) *AuthHandler {
	return &AuthHandler{members: members}
}

// Me godoc
// @Summary Current member
// @Description Returns the stored member behind the token, including the derived role
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	member, err := h.members.Get(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, member, nil)
}
