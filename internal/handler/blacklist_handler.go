package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bureau-roster-api/internal/dto"
	"github.com/noah-isme/bureau-roster-api/internal/models"
	"github.com/noah-isme/bureau-roster-api/pkg/response"
)

type blacklistService interface {
	List(ctx context.Context) ([]models.BlacklistEntry, error)
	Add(ctx context.Context, actorID string, req dto.BlacklistRequest) (*models.BlacklistEntry, error)
	Remove(ctx context.Context, actorID, id string) error
}

// BlacklistHandler exposes blacklist endpoints.
type BlacklistHandler struct {
	service blacklistService
}

// NewBlacklistHandler builds a new handler.
func NewBlacklistHandler(service blacklistService) *BlacklistHandler {
	return &BlacklistHandler{service: service}
}

// List godoc
// @Summary List blacklist entries
// @Tags Blacklist
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /blacklist [get]
func (h *BlacklistHandler) List(c *gin.Context) {
	entries, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Add godoc
// @Summary Blacklist a nickname
// @Tags Blacklist
// @Accept json
// @Produce json
// @Param payload body dto.BlacklistRequest true "Entry"
// @Success 201 {object} response.Envelope
// @Router /blacklist [post]
func (h *BlacklistHandler) Add(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req dto.BlacklistRequest
	if !bindJSON(c, &req, "invalid blacklist payload") {
		return
	}
	entry, err := h.service.Add(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// Remove godoc
// @Summary Remove a blacklist entry
// @Tags Blacklist
// @Param id path string true "Entry ID"
// @Success 204
// @Router /blacklist/{id} [delete]
func (h *BlacklistHandler) Remove(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	if err := h.service.Remove(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
