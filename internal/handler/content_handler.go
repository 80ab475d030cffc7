package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bureau-roster-api/internal/dto"
	"github.com/noah-isme/bureau-roster-api/internal/models"
	"github.com/noah-isme/bureau-roster-api/pkg/response"
)

type contentService interface {
	List(ctx context.Context, filter models.ContentFilter) ([]models.NewsItem, error)
	Get(ctx context.Context, kind models.ContentKind, id string) (*models.NewsItem, error)
	Create(ctx context.Context, actorID string, kind models.ContentKind, req dto.ContentRequest) (*models.NewsItem, error)
	Update(ctx context.Context, actorID string, kind models.ContentKind, id string, req dto.ContentRequest) (*models.NewsItem, error)
	Delete(ctx context.Context, actorID string, kind models.ContentKind, id string) error
	SetPinned(ctx context.Context, actorID, id string, pinned bool) (*models.NewsItem, error)
	Archive(ctx context.Context, actorID, id string) (*models.NewsItem, error)
	Comment(ctx context.Context, actorID, raidID string, req dto.CommentRequest) (*models.ContentComment, error)
}

// ContentHandler serves one board: the news feed or the raids board.
type ContentHandler struct {
	service contentService
	kind    models.ContentKind
}

// NewContentHandler builds a handler bound to kind.
func NewContentHandler(service contentService, kind models.ContentKind) *ContentHandler {
	return &ContentHandler{service: service, kind: kind}
}

// List godoc
// @Summary List a board, pinned items first
// @Tags Content
// @Produce json
// @Param archived query bool false "News archive instead of the feed"
// @Param limit query int false "Maximum items"
// @Success 200 {object} response.Envelope
// @Router /news [get]
// @Router /raids [get]
func (h *ContentHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context(), models.ContentFilter{
		Kind:     h.kind,
		Archived: c.Query("archived") == "true",
		Limit:    queryInt(c, "limit", 50),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Get godoc
// @Summary Get an item with its comments
// @Tags Content
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /news/{id} [get]
// @Router /raids/{id} [get]
func (h *ContentHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), h.kind, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Publish a news item or post a raid
// @Tags Content
// @Accept json
// @Produce json
// @Param payload body dto.ContentRequest true "Item"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /news [post]
// @Router /raids [post]
func (h *ContentHandler) Create(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req dto.ContentRequest
	if !bindJSON(c, &req, "invalid content payload") {
		return
	}
	item, err := h.service.Create(c.Request.Context(), actor, h.kind, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Edit an item
// @Tags Content
// @Accept json
// @Produce json
// @Param id path string true "Item ID"
// @Param payload body dto.ContentRequest true "Item"
// @Success 200 {object} response.Envelope
// @Router /news/{id} [put]
// @Router /raids/{id} [put]
func (h *ContentHandler) Update(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req dto.ContentRequest
	if !bindJSON(c, &req, "invalid content payload") {
		return
	}
	item, err := h.service.Update(c.Request.Context(), actor, h.kind, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Delete an item
// @Tags Content
// @Param id path string true "Item ID"
// @Success 204
// @Router /news/{id} [delete]
// @Router /raids/{id} [delete]
func (h *ContentHandler) Delete(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), actor, h.kind, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Pin godoc
// @Summary Pin or unpin a news item
// @Tags Content
// @Accept json
// @Produce json
// @Param id path string true "Item ID"
// @Param payload body dto.PinRequest true "Pin state"
// @Success 200 {object} response.Envelope
// @Router /news/{id}/pin [put]
func (h *ContentHandler) Pin(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req dto.PinRequest
	if !bindJSON(c, &req, "invalid pin payload") {
		return
	}
	item, err := h.service.SetPinned(c.Request.Context(), actor, c.Param("id"), *req.Pinned)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Archive godoc
// @Summary Move a news item to the news archive
// @Tags Content
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /news/{id}/archive [post]
func (h *ContentHandler) Archive(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	item, err := h.service.Archive(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Comment godoc
// @Summary Comment on a raid
// @Tags Content
// @Accept json
// @Produce json
// @Param id path string true "Raid ID"
// @Param payload body dto.CommentRequest true "Comment"
// @Success 201 {object} response.Envelope
// @Router /raids/{id}/comments [post]
func (h *ContentHandler) Comment(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req dto.CommentRequest
	if !bindJSON(c, &req, "invalid comment payload") {
		return
	}
	comment, err := h.service.Comment(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, comment)
}
