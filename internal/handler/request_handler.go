package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bureau-roster-api/internal/dto"
	"github.com/noah-isme/bureau-roster-api/internal/models"
	"github.com/noah-isme/bureau-roster-api/pkg/response"
)

type requestService interface {
	Submit(ctx context.Context, actorID string, req dto.SubmitRequest) (*models.Request, error)
	ListPendingFor(ctx context.Context, reviewerID string) ([]models.Request, error)
	ListMine(ctx context.Context, actorID string) ([]models.Request, error)
	ListArchive(ctx context.Context, actorID string, query dto.ArchiveQuery) ([]models.Request, *models.Pagination, error)
	GetArchived(ctx context.Context, actorID, archiveID string) (*models.Request, error)
	ArchiveLink(ctx context.Context, actorID, archiveID string) (*models.ArchiveLink, error)
	SharedArchive(ctx context.Context, archiveID, token string) (*models.Request, error)
	DeleteArchived(ctx context.Context, actorID, archiveID string) error
}

type decisionService interface {
	Decide(ctx context.Context, reviewerID, requestID string, outcome models.RequestStatus) (*dto.DecisionResult, error)
}

// RequestHandler exposes request submission, review and the archive.
type RequestHandler struct {
	requests  requestService
	decisions decisionService
}

// NewRequestHandler builds a new handler.
func NewRequestHandler(requests requestService, decisions decisionService) *RequestHandler {
	return &RequestHandler{requests: requests, decisions: decisions}
}

// Submit godoc
// @Summary Submit a request
// @Tags Requests
// @Accept json
// @Produce json
// @Param payload body dto.SubmitRequest true "Request payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /requests [post]
func (h *RequestHandler) Submit(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req dto.SubmitRequest
	if !bindJSON(c, &req, "invalid request payload") {
		return
	}
	created, err := h.requests.Submit(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// Mine godoc
// @Summary List own requests
// @Tags Requests
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /requests/mine [get]
func (h *RequestHandler) Mine(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	requests, err := h.requests.ListMine(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// Pending godoc
// @Summary List pending requests the caller may review
// @Tags Requests
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /requests/pending [get]
func (h *RequestHandler) Pending(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	requests, err := h.requests.ListPendingFor(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// Decide godoc
// @Summary Approve or reject a pending request
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.DecisionRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /requests/{id}/decision [post]
func (h *RequestHandler) Decide(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req dto.DecisionRequest
	if !bindJSON(c, &req, "invalid decision payload") {
		return
	}
	result, err := h.decisions.Decide(c.Request.Context(), actor, c.Param("id"), req.Outcome)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Archive godoc
// @Summary Search the request archive
// @Tags Archive
// @Produce json
// @Param search query string false "Archive id or author nickname"
// @Param author_id query string false "Author member ID"
// @Param kind query string false "Request kind"
// @Param status query []string false "Outcome: APPROVED or REJECTED"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /archive [get]
func (h *RequestHandler) Archive(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	requests, pagination, err := h.requests.ListArchive(c.Request.Context(), actor, dto.ArchiveQuery{
		Search:   c.Query("search"),
		AuthorID: c.Query("author_id"),
		Kind:     c.Query("kind"),
		Status:   c.QueryArray("status"),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 20),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, pagination)
}

// Archived godoc
// @Summary Get an archived request
// @Tags Archive
// @Produce json
// @Param archiveId path string true "Archive ID"
// @Success 200 {object} response.Envelope
// @Router /archive/{archiveId} [get]
func (h *RequestHandler) Archived(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	request, err := h.requests.GetArchived(c.Request.Context(), actor, c.Param("archiveId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// DeleteArchived godoc
// @Summary Delete an archived request
// @Tags Archive
// @Param archiveId path string true "Archive ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /archive/{archiveId} [delete]
func (h *RequestHandler) DeleteArchived(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	if err := h.requests.DeleteArchived(c.Request.Context(), actor, c.Param("archiveId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ArchiveLink godoc
// @Summary Create a signed share link for an archived request
// @Tags Archive
// @Produce json
// @Param archiveId path string true "Archive ID"
// @Success 200 {object} response.Envelope
// @Router /archive/{archiveId}/link [get]
func (h *RequestHandler) ArchiveLink(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	link, err := h.requests.ArchiveLink(c.Request.Context(), actor, c.Param("archiveId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}

// Shared godoc
// @Summary Open a shared archive link
// @Tags Archive
// @Produce json
// @Param archiveId path string true "Archive ID"
// @Param token query string true "Signed token"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /shared/archive/{archiveId} [get]
func (h *RequestHandler) Shared(c *gin.Context) {
	request, err := h.requests.SharedArchive(c.Request.Context(), c.Param("archiveId"), c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}
