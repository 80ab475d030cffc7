package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bureau-roster-api/internal/dto"
	"github.com/noah-isme/bureau-roster-api/internal/models"
	"github.com/noah-isme/bureau-roster-api/internal/service"
	"github.com/noah-isme/bureau-roster-api/pkg/response"
)

type auditService interface {
	List(ctx context.Context, actorID string, query dto.AuditQuery) ([]models.AuditLogEntry, *models.Pagination, error)
	Export(ctx context.Context, actorID, format, search string) (*service.AuditExport, error)
}

// AuditHandler exposes the audit log.
type AuditHandler struct {
	service auditService
}

// NewAuditHandler builds a new handler.
func NewAuditHandler(service auditService) *AuditHandler {
	return &AuditHandler{service: service}
}

// List godoc
// @Summary List audit entries, newest first
// @Tags Audit
// @Produce json
// @Param search query string false "Matches actor, action or details"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /audit-log [get]
func (h *AuditHandler) List(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	entries, pagination, err := h.service.List(c.Request.Context(), actor, dto.AuditQuery{
		Search:   c.Query("search"),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 20),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}

// Export godoc
// @Summary Export the audit log
// @Tags Audit
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Param search query string false "Matches actor, action or details"
// @Success 200 {file} file
// @Router /audit-log/export [get]
func (h *AuditHandler) Export(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	file, err := h.service.Export(c.Request.Context(), actor, c.DefaultQuery("format", service.AuditFormatCSV), c.Query("search"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
