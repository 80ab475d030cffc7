package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bureau-roster-api/internal/models"
	"github.com/noah-isme/bureau-roster-api/pkg/response"
)

type notificationService interface {
	ListFor(ctx context.Context, memberID string, limit int) ([]models.Notification, error)
	MarkAllRead(ctx context.Context, memberID string) error
}

// NotificationHandler exposes the caller's notifications.
type NotificationHandler struct {
	service notificationService
}

// NewNotificationHandler builds a new handler.
func NewNotificationHandler(service notificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// List godoc
// @Summary List notifications, newest first
// @Tags Notifications
// @Produce json
// @Param limit query int false "Maximum items"
// @Success 200 {object} response.Envelope
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	items, err := h.service.ListFor(c.Request.Context(), actor, queryInt(c, "limit", 50))
	if err != nil {
		response.Error(c, err)
		return
	}
	unread := 0
	for _, n := range items {
		if !n.Read {
			unread++
		}
	}
	response.JSON(c, http.StatusOK, items, nil, map[string]interface{}{"unread": unread})
}

// MarkRead godoc
// @Summary Mark every notification read
// @Tags Notifications
// @Success 204
// @Router /notifications/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	if err := h.service.MarkAllRead(c.Request.Context(), actor); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
