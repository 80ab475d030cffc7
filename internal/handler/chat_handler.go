package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bureau-roster-api/internal/dto"
	"github.com/noah-isme/bureau-roster-api/internal/models"
	"github.com/noah-isme/bureau-roster-api/pkg/response"
)

type chatService interface {
	Channels(ctx context.Context) ([]string, error)
	History(ctx context.Context, channel string, limit int) ([]models.ChatMessage, error)
	Send(ctx context.Context, actorID, channel string, req dto.SendMessageRequest) (*dto.SendMessageResult, error)
}

// ChatHandler exposes chat channels.
type ChatHandler struct {
	service chatService
}

// NewChatHandler builds a new handler.
func NewChatHandler(service chatService) *ChatHandler {
	return &ChatHandler{service: service}
}

// Channels godoc
// @Summary List chat channels
// @Tags Chat
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /chat [get]
func (h *ChatHandler) Channels(c *gin.Context) {
	channels, err := h.service.Channels(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, channels, nil)
}

// History godoc
// @Summary Channel history
// @Tags Chat
// @Produce json
// @Param channel path string true "Channel"
// @Param limit query int false "Maximum messages"
// @Success 200 {object} response.Envelope
// @Router /chat/{channel} [get]
func (h *ChatHandler) History(c *gin.Context) {
	messages, err := h.service.History(c.Request.Context(), c.Param("channel"), queryInt(c, "limit", 100))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, messages, nil)
}

// Send godoc
// @Summary Post a message
// @Tags Chat
// @Accept json
// @Produce json
// @Param channel path string true "Channel"
// @Param payload body dto.SendMessageRequest true "Message"
// @Success 201 {object} response.Envelope
// @Router /chat/{channel} [post]
func (h *ChatHandler) Send(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req dto.SendMessageRequest
	if !bindJSON(c, &req, "invalid message payload") {
		return
	}
	result, err := h.service.Send(c.Request.Context(), actor, c.Param("channel"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}
