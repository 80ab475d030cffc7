package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bureau-roster-api/internal/dto"
	"github.com/noah-isme/bureau-roster-api/internal/models"
	"github.com/noah-isme/bureau-roster-api/pkg/response"
)

type settingsService interface {
	Current(ctx context.Context) (*models.Settings, error)
	UpdatePromotionSystem(ctx context.Context, actorID string, system models.PromotionSystem) (*models.Settings, error)
	UpdatePenaltySystem(ctx context.Context, actorID string, system models.PenaltySystem) (*models.Settings, error)
	UpdateCharter(ctx context.Context, actorID, text string) (*models.Settings, error)
	UpdateRankNames(ctx context.Context, actorID string, names []string) (*models.Settings, error)
	UpdateDepartments(ctx context.Context, actorID string, departments map[string]string) (*models.Settings, error)
}

// SettingsHandler exposes rule tables and name tables.
type SettingsHandler struct {
	settings settingsService
}

// NewSettingsHandler builds a new handler.
func NewSettingsHandler(settings settingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// Get godoc
// @Summary Current rule and name tables
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /settings [get]
func (h *SettingsHandler) Get(c *gin.Context) {
	settings, err := h.settings.Current(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// UpdatePromotionRules godoc
// @Summary Replace the promotion rules
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body dto.UpdatePromotionSystemRequest true "Promotion rules"
// @Success 200 {object} response.Envelope
// @Router /settings/promotion-rules [put]
func (h *SettingsHandler) UpdatePromotionRules(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req dto.UpdatePromotionSystemRequest
	if !bindJSON(c, &req, "invalid promotion rules payload") {
		return
	}
	h.respond(c)(h.settings.UpdatePromotionSystem(c.Request.Context(), actor, req.System))
}

// UpdatePenaltyRules godoc
// @Summary Replace the penalty removal rules
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body dto.UpdatePenaltySystemRequest true "Penalty rules"
// @Success 200 {object} response.Envelope
// @Router /settings/penalty-rules [put]
func (h *SettingsHandler) UpdatePenaltyRules(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req dto.UpdatePenaltySystemRequest
	if !bindJSON(c, &req, "invalid penalty rules payload") {
		return
	}
	h.respond(c)(h.settings.UpdatePenaltySystem(c.Request.Context(), actor, req.System))
}

// UpdateCharter godoc
// @Summary Replace the charter
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body dto.UpdateCharterRequest true "Charter"
// @Success 200 {object} response.Envelope
// @Router /settings/charter [put]
func (h *SettingsHandler) UpdateCharter(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req dto.UpdateCharterRequest
	if !bindJSON(c, &req, "invalid charter payload") {
		return
	}
	h.respond(c)(h.settings.UpdateCharter(c.Request.Context(), actor, req.Text))
}

// UpdateRankNames godoc
// @Summary Replace rank display names
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body dto.UpdateRankNamesRequest true "Rank names"
// @Success 200 {object} response.Envelope
// @Router /settings/rank-names [put]
func (h *SettingsHandler) UpdateRankNames(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req dto.UpdateRankNamesRequest
	if !bindJSON(c, &req, "invalid rank names payload") {
		return
	}
	h.respond(c)(h.settings.UpdateRankNames(c.Request.Context(), actor, req.RankNames))
}

// UpdateDepartments godoc
// @Summary Replace department display names
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body dto.UpdateDepartmentsRequest true "Departments"
// @Success 200 {object} response.Envelope
// @Router /settings/departments [put]
func (h *SettingsHandler) UpdateDepartments(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req dto.UpdateDepartmentsRequest
	if !bindJSON(c, &req, "invalid departments payload") {
		return
	}
	h.respond(c)(h.settings.UpdateDepartments(c.Request.Context(), actor, req.Departments))
}

func (h *SettingsHandler) respond(c *gin.Context) func(*models.Settings, error) {
	return func(settings *models.Settings, err error) {
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, settings, nil)
	}
}
