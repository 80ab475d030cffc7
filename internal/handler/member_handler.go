package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bureau-roster-api/internal/dto"
	"github.com/noah-isme/bureau-roster-api/internal/models"
	appErrors "github.com/noah-isme/bureau-roster-api/pkg/errors"
	"github.com/noah-isme/bureau-roster-api/pkg/response"
)

type memberService interface {
	List(ctx context.Context, filter models.MemberFilter) ([]models.Member, error)
	Get(ctx context.Context, id string) (*models.Member, error)
	Leadership(ctx context.Context) ([]models.Member, error)
	SetOnDuty(ctx context.Context, actorID string, onDuty bool) (*models.Member, error)
}

type managementService interface {
	Whitelist(ctx context.Context, actorID string, req dto.WhitelistRequest) (*models.Member, error)
	AddAdmin(ctx context.Context, actorID string, req dto.WhitelistRequest) (*models.Member, error)
	AssignDirector(ctx context.Context, actorID, targetID string) (*models.Member, error)
	IssuePenalty(ctx context.Context, actorID, targetID string, req dto.IssuePenaltyRequest) (*models.Member, error)
	RemovePenalty(ctx context.Context, actorID, targetID string, index int) (*models.Member, error)
	ChangeRank(ctx context.Context, actorID, targetID string, req dto.ChangeRankRequest) (*models.Member, error)
	Fire(ctx context.Context, actorID, targetID string, req dto.FireRequest) error
}

// MemberHandler exposes the roster and management endpoints.
type MemberHandler struct {
	members    memberService
	management managementService
}

// NewMemberHandler builds a new handler.
func NewMemberHandler(members memberService, management managementService) *MemberHandler {
	return &MemberHandler{members: members, management: management}
}

// List godoc
// @Summary List roster
// @Tags Members
// @Produce json
// @Param department query string false "Department key"
// @Param search query string false "Nickname search"
// @Success 200 {object} response.Envelope
// @Router /members [get]
func (h *MemberHandler) List(c *gin.Context) {
	members, err := h.members.List(c.Request.Context(), models.MemberFilter{
		Department: c.Query("department"),
		Search:     c.Query("search"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, members, nil)
}

// DepartmentMembers godoc
// @Summary List department roster
// @Tags Members
// @Produce json
// @Param key path string true "Department key"
// @Success 200 {object} response.Envelope
// @Router /departments/{key}/members [get]
func (h *MemberHandler) DepartmentMembers(c *gin.Context) {
	members, err := h.members.List(c.Request.Context(), models.MemberFilter{Department: c.Param("key")})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, members, nil)
}

// Leadership godoc
// @Summary List administrators, the Director and deputies
// @Tags Members
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /members/leadership [get]
func (h *MemberHandler) Leadership(c *gin.Context) {
	members, err := h.members.Leadership(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, members, nil)
}

// Get godoc
// @Summary Get member
// @Tags Members
// @Produce json
// @Param id path string true "Member ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /members/{id} [get]
func (h *MemberHandler) Get(c *gin.Context) {
	member, err := h.members.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, member, nil)
}

// SetDuty godoc
// @Summary Toggle own on-duty flag
// @Tags Members
// @Accept json
// @Produce json
// @Param payload body dto.DutyRequest true "Duty payload"
// @Success 200 {object} response.Envelope
// @Router /members/me/duty [put]
func (h *MemberHandler) SetDuty(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req dto.DutyRequest
	if !bindJSON(c, &req, "invalid duty payload") {
		return
	}
	member, err := h.members.SetOnDuty(c.Request.Context(), actor, *req.OnDuty)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, member, nil)
}

// Whitelist godoc
// @Summary Add a cadet to the academy
// @Tags Management
// @Accept json
// @Produce json
// @Param payload body dto.WhitelistRequest true "Whitelist payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /members/whitelist [post]
func (h *MemberHandler) Whitelist(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req dto.WhitelistRequest
	if !bindJSON(c, &req, "invalid whitelist payload") {
		return
	}
	member, err := h.management.Whitelist(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, member)
}

// AddAdmin godoc
// @Summary Add an administrator
// @Tags Management
// @Accept json
// @Produce json
// @Param payload body dto.WhitelistRequest true "Administrator payload"
// @Success 201 {object} response.Envelope
// @Router /members/admins [post]
func (h *MemberHandler) AddAdmin(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req dto.WhitelistRequest
	if !bindJSON(c, &req, "invalid administrator payload") {
		return
	}
	member, err := h.management.AddAdmin(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, member)
}

// AssignDirector godoc
// @Summary Appoint the Director
// @Tags Management
// @Produce json
// @Param id path string true "Member ID"
// @Success 200 {object} response.Envelope
// @Router /members/{id}/director [post]
func (h *MemberHandler) AssignDirector(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	member, err := h.management.AssignDirector(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, member, nil)
}

// IssuePenalty godoc
// @Summary Issue a severe reprimand
// @Tags Management
// @Accept json
// @Produce json
// @Param id path string true "Member ID"
// @Param payload body dto.IssuePenaltyRequest true "Penalty payload"
// @Success 201 {object} response.Envelope
// @Router /members/{id}/penalties [post]
func (h *MemberHandler) IssuePenalty(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req dto.IssuePenaltyRequest
	if !bindJSON(c, &req, "invalid penalty payload") {
		return
	}
	member, err := h.management.IssuePenalty(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, member)
}

// RemovePenalty godoc
// @Summary Remove a penalty by position
// @Tags Management
// @Produce json
// @Param id path string true "Member ID"
// @Param index path int true "Penalty index, oldest first"
// @Success 200 {object} response.Envelope
// @Router /members/{id}/penalties/{index} [delete]
func (h *MemberHandler) RemovePenalty(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "penalty index must be a number"))
		return
	}
	member, err := h.management.RemovePenalty(c.Request.Context(), actor, c.Param("id"), index)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, member, nil)
}

// ChangeRank godoc
// @Summary Change rank and position
// @Tags Management
// @Accept json
// @Produce json
// @Param id path string true "Member ID"
// @Param payload body dto.ChangeRankRequest true "Rank payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /members/{id}/rank [put]
func (h *MemberHandler) ChangeRank(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req dto.ChangeRankRequest
	if !bindJSON(c, &req, "invalid rank payload") {
		return
	}
	member, err := h.management.ChangeRank(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, member, nil)
}

// Fire godoc
// @Summary Dismiss a member
// @Tags Management
// @Accept json
// @Param id path string true "Member ID"
// @Param payload body dto.FireRequest true "Dismissal payload"
// @Success 204
// @Router /members/{id} [delete]
func (h *MemberHandler) Fire(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req dto.FireRequest
	if !bindJSON(c, &req, "invalid dismissal payload") {
		return
	}
	if err := h.management.Fire(c.Request.Context(), actor, c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
