package dto

import "github.com/noah-isme/bureau-roster-api/internal/models"

// UpdatePromotionSystemRequest replaces the promotion rule table.
type UpdatePromotionSystemRequest struct {
	System models.PromotionSystem `json:"system"`
}

// UpdatePenaltySystemRequest replaces the penalty removal rules.
type UpdatePenaltySystemRequest struct {
	System models.PenaltySystem `json:"system"`
}

// UpdateCharterRequest replaces the charter text.
type UpdateCharterRequest struct {
	Text string `json:"text" validate:"required"`
}

// UpdateRankNamesRequest replaces the ordered rank display names.
type UpdateRankNamesRequest struct {
	RankNames []string `json:"rank_names" validate:"required,len=10,dive,required"`
}

// UpdateDepartmentsRequest replaces the department key to display name map.
type UpdateDepartmentsRequest struct {
	Departments map[string]string `json:"departments" validate:"required,min=1,dive,keys,required,endkeys,required"`
}
