package dto

import "github.com/noah-isme/bureau-roster-api/internal/models"

// SubmitRequest is the payload for filing a promotion, penalty removal or
// department join request. Department is required for DEPARTMENT_JOIN.
type SubmitRequest struct {
	Kind       models.RequestKind `json:"kind" validate:"required,oneof=PROMOTION PENALTY_REMOVAL DEPARTMENT_JOIN"`
	Content    string             `json:"content" validate:"max=4000"`
	Department string             `json:"department" validate:"required_if=Kind DEPARTMENT_JOIN"`
}

// DecisionRequest carries the reviewer's outcome.
type DecisionRequest struct {
	Outcome models.RequestStatus `json:"outcome" validate:"required,oneof=APPROVED REJECTED"`
}

// DecisionResult reports the archived request and the consequence applied.
type DecisionResult struct {
	Request      *models.Request `json:"request"`
	Author       *models.Member  `json:"author,omitempty"`
	Notification string          `json:"notification,omitempty"`
}

// ArchiveQuery filters the archive by archive id or author nickname, and
// optionally by author, kind and outcome.
type ArchiveQuery struct {
	Search   string
	AuthorID string
	Kind     string
	Status   []string
	Page     int
	PageSize int
}
