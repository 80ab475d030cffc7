package models

import "time"

// RequestKind enumerates member-submitted request types.
type RequestKind string

const (
	RequestKindPromotion      RequestKind = "PROMOTION"
	RequestKindPenaltyRemoval RequestKind = "PENALTY_REMOVAL"
	RequestKindDepartmentJoin RequestKind = "DEPARTMENT_JOIN"
)

// Valid reports whether the kind is supported.
func (k RequestKind) Valid() bool {
	switch k {
	case RequestKindPromotion, RequestKindPenaltyRemoval, RequestKindDepartmentJoin:
		return true
	}
	return false
}

// RequestStatus captures the lifecycle state of a request.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "PENDING"
	RequestStatusApproved RequestStatus = "APPROVED"
	RequestStatusRejected RequestStatus = "REJECTED"
)

// Decided reports whether the status is a final decision.
func (s RequestStatus) Decided() bool {
	return s == RequestStatusApproved || s == RequestStatusRejected
}

// Request is a member-submitted ask awaiting or past review. A request is
// pending while Status is PENDING and archived once ArchiveID is set; both
// share the id namespace.
type Request struct {
	ID                       string        `db:"id" json:"id"`
	AuthorID                 string        `db:"author_id" json:"author_id"`
	AuthorNickname           string        `db:"author_nickname" json:"author_nickname"`
	Kind                     RequestKind   `db:"kind" json:"kind"`
	Content                  string        `db:"content" json:"content"`
	Status                   RequestStatus `db:"status" json:"status"`
	Department               *string       `db:"department" json:"department,omitempty"`
	IsFirstDepartmentRequest bool          `db:"is_first_department_request" json:"is_first_department_request"`
	SubmittedAt              time.Time     `db:"submitted_at" json:"submitted_at"`
	ReviewerNickname         *string       `db:"reviewer_nickname" json:"reviewer_nickname,omitempty"`
	DecidedAt                *time.Time    `db:"decided_at" json:"decided_at,omitempty"`
	ArchiveID                *string       `db:"archive_id" json:"archive_id,omitempty"`
}

// DepartmentKey returns the requested department or an empty string.
func (r *Request) DepartmentKey() string {
	if r == nil || r.Department == nil {
		return ""
	}
	return *r.Department
}

// RequestFilter constrains archive listings. Empty fields match everything.
type RequestFilter struct {
	AuthorID string
	Kind     RequestKind
	Status   []RequestStatus
	Search   string
	Limit    int
	Offset   int
}

// ArchiveDecision stamps a request with its outcome.
type ArchiveDecision struct {
	RequestID        string
	Status           RequestStatus
	ReviewerNickname string
	DecidedAt        time.Time
	ArchiveID        string
}

// ArchiveLink is a signed shareable URL for an archived request.
type ArchiveLink struct {
	ArchiveID string    `json:"archive_id"`
	URL       string    `json:"url"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
