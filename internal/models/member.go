package models

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// Role is the authority tier of a member. Agent, DeputyDirector and Director
// are derived from rank; Admin comes only from the explicit admin flag.
type Role string

const (
	RoleAgent          Role = "AGENT"
	RoleDeputyDirector Role = "DEPUTY_DIRECTOR"
	RoleDirector       Role = "DIRECTOR"
	RoleAdmin          Role = "ADMIN"
)

// Rank thresholds with a dedicated role.
const (
	RankDeputyDirector = 8
	RankDirector       = 9
)

// Default positions written by roster operations.
const (
	PositionCadet          = "Cadet"
	PositionDeputyDirector = "Deputy Director"
	PositionDirector       = "Director"
	PositionAdministrator  = "Administrator"
)

// PenaltyTypeSevereReprimand is the only penalty type issued in the bureau.
const PenaltyTypeSevereReprimand = "SEVERE_REPRIMAND"

// RoleForRank maps a rank to its rank-derived role.
func RoleForRank(rank int) Role {
	switch rank {
	case RankDirector:
		return RoleDirector
	case RankDeputyDirector:
		return RoleDeputyDirector
	default:
		return RoleAgent
	}
}

// Penalty is an active disciplinary entry on a member, ordered by IssuedAt.
type Penalty struct {
	ID       string    `db:"id" json:"id"`
	MemberID string    `db:"member_id" json:"-"`
	Type     string    `db:"type" json:"type"`
	Reason   string    `db:"reason" json:"reason"`
	IssuedBy string    `db:"issued_by" json:"issued_by"`
	IssuedAt time.Time `db:"issued_at" json:"issued_at"`
}

// Member is a roster entry. Role is never stored; see Role().
type Member struct {
	ID                string         `db:"id" json:"id"`
	Nickname          string         `db:"nickname" json:"nickname"`
	Rank              int            `db:"rank" json:"rank"`
	IsAdmin           bool           `db:"is_admin" json:"is_admin"`
	Position          string         `db:"position" json:"position"`
	Department        string         `db:"department" json:"department"`
	OnDuty            bool           `db:"on_duty" json:"on_duty"`
	IsHead            bool           `db:"is_head" json:"is_head"`
	LastPromotionDate *time.Time     `db:"last_promotion_date" json:"last_promotion_date,omitempty"`
	DepartmentHistory pq.StringArray `db:"department_history" json:"department_history"`
	Penalties         []Penalty      `db:"-" json:"penalties"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}

// Role derives the member's role from rank unless the admin flag is set.
func (m *Member) Role() Role {
	if m == nil {
		return RoleAgent
	}
	if m.IsAdmin {
		return RoleAdmin
	}
	return RoleForRank(m.Rank)
}

// IsLeadership reports whether the member is Admin, Director or DeputyDirector.
func (m *Member) IsLeadership() bool {
	switch m.Role() {
	case RoleAdmin, RoleDirector, RoleDeputyDirector:
		return true
	}
	return false
}

// MarshalJSON adds the derived role to the encoded member.
func (m Member) MarshalJSON() ([]byte, error) {
	type plain Member
	penalties := m.Penalties
	if penalties == nil {
		penalties = []Penalty{}
	}
	history := m.DepartmentHistory
	if history == nil {
		history = pq.StringArray{}
	}
	p := plain(m)
	p.Penalties = penalties
	p.DepartmentHistory = history
	return json.Marshal(struct {
		plain
		Role Role `json:"role"`
	}{plain: p, Role: m.Role()})
}

// MemberFilter narrows roster listings.
type MemberFilter struct {
	Department string
	Search     string
	Leadership bool
}
