package models

import (
	"strconv"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Setting keys persisted in the settings table.
const (
	SettingRankNames       = "rank_names"
	SettingDepartments     = "departments"
	SettingPromotionSystem = "promotion_system"
	SettingPenaltySystem   = "penalty_system"
	SettingCharter         = "charter"
)

// Department keys the roster relies on.
const (
	DepartmentAcademy    = "ACADEMY"
	DepartmentManagement = "MANAGEMENT"
)

// SettingRecord is a raw key/value row.
type SettingRecord struct {
	Key       string         `db:"key" json:"key"`
	Value     types.JSONText `db:"value" json:"value"`
	UpdatedBy *string        `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// AcademyStage is one step of the academy programme.
type AcademyStage struct {
	Title        string   `json:"title"`
	Requirements []string `json:"requirements"`
}

// PromotionRule is the rule row for one agent rank tier. Probation carries
// free text such as "[24 hours]" with the cooldown embedded.
type PromotionRule struct {
	Rank         string   `json:"rank"`
	Requirements []string `json:"requirements"`
	Probation    *string  `json:"probation,omitempty"`
}

// PromotionSystem holds the academy programme and the agent promotion table.
// AgentPromotions[i] applies to members of rank i+3.
type PromotionSystem struct {
	AcademyTitle    string          `json:"academy_title"`
	Academy         []AcademyStage  `json:"academy"`
	AgentsTitle     string          `json:"agents_title"`
	AgentPromotions []PromotionRule `json:"agent_promotions"`
	TasksA          []string        `json:"tasks_a"`
	TasksC          []string        `json:"tasks_c"`
	TasksS          []string        `json:"tasks_s"`
}

// PenaltySystem lists what a member must do to have a penalty removed.
type PenaltySystem struct {
	Title        string   `json:"title"`
	Requirements []string `json:"requirements"`
}

// Settings is the full set of rule and name tables.
type Settings struct {
	RankNames       []string          `json:"rank_names"`
	Departments     map[string]string `json:"departments"`
	PromotionSystem PromotionSystem   `json:"promotion_system"`
	PenaltySystem   PenaltySystem     `json:"penalty_system"`
	Charter         string            `json:"charter"`
}

// RankName returns the display name of rank or a numeric fallback.
func (s *Settings) RankName(rank int) string {
	if s != nil && rank >= 0 && rank < len(s.RankNames) {
		return s.RankNames[rank]
	}
	return "#" + strconv.Itoa(rank)
}

// DepartmentName returns the display name for key, or key itself.
func (s *Settings) DepartmentName(key string) string {
	if s != nil {
		if name, ok := s.Departments[key]; ok {
			return name
		}
	}
	return key
}

// MaxRank is the highest assignable rank. It never exceeds RankDirector,
// whatever the length of the rank name table.
func (s *Settings) MaxRank() int {
	if s == nil || len(s.RankNames) == 0 || len(s.RankNames) > RankDirector {
		return RankDirector
	}
	return len(s.RankNames) - 1
}

func probation(text string) *string { return &text }

// DefaultSettings returns the tables used until an operator saves their own.
func DefaultSettings() Settings {
	return Settings{
		RankNames: []string{
			"Cadet",
			"Trainee Agent",
			"Junior Agent",
			"Agent",
			"Senior Agent",
			"Special Agent",
			"Supervisory Special Agent",
			"Inspector",
			"Deputy Director",
			"Director",
		},
		Departments: map[string]string{
			DepartmentAcademy:    "Academy",
			DepartmentManagement: "Management",
			"CID":                "CID",
			"SWAT":               "SWAT",
			"IAD":                "IAD",
		},
		PromotionSystem: PromotionSystem{
			AcademyTitle: "Academy programme",
			Academy: []AcademyStage{
				{Title: "Cadet", Requirements: []string{"Pass the charter exam"}},
				{Title: "Trainee Agent", Requirements: []string{"Complete field training"}},
				{Title: "Junior Agent", Requirements: []string{"Complete the final academy assessment"}},
			},
			AgentsTitle: "Agent promotions",
			AgentPromotions: []PromotionRule{
				{Rank: "Agent", Requirements: []string{"Complete 3 tasks of category A"}, Probation: probation("[24 hours]")},
				{Rank: "Senior Agent", Requirements: []string{"Complete 3 tasks of category C"}, Probation: probation("[48 hours]")},
				{Rank: "Special Agent", Requirements: []string{"Complete 2 tasks of category S"}, Probation: probation("[72 hours]")},
				{Rank: "Supervisory Special Agent", Requirements: []string{"Lead two operations"}, Probation: probation("[96 hours]")},
				{Rank: "Inspector", Requirements: []string{"Approval of the department head"}, Probation: probation("[120 hours]")},
			},
			TasksA: []string{"Patrol duty", "Arrest report"},
			TasksC: []string{"Lead a raid", "Interrogation report"},
			TasksS: []string{"Undercover operation"},
		},
		PenaltySystem: PenaltySystem{
			Title:        "Penalty removal",
			Requirements: []string{"Seven days without new penalties", "Complete one community task"},
		},
		Charter: "Bureau charter.",
	}
}
