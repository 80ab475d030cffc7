package dto

// WhitelistRequest adds a new member to the roster.
type WhitelistRequest struct {
	Nickname string `json:"nickname" validate:"required,max=64"`
}

// IssuePenaltyRequest issues a severe reprimand.
type IssuePenaltyRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

// ChangeRankRequest assigns a new rank and position.
type ChangeRankRequest struct {
	Rank     *int   `json:"rank" validate:"required,min=0"`
	Position string `json:"position" validate:"max=128"`
}

// FireRequest dismisses a member.
type FireRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

// DutyRequest toggles the caller's on-duty flag.
type DutyRequest struct {
	OnDuty *bool `json:"on_duty" validate:"required"`
}
