package service

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"time"

	"github.com/noah-isme/bureau-roster-api/internal/models"
	appErrors "github.com/noah-isme/bureau-roster-api/pkg/errors"
)

// firstRuledRank is the lowest rank with a row in the promotion table.
const firstRuledRank = 3

// probationPattern matches "[24 hours]", "[1 hour]" and the legacy
// "[24 часа]" / "[5 часов]" forms.
var probationPattern = regexp.MustCompile(`(?i)\[\s*(\d+)\s*(?:hours?|час(?:а|ов)?)\s*\]`)

// MaxProbationHours bounds a single probation. Longer tokens are rejected
// when rules are saved and clamped when read.
const MaxProbationHours = 100000

// ParseProbationHours extracts the cooldown embedded in a probation string.
// ok is false when no cooldown token is present, which means no cooldown.
// Counts above MaxProbationHours are clamped.
func ParseProbationHours(text string) (hours int, ok bool) {
	hours, exceeds, ok := parseProbation(text)
	if exceeds {
		return MaxProbationHours, true
	}
	return hours, ok
}

func parseProbation(text string) (hours int, exceeds, ok bool) {
	match := probationPattern.FindStringSubmatch(text)
	if match == nil {
		return 0, false, false
	}
	n, err := strconv.Atoi(match[1])
	if errors.Is(err, strconv.ErrRange) {
		return 0, true, true
	}
	if err != nil || n < 0 {
		return 0, false, false
	}
	if n > MaxProbationHours {
		return 0, true, true
	}
	return n, false, true
}

// ProbationHours returns the cooldown that applies to a member of rank.
func ProbationHours(system models.PromotionSystem, rank int) int {
	index := rank - firstRuledRank
	if index < 0 || index >= len(system.AgentPromotions) {
		return 0
	}
	rule := system.AgentPromotions[index]
	if rule.Probation == nil {
		return 0
	}
	hours, _ := ParseProbationHours(*rule.Probation)
	return hours
}

// CheckCooldown rejects a promotion request while the probation of the
// member's current rank has not elapsed.
func CheckCooldown(member *models.Member, system models.PromotionSystem, now time.Time) error {
	if member == nil || member.LastPromotionDate == nil {
		return nil
	}
	hours := ProbationHours(system, member.Rank)
	if hours <= 0 {
		return nil
	}
	remaining := time.Duration(hours)*time.Hour - now.Sub(*member.LastPromotionDate)
	if remaining <= 0 {
		return nil
	}
	return appErrors.CooldownActive(int(math.Ceil(remaining.Hours())))
}
