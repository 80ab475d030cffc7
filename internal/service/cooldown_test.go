package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bureau-roster-api/internal/models"
	appErrors "github.com/noah-isme/bureau-roster-api/pkg/errors"
)

func ptr[T any](v T) *T { return &v }

func TestParseProbationHours(t *testing.T) {
	cases := map[string]struct {
		hours int
		ok    bool
	}{
		"[24 hours]":                  {24, true},
		"Probation [1 hour] minimum":  {1, true},
		"[ 48 HOURS ]":                {48, true},
		"[24 часа]":                   {24, true},
		"[5 часов]":                   {5, true},
		"[1 час]":                     {1, true},
		"two days":                    {0, false},
		"[soon]":                      {0, false},
		"":                            {0, false},
		"[100000 hours]":              {MaxProbationHours, true},
		"[3000000 hours]":             {MaxProbationHours, true},
	}
	for input, want := range cases {
		hours, ok := ParseProbationHours(input)
		assert.Equal(t, want.hours, hours, input)
		assert.Equal(t, want.ok, ok, input)
	}

	hours, ok := ParseProbationHours("[99999999999999999999 hours]")
	assert.True(t, ok)
	assert.Equal(t, MaxProbationHours, hours)
}

func promotionSystem(probations ...*string) models.PromotionSystem {
	rules := make([]models.PromotionRule, len(probations))
	for i, p := range probations {
		rules[i] = models.PromotionRule{Probation: p}
	}
	return models.PromotionSystem{AgentPromotions: rules}
}

func TestCheckCooldownBlocksWithinProbation(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	system := promotionSystem(ptr("[24 hours]"))
	m := &models.Member{Rank: 3, LastPromotionDate: ptr(now.Add(-23 * time.Hour))}

	err := CheckCooldown(m, system, now)
	require.ErrorIs(t, err, appErrors.ErrCooldownActive)
	hours, ok := appErrors.RemainingHours(err)
	require.True(t, ok)
	assert.Equal(t, 1, hours)

	m.LastPromotionDate = ptr(now.Add(-25 * time.Hour))
	require.NoError(t, CheckCooldown(m, system, now))
}

func TestCheckCooldownClampsOversizedProbation(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	system := promotionSystem(ptr("[3000000 hours]"))
	m := &models.Member{Rank: 3, LastPromotionDate: ptr(now.Add(-time.Hour))}

	err := CheckCooldown(m, system, now)
	require.ErrorIs(t, err, appErrors.ErrCooldownActive)
	hours, ok := appErrors.RemainingHours(err)
	require.True(t, ok)
	assert.Equal(t, MaxProbationHours-1, hours)
}

func TestCheckCooldownRoundsRemainingUp(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	system := promotionSystem(ptr("[24 hours]"))
	m := &models.Member{Rank: 3, LastPromotionDate: ptr(now.Add(-90 * time.Minute))}

	hours, ok := appErrors.RemainingHours(CheckCooldown(m, system, now))
	require.True(t, ok)
	assert.Equal(t, 23, hours)
}

func TestCheckCooldownRanksBelowTableAlwaysEligible(t *testing.T) {
	now := time.Now()
	system := promotionSystem(ptr("[24 hours]"))
	for rank := 0; rank < 3; rank++ {
		m := &models.Member{Rank: rank, LastPromotionDate: ptr(now)}
		require.NoError(t, CheckCooldown(m, system, now), "rank %d", rank)
	}
}

func TestCheckCooldownWithoutRuleOrHistory(t *testing.T) {
	now := time.Now()
	system := promotionSystem(nil, ptr("no cooldown here"))

	require.NoError(t, CheckCooldown(&models.Member{Rank: 3, LastPromotionDate: ptr(now)}, system, now))
	require.NoError(t, CheckCooldown(&models.Member{Rank: 4, LastPromotionDate: ptr(now)}, system, now))
	require.NoError(t, CheckCooldown(&models.Member{Rank: 7, LastPromotionDate: ptr(now)}, system, now))
	require.NoError(t, CheckCooldown(&models.Member{Rank: 3}, promotionSystem(ptr("[24 hours]")), now))
}
