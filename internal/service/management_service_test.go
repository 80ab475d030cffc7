package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bureau-roster-api/internal/dto"
	"github.com/noah-isme/bureau-roster-api/internal/models"
	appErrors "github.com/noah-isme/bureau-roster-api/pkg/errors"
)

type blacklistCheckerStub map[string]bool

func (b blacklistCheckerStub) ExistsByNickname(ctx context.Context, nickname string) (bool, error) {
	return b[nickname], nil
}

func TestAssignDirectorDemotesIncumbent(t *testing.T) {
	g := newGovernance(admin("root"), member("d1", 9), member("m", 5))

	target, err := g.management().AssignDirector(context.Background(), "root", "m")
	require.NoError(t, err)
	assert.Equal(t, models.RankDirector, target.Rank)
	assert.Equal(t, models.RoleDirector, target.Role())

	former := g.members.get(t, "d1")
	assert.Equal(t, models.RankDeputyDirector, former.Rank)
	assert.Equal(t, models.RoleDeputyDirector, former.Role())
	assert.Equal(t, models.PositionDeputyDirector, former.Position)

	promoted := g.members.get(t, "m")
	assert.Equal(t, 9, promoted.Rank)
	assert.Equal(t, models.PositionDirector, promoted.Position)

	assert.Len(t, g.notifications.sentTo("d1"), 1)
	assert.Len(t, g.notifications.sentTo("m"), 1)
	require.Len(t, g.audit.entries, 1)
	assert.Equal(t, models.AuditActionDirectorAssigned, g.audit.entries[0].Action)
	assert.Contains(t, g.audit.entries[0].Details, "d1")
}

func TestAssignDirectorAdminOnly(t *testing.T) {
	g := newGovernance(member("d1", 9), member("m", 5))
	_, err := g.management().AssignDirector(context.Background(), "d1", "m")
	require.ErrorIs(t, err, appErrors.ErrForbidden)
	assert.Empty(t, g.audit.entries)
}

func TestIssuePenalty(t *testing.T) {
	g := newGovernance(member("boss", 9), member("agent", 4))
	svc := g.management()

	_, err := svc.IssuePenalty(context.Background(), "boss", "agent", dto.IssuePenaltyRequest{Reason: "   "})
	require.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Empty(t, g.audit.entries)
	assert.Empty(t, g.notifications.notifications)

	target, err := svc.IssuePenalty(context.Background(), "boss", "agent", dto.IssuePenaltyRequest{Reason: "late to briefing"})
	require.NoError(t, err)
	require.Len(t, target.Penalties, 1)
	assert.Equal(t, models.PenaltyTypeSevereReprimand, target.Penalties[0].Type)
	assert.Equal(t, "boss", target.Penalties[0].IssuedBy)

	assert.Len(t, g.members.get(t, "agent").Penalties, 1)
	sent := g.notifications.sentTo("agent")
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Text, "late to briefing")
	require.Len(t, g.audit.entries, 1)
	assert.Equal(t, "Member: agent, Reason: late to briefing", g.audit.entries[0].Details)
}

func TestIssuePenaltyRequiresAuthority(t *testing.T) {
	g := newGovernance(member("low", 3), member("agent", 4))
	_, err := g.management().IssuePenalty(context.Background(), "low", "agent", dto.IssuePenaltyRequest{Reason: "x"})
	require.ErrorIs(t, err, appErrors.ErrForbidden)
	assert.Empty(t, g.members.get(t, "agent").Penalties)
}

func TestRemovePenaltyByIndex(t *testing.T) {
	target := member("agent", 4)
	target.Penalties = []models.Penalty{{ID: "P1", Reason: "a"}, {ID: "P2", Reason: "b"}, {ID: "P3", Reason: "c"}}
	g := newGovernance(member("boss", 9), target)
	svc := g.management()

	_, err := svc.RemovePenalty(context.Background(), "boss", "agent", 3)
	require.ErrorIs(t, err, appErrors.ErrNotFound)

	updated, err := svc.RemovePenalty(context.Background(), "boss", "agent", 1)
	require.NoError(t, err)
	require.Len(t, updated.Penalties, 2)
	assert.Equal(t, "P1", updated.Penalties[0].ID)
	assert.Equal(t, "P3", updated.Penalties[1].ID)
	require.Len(t, g.audit.entries, 1)
	assert.Equal(t, "Member: agent, Penalty: b", g.audit.entries[0].Details)
	assert.Empty(t, g.notifications.notifications)
}

func TestChangeRankGuardrails(t *testing.T) {
	cases := []struct {
		name   string
		actor  string
		target string
		rank   int
		want   error
	}{
		{"rank at or above own", "deputy", "agent", 8, appErrors.ErrInsufficientAuth},
		{"admin target", "root", "root2", 3, appErrors.ErrImmutableAdmin},
		{"director cannot assign own rank", "boss", "agent", 9, appErrors.ErrInsufficientAuth},
		{"deputy assigns below own rank", "deputy", "agent", 7, nil},
		{"cannot manage peer", "deputy", "deputy2", 5, appErrors.ErrForbidden},
		{"self", "deputy", "deputy", 3, appErrors.ErrForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := newGovernance(admin("root"), admin("root2"), member("boss", 9), member("deputy", 8), member("deputy2", 8), member("agent", 4))
			_, err := g.management().ChangeRank(context.Background(), tc.actor, tc.target, dto.ChangeRankRequest{Rank: ptr(tc.rank)})
			if tc.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.want)
			assert.Empty(t, g.audit.entries)
		})
	}
}

func TestChangeRankDeputyAssignmentRestricted(t *testing.T) {
	senior := member("senior", 10)
	g := newGovernance(senior, member("agent", 4))

	_, err := g.management().ChangeRank(context.Background(), "senior", "agent", dto.ChangeRankRequest{Rank: ptr(8)})
	require.ErrorIs(t, err, appErrors.ErrDeputyRestricted)

	_, err = g.management().ChangeRank(context.Background(), "senior", "agent", dto.ChangeRankRequest{Rank: ptr(9)})
	require.ErrorIs(t, err, appErrors.ErrDirectorRestricted)
}

func TestChangeRankRecordsAuditAndNotifies(t *testing.T) {
	target := member("agent", 4)
	target.Position = "Field agent"
	g := newGovernance(member("boss", 9), target)

	updated, err := g.management().ChangeRank(context.Background(), "boss", "agent", dto.ChangeRankRequest{Rank: ptr(6), Position: "Team lead"})
	require.NoError(t, err)
	assert.Equal(t, 6, updated.Rank)
	assert.Equal(t, "Team lead", updated.Position)

	require.Len(t, g.audit.entries, 1)
	assert.Equal(t, `Member: agent. Rank: Senior Agent -> Supervisory Special Agent. Position: "Field agent" -> "Team lead"`, g.audit.entries[0].Details)
	sent := g.notifications.sentTo("agent")
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Text, "Supervisory Special Agent")
}

func TestChangeRankToDirectorKeepsSingleDirector(t *testing.T) {
	g := newGovernance(admin("root"), member("d1", 9), member("m", 5))
	_, err := g.management().ChangeRank(context.Background(), "root", "m", dto.ChangeRankRequest{Rank: ptr(9)})
	require.NoError(t, err)
	assert.Equal(t, 8, g.members.get(t, "d1").Rank)
	assert.Equal(t, 9, g.members.get(t, "m").Rank)
}

func TestChangeRankOutOfRange(t *testing.T) {
	g := newGovernance(admin("root"), member("m", 5))
	_, err := g.management().ChangeRank(context.Background(), "root", "m", dto.ChangeRankRequest{Rank: ptr(12)})
	require.ErrorIs(t, err, appErrors.ErrValidation)

	g.settings.settings.RankNames = append(g.settings.settings.RankNames, "Chief")
	_, err = g.management().ChangeRank(context.Background(), "root", "m", dto.ChangeRankRequest{Rank: ptr(10)})
	require.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Equal(t, 5, g.members.get(t, "m").Rank)
}

func TestFire(t *testing.T) {
	g := newGovernance(member("boss", 9), member("agent", 4))
	svc := g.management()

	err := svc.Fire(context.Background(), "boss", "agent", dto.FireRequest{Reason: ""})
	require.ErrorIs(t, err, appErrors.ErrValidation)

	require.NoError(t, svc.Fire(context.Background(), "boss", "agent", dto.FireRequest{Reason: "absent for a month"}))
	_, err = g.members.GetByID(context.Background(), "agent")
	require.Error(t, err)
	require.Len(t, g.audit.entries, 1)
	assert.Equal(t, models.AuditActionMemberFired, g.audit.entries[0].Action)
	assert.Len(t, g.notifications.sentTo("agent"), 1)
}

func TestWhitelist(t *testing.T) {
	g := newGovernance(member("boss", 9), member("agent", 4))
	svc := g.management()

	created, err := svc.Whitelist(context.Background(), "boss", dto.WhitelistRequest{Nickname: "  John  Smith "})
	require.NoError(t, err)
	assert.Equal(t, "John_Smith", created.Nickname)
	assert.Equal(t, 0, created.Rank)
	assert.Equal(t, models.PositionCadet, created.Position)
	assert.Equal(t, models.DepartmentAcademy, created.Department)

	_, err = svc.Whitelist(context.Background(), "boss", dto.WhitelistRequest{Nickname: "john_smith"})
	require.ErrorIs(t, err, appErrors.ErrConflict)

	_, err = svc.Whitelist(context.Background(), "agent", dto.WhitelistRequest{Nickname: "Someone"})
	require.ErrorIs(t, err, appErrors.ErrForbidden)

	svc.blacklist = blacklistCheckerStub{"Banned": true}
	_, err = svc.Whitelist(context.Background(), "boss", dto.WhitelistRequest{Nickname: "Banned"})
	require.ErrorIs(t, err, appErrors.ErrConflict)

	assert.Len(t, g.audit.entries, 1)
}

func TestAddAdmin(t *testing.T) {
	g := newGovernance(admin("root"), member("boss", 9))
	svc := g.management()

	_, err := svc.AddAdmin(context.Background(), "boss", dto.WhitelistRequest{Nickname: "Ops"})
	require.ErrorIs(t, err, appErrors.ErrForbidden)

	created, err := svc.AddAdmin(context.Background(), "root", dto.WhitelistRequest{Nickname: "Ops"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, created.Role())
	assert.True(t, created.IsHead)
	assert.Equal(t, models.DepartmentManagement, created.Department)
	require.Len(t, g.audit.entries, 1)
	assert.Equal(t, models.AuditActionAdminAdd, g.audit.entries[0].Action)
}
