package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bureau-roster-api/internal/models"
	appErrors "github.com/noah-isme/bureau-roster-api/pkg/errors"
)

func TestMemberServiceList(t *testing.T) {
	g := newGovernance(admin("root"), member("boss", 9), swatMember("alice"), member("dave", 3))
	svc := NewMemberService(g.members, nil)

	swat, err := svc.List(context.Background(), models.MemberFilter{Department: " swat "})
	require.NoError(t, err)
	require.Len(t, swat, 1)
	assert.Equal(t, "alice", swat[0].ID)

	leaders, err := svc.Leadership(context.Background())
	require.NoError(t, err)
	ids := []string{}
	for _, m := range leaders {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"boss", "root"}, ids)
}

func TestMemberServiceGet(t *testing.T) {
	g := newGovernance(member("dave", 3))
	svc := NewMemberService(g.members, nil)

	m, err := svc.Get(context.Background(), "dave")
	require.NoError(t, err)
	assert.Equal(t, 3, m.Rank)

	_, err = svc.Get(context.Background(), "ghost")
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestMemberServiceSetOnDuty(t *testing.T) {
	g := newGovernance(member("dave", 3))
	svc := NewMemberService(g.members, nil)

	m, err := svc.SetOnDuty(context.Background(), "dave", true)
	require.NoError(t, err)
	assert.True(t, m.OnDuty)
	assert.True(t, g.members.get(t, "dave").OnDuty)

	_, err = svc.SetOnDuty(context.Background(), "ghost", true)
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
