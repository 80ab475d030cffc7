package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bureau-roster-api/internal/dto"
	"github.com/noah-isme/bureau-roster-api/internal/models"
	appErrors "github.com/noah-isme/bureau-roster-api/pkg/errors"
)

func TestAuditRecordStampsActor(t *testing.T) {
	g := newGovernance(member("boss", 9))
	require.NoError(t, g.auditSvc.Record(context.Background(), g.members.get(t, "boss"), models.AuditActionPenaltyIssued, "Member: x, Reason: y"))

	require.Len(t, g.audit.entries, 1)
	entry := g.audit.entries[0]
	assert.Equal(t, "boss", entry.ActorNickname)
	assert.Equal(t, g.now, entry.CreatedAt)
}

func TestAuditListLeadershipOnly(t *testing.T) {
	g := newGovernance(member("boss", 8), member("agent", 4))
	boss := g.members.get(t, "boss")
	require.NoError(t, g.auditSvc.Record(context.Background(), boss, models.AuditActionMemberFired, "first"))
	require.NoError(t, g.auditSvc.Record(context.Background(), boss, models.AuditActionMemberFired, "second"))

	_, _, err := g.auditSvc.List(context.Background(), "agent", dto.AuditQuery{})
	require.ErrorIs(t, err, appErrors.ErrForbidden)

	entries, pagination, err := g.auditSvc.List(context.Background(), "boss", dto.AuditQuery{PageSize: 500})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "second", entries[0].Details)
	assert.Equal(t, 100, pagination.PageSize)
	assert.Equal(t, 2, pagination.TotalCount)
}

func TestAuditExportCSV(t *testing.T) {
	g := newGovernance(member("boss", 9))
	require.NoError(t, g.auditSvc.Record(context.Background(), g.members.get(t, "boss"), models.AuditActionRankChanged, "Member: Ольга"))

	file, err := g.auditSvc.Export(context.Background(), "boss", "CSV", "")
	require.NoError(t, err)
	assert.Equal(t, "audit-log-20240301-120000.csv", file.Filename)
	assert.True(t, strings.HasPrefix(file.ContentType, "text/csv"))
	body := string(file.Data)
	assert.Contains(t, body, "Time,Actor,Action,Details")
	assert.Contains(t, body, "Member: Ольга")
}

func TestAuditExportPDF(t *testing.T) {
	g := newGovernance(member("boss", 9))
	file, err := g.auditSvc.Export(context.Background(), "boss", AuditFormatPDF, "")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasPrefix(string(file.Data), "%PDF"))
}

func TestAuditExportRejectsUnknownFormat(t *testing.T) {
	g := newGovernance(member("boss", 9))
	_, err := g.auditSvc.Export(context.Background(), "boss", "xlsx", "")
	require.ErrorIs(t, err, appErrors.ErrValidation)
}
