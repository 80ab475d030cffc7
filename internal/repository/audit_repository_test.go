package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bureau-roster-api/internal/models"
)

func TestAuditRepositoryCreate(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewAuditRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_log")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	entry := &models.AuditLogEntry{ActorNickname: "Boss", Action: models.AuditActionPenaltyIssued, Details: "Target: John_Doe"}
	require.NoError(t, repo.Create(context.Background(), entry))
	require.NotEmpty(t, entry.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepositoryListSearchNewestFirst(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewAuditRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM audit_log WHERE")).
		WithArgs("%john%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC, id DESC LIMIT 10 OFFSET 10")).
		WithArgs("%john%").
		WillReturnRows(sqlmock.NewRows([]string{"id", "actor_nickname", "action", "details", "created_at"}).
			AddRow("a-2", "Boss", models.AuditActionMemberFired, "Target: John_Doe", now).
			AddRow("a-1", "Boss", models.AuditActionPenaltyIssued, "Target: John_Doe", now.Add(-time.Minute)))

	entries, total, err := repo.List(context.Background(), models.AuditFilter{Search: " John ", Limit: 10, Offset: 10})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Equal(t, "a-2", entries[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBlacklistRepositoryDeleteMissing(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewBlacklistRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM blacklist WHERE id = $1")).
		WithArgs("b-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.ErrorIs(t, repo.Delete(context.Background(), "b-1"), sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsRepositoryUpsert(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewSettingsRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (key) DO UPDATE")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	actor := "Boss"
	err := repo.Upsert(context.Background(), &models.SettingRecord{Key: models.SettingCharter, Value: []byte(`"text"`), UpdatedBy: &actor})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
