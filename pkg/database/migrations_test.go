package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func writeMigration(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
}

func TestRunMigrationsAppliesInOrder(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "0002_news.sql", "CREATE TABLE news (id TEXT)")
	writeMigration(t, dir, "0001_members.sql", "CREATE TABLE members (id TEXT)")
	writeMigration(t, dir, "README.md", "not sql")

	db, mock := newMockDB(t)
	mock.ExpectExec("CREATE TABLE members").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE news").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, RunMigrations(context.Background(), db, dir, nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrationsStopsOnFailure(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "0001_members.sql", "CREATE TABLE members (id TEXT)")
	writeMigration(t, dir, "0002_news.sql", "CREATE TABLE news (id TEXT)")

	db, mock := newMockDB(t)
	mock.ExpectExec("CREATE TABLE members").WillReturnError(errors.New("syntax error"))

	err := RunMigrations(context.Background(), db, dir, nil)
	require.ErrorContains(t, err, "0001_members.sql")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrationsMissingDir(t *testing.T) {
	db, _ := newMockDB(t)
	require.Error(t, RunMigrations(context.Background(), db, filepath.Join(t.TempDir(), "absent"), nil))
}
