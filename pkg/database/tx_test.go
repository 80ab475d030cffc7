package database

import (
	"context"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestWithinTransactionCommits(t *testing.T) {
	db, mock := newMockDB(t)
	mgr := NewTxManager(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE requests").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := mgr.WithinTransaction(context.Background(), func(ctx context.Context) error {
		_, err := Executor(ctx, db).ExecContext(ctx, "UPDATE requests SET status = 'APPROVED'")
		return err
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTransactionRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	mgr := NewTxManager(db)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := mgr.WithinTransaction(context.Background(), func(ctx context.Context) error {
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTransactionNestedReusesOuter(t *testing.T) {
	db, mock := newMockDB(t)
	mgr := NewTxManager(db)

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := mgr.WithinTransaction(context.Background(), func(ctx context.Context) error {
		outer := Executor(ctx, db)
		return mgr.WithinTransaction(ctx, func(inner context.Context) error {
			require.Same(t, outer, Executor(inner, db))
			return nil
		})
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
