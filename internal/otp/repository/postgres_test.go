package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"notesmk/backend/internal/otp/domain"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

var now = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func TestPut_SetsSeq(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+otp_codes\s*\(email,\s*code_hash,\s*created_at\).*RETURNING\s+seq$`).
		WithArgs("a@x.com", "hash", now).
		WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(int64(7)))

	c := &domain.Code{Email: "a@x.com", CodeHash: "hash", CreatedAt: now}
	require.NoError(t, repo.Put(context.Background(), c))
	require.Equal(t, int64(7), c.Seq)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPut_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+otp_codes`).WillReturnError(errors.New("db down"))

	err := repo.Put(context.Background(), &domain.Code{Email: "a@x.com", CodeHash: "h", CreatedAt: now})
	require.Error(t, err)
	require.Contains(t, err.Error(), "otp put: db down")
}

func TestMostRecentValid_OrdersByCreatedAtThenSeq(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	validAfter := now.Add(-300 * time.Second)
	mock.ExpectQuery(`(?s)FROM\s+otp_codes\s+WHERE\s+email\s*=\s*\$1\s+AND\s+created_at\s*>=\s*\$2\s+ORDER\s+BY\s+created_at\s+DESC,\s*seq\s+DESC\s+LIMIT\s+1`).
		WithArgs("a@x.com", validAfter).
		WillReturnRows(sqlmock.NewRows([]string{"seq", "email", "code_hash", "created_at"}).
			AddRow(int64(9), "a@x.com", "h2", now))

	c, err := repo.MostRecentValid(context.Background(), "a@x.com", validAfter)
	require.NoError(t, err)
	require.NotNil(t, c)
	require.Equal(t, int64(9), c.Seq)
	require.Equal(t, "h2", c.CodeHash)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMostRecentValid_NoneReturnsNil(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+otp_codes`).WillReturnError(sql.ErrNoRows)

	c, err := repo.MostRecentValid(context.Background(), "a@x.com", now)
	require.NoError(t, err)
	require.Nil(t, c)
}

func TestActiveCodeExists(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)SELECT\s+EXISTS.*code_hash\s*=\s*\$1\s+AND\s+created_at\s*>=\s*\$2`).
		WithArgs("h", now).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ActiveCodeExists(context.Background(), "h", now)
	require.NoError(t, err)
	require.True(t, exists)
}

func TestConsume(t *testing.T) {
	testCases := []struct {
		name    string
		claimed bool
	}{
		{"claims matched code", true},
		{"already consumed", false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo, mock, db := newRepoWithMock(t)
			defer db.Close()

			mock.ExpectQuery(`(?s)^WITH\s+purged\s+AS\s+\(\s*DELETE\s+FROM\s+otp_codes.*seq\s*<=\s*\$2.*RETURNING\s+seq.*SELECT\s+EXISTS`).
				WithArgs("a@x.com", int64(7), now).
				WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(tc.claimed))

			claimed, err := repo.Consume(context.Background(), &domain.Code{Seq: 7, Email: "a@x.com", CreatedAt: now})
			require.NoError(t, err)
			require.Equal(t, tc.claimed, claimed)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestConsume_WrapsError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^WITH\s+purged`).WillReturnError(sql.ErrConnDone)

	_, err := repo.Consume(context.Background(), &domain.Code{Seq: 1, Email: "a@x.com", CreatedAt: now})
	require.ErrorIs(t, err, sql.ErrConnDone)
	require.Contains(t, err.Error(), "otp purge")
}

func TestDeleteExpired(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^DELETE\s+FROM\s+otp_codes\s+WHERE\s+created_at\s*<\s*\$1$`).
		WithArgs(now).
		WillReturnError(errors.New("timeout"))

	_, err := repo.DeleteExpired(context.Background(), now)
	require.Error(t, err)
	require.Contains(t, err.Error(), "otp sweep")
}
