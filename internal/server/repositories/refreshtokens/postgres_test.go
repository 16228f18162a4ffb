package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/common"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

const insertPattern = `(?s)^\s*INSERT\s+INTO\s+refresh_tokens\b.*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*$`

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(insertPattern).
		WithArgs("u1", "tok123", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), "u1", "tok123", 30*time.Minute))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(insertPattern).
		WithArgs("u1", "tok123", sqlmock.AnyArg()).
		WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), "u1", "tok123", time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error")
}

func TestFind_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	expires := time.Now().Add(time.Hour)
	mock.ExpectQuery(`(?s)SELECT\s+user_id,\s*expires_at\s+FROM\s+refresh_tokens`).
		WithArgs("tok123").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at"}).AddRow("u1", expires))

	rt, err := repo.Find(context.Background(), "tok123")
	require.NoError(t, err)
	assert.Equal(t, "u1", rt.UserID)
	assert.Equal(t, "tok123", rt.Token)
	assert.WithinDuration(t, expires, rt.Expires, time.Second)
}

func TestFind_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT`).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.Find(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDelete_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`(?s)DELETE\s+FROM\s+refresh_tokens`).
		WithArgs("tok123").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "tok123"))
}

func TestMemoryRepository_Lifecycle(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, "u1", "tok", time.Hour))

	rt, err := repo.Find(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "u1", rt.UserID)
	assert.True(t, rt.Expires.After(time.Now()))

	require.NoError(t, repo.Delete(ctx, "tok"))
	_, err = repo.Find(ctx, "tok")
	assert.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, "tok"))
}
