package users

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/common"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

const insertPattern = `(?s)^\s*INSERT\s+INTO\s+users\s*\(username,\s*salt,\s*master_key_verifier\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*RETURNING\s+id\s*$`

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(insertPattern).
		WithArgs("alice", []byte("salt"), []byte("verifier")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("9f4e"))

	u, err := repo.Create(context.Background(), &models.User{
		UserName: "alice", Salt: []byte("salt"), Verifier: []byte("verifier"),
	})
	require.NoError(t, err)
	assert.Equal(t, "9f4e", u.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DuplicateLogin(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(insertPattern).
		WithArgs("alice", []byte("s"), []byte("v")).
		WillReturnError(&pgconn.PgError{Code: pgUniqueViolation})

	_, err := repo.Create(context.Background(), &models.User{
		UserName: "alice", Salt: []byte("s"), Verifier: []byte("v"),
	})
	assert.ErrorIs(t, err, common.ErrLoginAlreadyExists)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(insertPattern).
		WithArgs("alice", []byte("s"), []byte("v")).
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{
		UserName: "alice", Salt: []byte("s"), Verifier: []byte("v"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error")
}

func TestGetUserByLogin_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	rows := sqlmock.NewRows([]string{"id", "username", "salt", "master_key_verifier", "created_at"}).
		AddRow("u1", "alice", []byte("salt"), []byte("verifier"), time.Now())
	mock.ExpectQuery(`(?s)SELECT\s+id,\s*username,\s*salt,\s*master_key_verifier,\s*created_at\s+FROM\s+users`).
		WithArgs("alice").
		WillReturnRows(rows)

	u, err := repo.GetUserByLogin(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, []byte("verifier"), u.Verifier)
}

func TestGetUserByLogin_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT`).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetUserByLogin(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMemoryRepository_CreateAndGet(t *testing.T) {
	repo := NewMemoryRepository()

	created, err := repo.Create(context.Background(), &models.User{
		UserName: "bob", Salt: []byte("s"), Verifier: []byte("v"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	got, err := repo.GetUserByLogin(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = repo.Create(context.Background(), &models.User{UserName: "bob"})
	assert.ErrorIs(t, err, common.ErrLoginAlreadyExists)

	_, err = repo.GetUserByLogin(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
