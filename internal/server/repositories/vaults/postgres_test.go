package vaults

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/common"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/vault"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func testState(t *testing.T, userID string) *vault.VaultState {
	t.Helper()
	entries := []vault.Entry{
		{ID: 1, Version: 2, UpdatedAt: time.Now().UTC(), Data: json.RawMessage(`{"blob":"a"}`)},
		{ID: 2, Version: 1, UpdatedAt: time.Now().UTC(), IsDeleted: true, Data: json.RawMessage(`{"blob":"b"}`)},
	}
	return vault.RestoreVaultState(userID, 7, entries, time.Now().UTC())
}

func TestPostgresGet_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	entries, err := json.Marshal(testState(t, "u1").EntryList())
	require.NoError(t, err)

	syncedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"vault_version", "entries", "last_synced_at"}).
		AddRow(int64(7), entries, syncedAt)
	mock.ExpectQuery(`(?s)SELECT\s+vault_version,\s*entries,\s*last_synced_at\s+FROM\s+vaults`).
		WithArgs("u1").
		WillReturnRows(rows)

	st, err := repo.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), st.VaultVersion)
	assert.Equal(t, syncedAt, st.LastSyncedAt)
	assert.Len(t, st.Entries, 2)
	assert.True(t, st.Entries[2].IsDeleted)
}

func TestPostgresGet_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT`).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrVaultNotFound)
}

func TestPostgresGet_NullSyncedAt(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	rows := sqlmock.NewRows([]string{"vault_version", "entries", "last_synced_at"}).
		AddRow(int64(0), []byte(`[]`), nil)
	mock.ExpectQuery(`SELECT`).WithArgs("u1").WillReturnRows(rows)

	st, err := repo.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, st.LastSyncedAt.IsZero())
	assert.Empty(t, st.Entries)
}

func TestPostgresSave_Upsert(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	st := testState(t, "u1")
	mock.ExpectExec(`(?s)INSERT\s+INTO\s+vaults\b.*ON\s+CONFLICT\s*\(user_id\)\s*DO\s+UPDATE`).
		WithArgs("u1", st.VaultVersion, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Save(context.Background(), st))
	require.NoError(t, mock.ExpectationsWereMet())
}
