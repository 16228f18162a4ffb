package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/common"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/logging"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/server/repositories/vaults"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/vault"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newVaultService(t *testing.T) (*VaultService, *vaults.MemoryRepository) {
	t.Helper()
	repo := vaults.NewMemoryRepository()
	return NewVaultService(repo, testLogger()), repo
}

func testEntry(id, version int64, data string) vault.Entry {
	return vault.Entry{
		ID:        id,
		Version:   version,
		UpdatedAt: time.Now(),
		Data:      json.RawMessage(data),
	}
}

func TestVaultGet_LazyCreate(t *testing.T) {
	s, repo := newVaultService(t)
	ctx := context.Background()

	state, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", state.UserID)
	assert.Equal(t, int64(0), state.VaultVersion)
	assert.Empty(t, state.EntryList())

	// the created vault is persisted, not just returned
	saved, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), saved.VaultVersion)
}

func TestVaultGet_Existing(t *testing.T) {
	s, repo := newVaultService(t)
	ctx := context.Background()

	seeded := vault.RestoreVaultState("u1", 3, []vault.Entry{testEntry(1, 2, `{"a":1}`)}, time.Now())
	require.NoError(t, repo.Save(ctx, seeded))

	state, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), state.VaultVersion)
	require.Len(t, state.EntryList(), 1)
}

func TestVaultSync_MissingVault(t *testing.T) {
	s, _ := newVaultService(t)

	_, err := s.Sync(context.Background(), "ghost", vault.ChangeSet{BaseVersion: 0})
	require.ErrorIs(t, err, common.ErrVaultNotFound)
}

func TestVaultSync_Applied(t *testing.T) {
	s, repo := newVaultService(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "u1")
	require.NoError(t, err)

	delta := vault.ChangeSet{
		EventID:     "ev-1",
		BaseVersion: 0,
		Added:       []vault.Entry{testEntry(1, 1, `{"blob":"x"}`)},
	}

	state, err := s.Sync(ctx, "u1", delta)
	require.NoError(t, err)
	assert.Equal(t, int64(1), state.VaultVersion)
	require.Len(t, state.EntryList(), 1)
	assert.False(t, state.LastSyncedAt.IsZero())

	saved, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.VaultVersion)
	require.Len(t, saved.EntryList(), 1)
}

func TestVaultSync_StaleBaseVersion(t *testing.T) {
	s, repo := newVaultService(t)
	ctx := context.Background()

	seeded := vault.RestoreVaultState("u1", 5, []vault.Entry{testEntry(1, 4, `{"server":"copy"}`)}, time.Now())
	require.NoError(t, repo.Save(ctx, seeded))

	state, err := s.Sync(ctx, "u1", vault.ChangeSet{
		EventID:     "ev-stale",
		BaseVersion: 3,
		Added:       []vault.Entry{testEntry(2, 1, `{"client":"copy"}`)},
	})
	require.ErrorIs(t, err, common.ErrVersionConflict)

	// the rejected sync must leave the vault untouched and hand back the
	// current state for the conflict response
	require.NotNil(t, state)
	assert.Equal(t, int64(5), state.VaultVersion)
	require.Len(t, state.EntryList(), 1)
	assert.Equal(t, int64(1), state.EntryList()[0].ID)

	saved, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), saved.VaultVersion)
	require.Len(t, saved.EntryList(), 1)
}

func TestVaultSync_ConcurrentSameBase(t *testing.T) {
	s, _ := newVaultService(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "u1")
	require.NoError(t, err)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Sync(ctx, "u1", vault.ChangeSet{
				EventID:     "ev-race",
				BaseVersion: 0,
				Added:       []vault.Entry{testEntry(int64(i+1), 1, `{"n":1}`)},
			})
		}(i)
	}
	wg.Wait()

	// the per-user lock serializes the pair: exactly one applies, the
	// other observes the bumped version and conflicts
	var applied, conflicted int
	for _, err := range errs {
		switch {
		case err == nil:
			applied++
		case errors.Is(err, common.ErrVersionConflict):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, applied)
	assert.Equal(t, 1, conflicted)

	state, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), state.VaultVersion)
	require.Len(t, state.EntryList(), 1)
}

type faultyVaultRepo struct {
	getOut  *vault.VaultState
	getErr  error
	saveErr error
}

func (f *faultyVaultRepo) Get(ctx context.Context, userID string) (*vault.VaultState, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

func (f *faultyVaultRepo) Save(ctx context.Context, state *vault.VaultState) error {
	return f.saveErr
}

func TestVaultGet_LoadError(t *testing.T) {
	s := NewVaultService(&faultyVaultRepo{getErr: errBoom{}}, testLogger())

	_, err := s.Get(context.Background(), "u1")
	require.ErrorContains(t, err, "error loading vault")
}

func TestVaultGet_SaveOnCreateError(t *testing.T) {
	s := NewVaultService(&faultyVaultRepo{getErr: common.ErrVaultNotFound, saveErr: errBoom{}}, testLogger())

	_, err := s.Get(context.Background(), "u1")
	require.ErrorContains(t, err, "error saving new vault")
}

func TestVaultSync_SaveError(t *testing.T) {
	repo := &faultyVaultRepo{
		getOut:  vault.NewVaultState("u1"),
		saveErr: errBoom{},
	}
	s := NewVaultService(repo, testLogger())

	_, err := s.Sync(context.Background(), "u1", vault.ChangeSet{
		BaseVersion: 0,
		Added:       []vault.Entry{testEntry(1, 1, `{"x":1}`)},
	})
	require.ErrorContains(t, err, "error saving vault")
}
