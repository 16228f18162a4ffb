package vaults

import (
	"context"
	"sync"

	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/common"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/vault"
)

// MemoryRepository keeps vault aggregates in a map. States are deep-copied
// on the way in and out so callers can mutate freely.
type MemoryRepository struct {
	mu     sync.RWMutex
	vaults map[string]*vault.VaultState
}

// NewMemoryRepository constructs an empty in-memory vault store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{vaults: make(map[string]*vault.VaultState)}
}

func (r *MemoryRepository) Get(_ context.Context, userID string) (*vault.VaultState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st, ok := r.vaults[userID]
	if !ok {
		return nil, common.ErrVaultNotFound
	}
	return copyState(st), nil
}

func (r *MemoryRepository) Save(_ context.Context, state *vault.VaultState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vaults[state.UserID] = copyState(state)
	return nil
}

func copyState(st *vault.VaultState) *vault.VaultState {
	return vault.RestoreVaultState(st.UserID, st.VaultVersion, st.EntryList(), st.LastSyncedAt)
}
