package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/common"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/logging"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/server/repositories/vaults"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/vault"
)

// VaultService owns the server side of synchronization: loading a user's
// vault, applying change sets under a per-user lock, and persisting the
// result. Vault persistence goes through a single repository call, so it
// needs no cross-repository transaction.
type VaultService struct {
	repo   vaults.Repository
	logger logging.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewVaultService constructs a VaultService on top of the given vault store.
func NewVaultService(repo vaults.Repository, logger logging.Logger) *VaultService {
	return &VaultService{
		repo:   repo,
		logger: logger.With("module", "vault_service"),
		locks:  make(map[string]*sync.Mutex),
	}
}

// userLock returns the mutex serializing all operations on one user's vault.
func (s *VaultService) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	return l
}

// Get returns the user's vault, creating and persisting an empty version-0
// vault on first read.
func (s *VaultService) Get(ctx context.Context, userID string) (*vault.VaultState, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	state, err := s.repo.Get(ctx, userID)
	if err == nil {
		return state, nil
	}
	if !errors.Is(err, common.ErrVaultNotFound) {
		return nil, fmt.Errorf("error loading vault: %w", err)
	}

	state = vault.NewVaultState(userID)
	if err := s.repo.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("error saving new vault: %w", err)
	}
	vaultsCreatedTotal.Inc()
	s.logger.Info(ctx, "empty vault created", "user_id", userID)
	return state, nil
}

// Sync applies one client change set to the user's vault. A vault that was
// never read yields common.ErrVaultNotFound; syncing never creates one. A
// stale base version yields common.ErrVersionConflict together with the
// untouched current state so the caller can send it back to the client.
func (s *VaultService) Sync(ctx context.Context, userID string, delta vault.ChangeSet) (*vault.VaultState, error) {
	start := time.Now()
	defer func() { syncDuration.Observe(time.Since(start).Seconds()) }()

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	state, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrVaultNotFound) {
			return nil, common.ErrVaultNotFound
		}
		return nil, fmt.Errorf("error loading vault: %w", err)
	}

	if err := state.Apply(delta, time.Now()); err != nil {
		syncsConflictedTotal.Inc()
		s.logger.Warn(ctx, "change set rejected",
			"user_id", userID, "event_id", delta.EventID,
			"base_version", delta.BaseVersion, "vault_version", state.VaultVersion)
		return state, err
	}

	if err := s.repo.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("error saving vault: %w", err)
	}

	syncsAppliedTotal.Inc()
	s.logger.Info(ctx, "change set applied",
		"user_id", userID, "event_id", delta.EventID,
		"added", len(delta.Added), "updated", len(delta.Updated), "deleted", len(delta.Deleted),
		"vault_version", state.VaultVersion)
	return state, nil
}
