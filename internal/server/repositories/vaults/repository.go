// Package vaults persists per-user vault aggregates. The vault is stored and
// loaded whole: one version counter plus the full entry list, matching the
// single-writer reconciliation model. Three backends exist: PostgreSQL (the
// default), S3-compatible object storage, and an in-memory map for
// development and tests.
package vaults

import (
	"context"

	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/vault"
)

// Repository is the storage contract for vault aggregates. Get returns
// common.ErrVaultNotFound when the user has no vault yet; Save upserts the
// whole aggregate.
type Repository interface {
	Get(ctx context.Context, userID string) (*vault.VaultState, error)
	Save(ctx context.Context, state *vault.VaultState) error
}
