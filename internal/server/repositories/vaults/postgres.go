package vaults

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/common"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/dbx"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/vault"
)

// PostgresRepository stores each vault as one row: the version and sync
// timestamp in columns, the entry list as a jsonb document.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get loads the vault aggregate for userID, or common.ErrVaultNotFound.
func (r *PostgresRepository) Get(ctx context.Context, userID string) (*vault.VaultState, error) {
	query := `
		SELECT vault_version, entries, last_synced_at
		FROM vaults
		WHERE user_id = $1
	`

	var (
		version  int64
		raw      []byte
		syncedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&version, &raw, &syncedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrVaultNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	var entries []vault.Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode vault entries: %w", err)
	}

	return vault.RestoreVaultState(userID, version, entries, syncedAt.Time), nil
}

// Save upserts the whole aggregate for state.UserID.
func (r *PostgresRepository) Save(ctx context.Context, state *vault.VaultState) error {
	raw, err := json.Marshal(state.EntryList())
	if err != nil {
		return fmt.Errorf("failed to encode vault entries: %w", err)
	}

	query := `
		INSERT INTO vaults (user_id, vault_version, entries, last_synced_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET vault_version = EXCLUDED.vault_version,
		    entries = EXCLUDED.entries,
		    last_synced_at = EXCLUDED.last_synced_at,
		    updated_at = now()
	`

	syncedAt := sql.NullTime{Time: state.LastSyncedAt, Valid: !state.LastSyncedAt.IsZero()}
	if _, err := r.db.ExecContext(ctx, query, state.UserID, state.VaultVersion, raw, syncedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
