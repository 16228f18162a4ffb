package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/common"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/vault"
)

// ConflictError carries the server's rejection of a stale batch. The body
// includes the authoritative vault so the caller can resolve without an
// extra round trip.
type ConflictError struct {
	Response vault.SyncConflict
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("sync rejected: server vault is at version %d", e.Response.ServerBaseVersion)
}

func (e *ConflictError) Unwrap() error {
	return common.ErrVersionConflict
}

// GetVault fetches the full server-side vault. The server creates an empty
// version-0 vault on first access, so an authenticated call succeeds even
// before the first sync.
func (c *HTTPClient) GetVault(ctx context.Context) (*vault.VaultSnapshot, error) {
	var snap vault.VaultSnapshot
	if err := c.doJSON(ctx, http.MethodGet, "/vault", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// SyncVault submits one change batch. A stale base version comes back as a
// *ConflictError holding the current server state.
func (c *HTTPClient) SyncVault(ctx context.Context, delta vault.ChangeSet) (*vault.SyncSuccess, error) {
	status, raw, err := c.request(ctx, http.MethodPost, "/vault/sync", delta)
	if err != nil {
		return nil, err
	}

	switch {
	case status == http.StatusOK:
		var resp vault.SyncSuccess
		if err := json.Unmarshal(raw, &resp); err != nil {
			return nil, fmt.Errorf("failed to decode sync response: %w", err)
		}
		return &resp, nil

	case status == http.StatusConflict:
		var conflict vault.SyncConflict
		if err := json.Unmarshal(raw, &conflict); err != nil {
			return nil, fmt.Errorf("failed to decode conflict response: %w", err)
		}
		return nil, &ConflictError{Response: conflict}

	default:
		return nil, statusError(status, raw)
	}
}
