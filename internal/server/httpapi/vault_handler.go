package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/common"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/logging"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/vault"
)

// vaultService is the slice of the vault service the vault endpoints call.
type vaultService interface {
	Get(ctx context.Context, userID string) (*vault.VaultState, error)
	Sync(ctx context.Context, userID string, delta vault.ChangeSet) (*vault.VaultState, error)
}

// VaultHandler serves the authenticated vault endpoints.
type VaultHandler struct {
	vaults vaultService
	logger logging.Logger
}

func NewVaultHandler(vaults vaultService, logger logging.Logger) *VaultHandler {
	return &VaultHandler{vaults: vaults, logger: logger.With("module", "vault_handler")}
}

// GetVault handles GET /vault: the full snapshot of the caller's vault. A
// first read creates the empty version-0 vault.
func (h *VaultHandler) GetVault(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		writeInternalError(w)
		return
	}

	state, err := h.vaults.Get(r.Context(), userID)
	if err != nil {
		h.logger.Error(r.Context(), "vault read failed", "user_id", userID, "error", err)
		writeInternalError(w)
		return
	}

	writeJSON(w, http.StatusOK, state.Snapshot())
}

// SyncVault handles POST /vault/sync: one change set against a base version.
// A stale base version answers 409 with the authoritative state in the body.
func (h *VaultHandler) SyncVault(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		writeInternalError(w)
		return
	}

	var delta vault.ChangeSet
	if err := json.NewDecoder(r.Body).Decode(&delta); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	state, err := h.vaults.Sync(r.Context(), userID, delta)
	switch {
	case errors.Is(err, common.ErrVaultNotFound):
		writeError(w, http.StatusNotFound, "vault not found")
		return

	case errors.Is(err, common.ErrVersionConflict):
		writeJSON(w, http.StatusConflict, vault.SyncConflict{
			Error:             vault.SyncConflictMessage,
			ServerBaseVersion: state.VaultVersion,
			VaultVersion:      state.VaultVersion,
			Entries:           state.EntryList(),
		})
		return

	case err != nil:
		h.logger.Error(r.Context(), "vault sync failed", "user_id", userID, "error", err)
		writeInternalError(w)
		return
	}

	writeJSON(w, http.StatusOK, vault.SyncSuccess{
		Success:      true,
		VaultVersion: state.VaultVersion,
		Entries:      state.EntryList(),
		LastSyncedAt: state.LastSyncedAt,
	})
}
