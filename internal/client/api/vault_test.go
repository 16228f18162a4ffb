package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/common"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/vault"
)

func TestGetVault(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/vault", r.URL.Path)
		writeJSON(t, w, http.StatusOK, vault.VaultSnapshot{
			UserID:       "u-1",
			VaultVersion: 3,
			EncryptedEntries: []vault.Entry{
				{ID: 1, Version: 3, UpdatedAt: now, Data: json.RawMessage(`"x"`)},
			},
			LastSyncedAt: now,
		})
	}))

	snap, err := c.GetVault(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u-1", snap.UserID)
	assert.Equal(t, int64(3), snap.VaultVersion)
	require.Len(t, snap.EncryptedEntries, 1)
}

func TestSyncVault_Success(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	var got vault.ChangeSet
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/vault/sync", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(t, w, http.StatusOK, vault.SyncSuccess{
			Success:      true,
			VaultVersion: 4,
			Entries: []vault.Entry{
				{ID: 1, Version: 4, UpdatedAt: now, Data: json.RawMessage(`"x"`)},
			},
			LastSyncedAt: now,
		})
	}))

	delta := vault.ChangeSet{
		EventID:     "evt-1",
		BaseVersion: 3,
		Added:       []vault.Entry{},
		Updated: []vault.Entry{
			{ID: 1, Version: 4, UpdatedAt: now, Data: json.RawMessage(`"x"`)},
		},
	}
	resp, err := c.SyncVault(context.Background(), delta)
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, int64(4), resp.VaultVersion)
	assert.Equal(t, "evt-1", got.EventID)
	assert.Equal(t, int64(3), got.BaseVersion)
}

func TestSyncVault_Conflict(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusConflict, vault.SyncConflict{
			Error:             vault.SyncConflictMessage,
			ServerBaseVersion: 7,
			VaultVersion:      7,
			Entries: []vault.Entry{
				{ID: 1, Version: 7, UpdatedAt: now, Data: json.RawMessage(`"server"`)},
			},
		})
	}))

	_, err := c.SyncVault(context.Background(), vault.ChangeSet{EventID: "evt-1", BaseVersion: 3})
	require.Error(t, err)

	// the sentinel matches and the typed error carries the server state
	assert.ErrorIs(t, err, common.ErrVersionConflict)
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, int64(7), conflict.Response.ServerBaseVersion)
	require.Len(t, conflict.Response.Entries, 1)
}

func TestSyncVault_VaultMissing(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusNotFound, errorResponse{Error: "vault not found"})
	}))

	_, err := c.SyncVault(context.Background(), vault.ChangeSet{EventID: "evt-1"})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSyncVault_MalformedRejected(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusBadRequest, errorResponse{Error: "invalid request"})
	}))

	_, err := c.SyncVault(context.Background(), vault.ChangeSet{EventID: "evt-1"})
	assert.ErrorIs(t, err, common.ErrMalformedRequest)
}
