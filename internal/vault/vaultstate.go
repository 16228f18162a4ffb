package vault

import (
	"sort"
	"time"

	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/common"
)

// VaultState is the authoritative per-user aggregate held by the server: the
// full entry set plus the single optimistic-lock counter for the whole
// vault. VaultVersion moves by exactly 1 per applied change set, never by
// the number of entries touched, which is what makes the base-version check
// a strict single-writer gate.
type VaultState struct {
	UserID       string
	VaultVersion int64
	Entries      map[int64]*Entry
	LastSyncedAt time.Time
}

// NewVaultState returns the fresh, empty vault created lazily on a user's
// first read: version 0, no entries.
func NewVaultState(userID string) *VaultState {
	return &VaultState{
		UserID:  userID,
		Entries: make(map[int64]*Entry),
	}
}

// RestoreVaultState rebuilds a VaultState from its persisted fields. Vault
// stores load rows or objects into this form regardless of backend.
func RestoreVaultState(userID string, version int64, entries []Entry, syncedAt time.Time) *VaultState {
	v := NewVaultState(userID)
	v.VaultVersion = version
	v.LastSyncedAt = syncedAt
	for i := range entries {
		e := entries[i]
		v.Entries[e.ID] = &e
	}
	return v
}

// EntryList returns deep copies of all entries sorted by ID, tombstones
// included.
func (v *VaultState) EntryList() []Entry {
	out := make([]Entry, 0, len(v.Entries))
	for _, e := range v.Entries {
		out = append(out, *e.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Apply reconciles one change set against the vault.
//
// The base version is checked first: on mismatch Apply returns
// common.ErrVersionConflict and the state is guaranteed untouched, so the
// caller can echo the current version and entries back to the client.
//
// On match the batch is applied in order: physical removals, then additions
// (an already-present ID is silently skipped, making re-adds idempotent),
// then updates. An update replaces the stored entry in place but keeps the
// prior record's conflict history unless the incoming entry carries its
// own; an update for an ID the server never saw is appended as a new entry,
// which lets a resumed session recover gracefully.
//
// Finally VaultVersion is incremented by exactly 1 and LastSyncedAt is
// stamped. Callers must serialize Apply per user.
func (v *VaultState) Apply(delta ChangeSet, now time.Time) error {
	if delta.BaseVersion != v.VaultVersion {
		return common.ErrVersionConflict
	}

	for _, id := range delta.Deleted {
		delete(v.Entries, id)
	}

	for i := range delta.Added {
		add := delta.Added[i]
		if _, ok := v.Entries[add.ID]; ok {
			continue
		}
		v.Entries[add.ID] = add.Clone()
	}

	for i := range delta.Updated {
		upd := delta.Updated[i].Clone()
		if prev, ok := v.Entries[upd.ID]; ok && len(upd.ConflictHistory) == 0 {
			upd.ConflictHistory = prev.ConflictHistory
		}
		v.Entries[upd.ID] = upd
	}

	v.VaultVersion++
	v.LastSyncedAt = now
	return nil
}

// Snapshot renders the vault as the GET /vault response body.
func (v *VaultState) Snapshot() VaultSnapshot {
	return VaultSnapshot{
		UserID:           v.UserID,
		VaultVersion:     v.VaultVersion,
		EncryptedEntries: v.EntryList(),
		LastSyncedAt:     v.LastSyncedAt,
	}
}
