package vault

import "time"

// SyncConflictMessage is the error string the server puts into the body of a
// version-conflict response.
const SyncConflictMessage = "Sync Conflict"

// ChangeSet is the transactional unit of synchronization: one batch of entry
// changes computed against a base vault version. It travels verbatim as the
// body of POST /vault/sync.
//
// EventID identifies the batch in logs on both sides; the server does not
// use it for deduplication. BaseVersion is the vault version the client
// believes is current and is the server's only admission check.
type ChangeSet struct {
	EventID     string  `json:"eventId"`
	BaseVersion int64   `json:"baseVersion"`
	Added       []Entry `json:"added"`
	Updated     []Entry `json:"updated"`
	Deleted     []int64 `json:"deleted"`
}

// IsEmpty reports whether the change set carries no changes at all.
func (c ChangeSet) IsEmpty() bool {
	return len(c.Added) == 0 && len(c.Updated) == 0 && len(c.Deleted) == 0
}

// VaultSnapshot is the response of GET /vault.
//
// EncryptedEntries carries every entry of the vault, tombstones included;
// payloads are whatever opaque blobs the client stored.
type VaultSnapshot struct {
	UserID           string    `json:"userId"`
	VaultVersion     int64     `json:"vaultVersion"`
	EncryptedEntries []Entry   `json:"encryptedEntries"`
	LastSyncedAt     time.Time `json:"lastSyncedAt"`
}

// SyncSuccess is the 200 response of POST /vault/sync: the new vault version
// and the full authoritative entry list.
type SyncSuccess struct {
	Success      bool      `json:"success"`
	VaultVersion int64     `json:"vaultVersion"`
	Entries      []Entry   `json:"entries"`
	LastSyncedAt time.Time `json:"lastSyncedAt"`
}

// SyncConflict is the 409 response of POST /vault/sync, returned when the
// submitted base version is stale. It carries the server's authoritative
// state so the client can surface it without another round trip.
type SyncConflict struct {
	Error             string  `json:"error"`
	ServerBaseVersion int64   `json:"server_base_version"`
	VaultVersion      int64   `json:"vaultVersion"`
	Entries           []Entry `json:"entries"`
}
