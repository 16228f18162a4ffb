// Package vault contains the synchronization core shared by client and
// server: the versioned entry model, the client-side shadow state with its
// delta calculation, the last-writer-wins merge, and the server-side
// reconciliation of change sets against the authoritative vault. Everything
// in this package is pure in-memory logic; persistence and transport live in
// the client and server layers.
package vault

import (
	"bytes"
	"encoding/json"
	"time"
)

// HistoryLimit caps both the payload history and the conflict history of an
// entry. When the cap is reached the oldest snapshot is evicted first.
const HistoryLimit = 5

// ResolutionServerWins labels conflict snapshots written when a server copy
// overwrites a local one during a merge.
const ResolutionServerWins = "server-wins"

// Entry is a single secret record. The payload is an opaque blob: the sync
// core stores, versions, and moves it but never interprets it. Clients keep
// it encrypted end to end.
type Entry struct {
	// ID is client-assigned and unique within a vault.
	ID int64 `json:"id"`

	// Version is positive and never decreases for a given ID. It is
	// assigned by whichever side last mutated the entry.
	Version int64 `json:"version"`

	// UpdatedAt is the wall-clock time of the last mutation. It is used
	// only to break merge conflicts, never as a versioning authority.
	UpdatedAt time.Time `json:"updatedAt"`

	// IsDeleted marks a tombstone: the record stays in storage with its
	// payload so merge and replay stay symmetric with updates.
	IsDeleted bool       `json:"isDeleted"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`

	// Data is the opaque payload.
	Data json.RawMessage `json:"data"`

	// History holds prior payloads replaced by regular edits.
	History []Snapshot `json:"history,omitempty"`

	// ConflictHistory holds payloads that lost a merge.
	ConflictHistory []ConflictSnapshot `json:"conflictHistory,omitempty"`
}

// Snapshot is one archived payload in an entry's edit history.
type Snapshot struct {
	Data    json.RawMessage `json:"data"`
	SavedAt time.Time       `json:"savedAt"`
}

// ConflictSnapshot archives a payload that lost a merge, together with when
// and how the conflict was resolved.
type ConflictSnapshot struct {
	Data       json.RawMessage `json:"data"`
	ResolvedAt time.Time       `json:"resolvedAt"`
	Resolution string          `json:"resolution"`
}

// Clone returns a deep copy of the entry. Payload bytes and both history
// slices are copied so the clone can be mutated or shipped independently.
func (e *Entry) Clone() *Entry {
	c := *e

	c.Data = append(json.RawMessage(nil), e.Data...)

	if e.DeletedAt != nil {
		at := *e.DeletedAt
		c.DeletedAt = &at
	}

	if e.History != nil {
		c.History = make([]Snapshot, len(e.History))
		for i, s := range e.History {
			s.Data = append(json.RawMessage(nil), s.Data...)
			c.History[i] = s
		}
	}

	if e.ConflictHistory != nil {
		c.ConflictHistory = make([]ConflictSnapshot, len(e.ConflictHistory))
		for i, s := range e.ConflictHistory {
			s.Data = append(json.RawMessage(nil), s.Data...)
			c.ConflictHistory[i] = s
		}
	}

	return &c
}

// SameData reports whether the entry payload is byte-identical to data.
// Byte comparison is deliberate: payloads are opaque, so no semantic
// normalization is possible.
func (e *Entry) SameData(data json.RawMessage) bool {
	return bytes.Equal(e.Data, data)
}

// pushHistory archives the current payload before an edit replaces it.
func (e *Entry) pushHistory(now time.Time) {
	snap := Snapshot{
		Data:    append(json.RawMessage(nil), e.Data...),
		SavedAt: now,
	}
	e.History = boundedAppend(e.History, snap, HistoryLimit)
}

// PushConflictSnapshot archives a payload that lost a merge onto this
// (winning) entry's conflict history.
func (e *Entry) PushConflictSnapshot(losing json.RawMessage, now time.Time) {
	snap := ConflictSnapshot{
		Data:       append(json.RawMessage(nil), losing...),
		ResolvedAt: now,
		Resolution: ResolutionServerWins,
	}
	e.ConflictHistory = boundedAppend(e.ConflictHistory, snap, HistoryLimit)
}

func boundedAppend[T any](s []T, v T, limit int) []T {
	s = append(s, v)
	if len(s) > limit {
		s = s[len(s)-limit:]
	}
	return s
}
