// Package outbox holds pending change batches the client has not yet
// delivered to the server. Batches are drained strictly in FIFO order and
// the queue survives restarts through the client storage layer.
package outbox

import (
	"time"

	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/vault"
)

// Entry is one queued batch. EventID mirrors the wrapped delta's id and is
// carried separately so log lines can reference a batch without unpacking it.
type Entry struct {
	EventID   string          `json:"eventId"`
	Timestamp time.Time       `json:"timestamp"`
	Delta     vault.ChangeSet `json:"delta"`
}

// Queue is an ordered list of pending batches. It is not safe for concurrent
// use; the sync controller serializes access under its own lock.
type Queue struct {
	entries []Entry
}

func NewQueue() *Queue {
	return &Queue{}
}

// Push appends a batch. When the tail batch was computed against the same
// base version it is replaced instead: a delta is derived from the full
// local state, so the newer one subsumes everything the older one carried.
func (q *Queue) Push(delta vault.ChangeSet, at time.Time) {
	e := Entry{EventID: delta.EventID, Timestamp: at, Delta: delta}
	if n := len(q.entries); n > 0 && q.entries[n-1].Delta.BaseVersion == delta.BaseVersion {
		q.entries[n-1] = e
		return
	}
	q.entries = append(q.entries, e)
}

// Head returns the oldest batch without removing it.
func (q *Queue) Head() (Entry, bool) {
	if len(q.entries) == 0 {
		return Entry{}, false
	}
	return q.entries[0], true
}

// Pop removes the oldest batch after it has been acknowledged.
func (q *Queue) Pop() {
	if len(q.entries) > 0 {
		q.entries = q.entries[1:]
	}
}

func (q *Queue) Clear() {
	q.entries = nil
}

func (q *Queue) Len() int {
	return len(q.entries)
}

// Entries returns a copy of the queue in order, oldest first.
func (q *Queue) Entries() []Entry {
	out := make([]Entry, len(q.entries))
	copy(out, q.entries)
	return out
}

// Restore replaces the queue contents, used when loading persisted state.
func (q *Queue) Restore(entries []Entry) {
	q.entries = make([]Entry, len(entries))
	copy(q.entries, entries)
}
