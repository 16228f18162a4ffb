package vault

import (
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/common"
)

// ErrDuplicateEntry is returned when adding an entry under an ID that is
// already present (including tombstones).
var ErrDuplicateEntry = errors.New("entry id already exists")

// State is the client's local shadow of the vault plus the two version
// watermarks that diverge while offline: ServerVersion is the last vault
// version the server confirmed, LocalVersion grows with every local
// mutation. Purged collects IDs whose physical removal was explicitly
// requested and not yet acknowledged.
//
// State is not safe for concurrent use; the synchronization controller
// serializes access.
type State struct {
	Entries       map[int64]*Entry
	LocalVersion  int64
	ServerVersion int64
	Purged        map[int64]struct{}
	LastSyncedAt  time.Time
}

// NewState returns an empty shadow state with both watermarks at zero.
func NewState() *State {
	return &State{
		Entries: make(map[int64]*Entry),
		Purged:  make(map[int64]struct{}),
	}
}

// nextVersion assigns the version for the next mutation. Taking the max of
// both watermarks keeps per-entry versions monotonic even right after a sync
// moved ServerVersion past LocalVersion.
func (s *State) nextVersion() int64 {
	v := s.LocalVersion
	if s.ServerVersion > v {
		v = s.ServerVersion
	}
	return v + 1
}

// NextID returns a fresh entry ID: one past the highest ID ever seen
// locally, tombstones included.
func (s *State) NextID() int64 {
	var max int64
	for id := range s.Entries {
		if id > max {
			max = id
		}
	}
	return max + 1
}

// Add inserts a new entry with the given payload. The ID must be unused.
func (s *State) Add(id int64, data json.RawMessage, now time.Time) (*Entry, error) {
	if _, ok := s.Entries[id]; ok {
		return nil, ErrDuplicateEntry
	}

	v := s.nextVersion()
	e := &Entry{
		ID:        id,
		Version:   v,
		UpdatedAt: now,
		Data:      append(json.RawMessage(nil), data...),
	}
	s.Entries[id] = e
	s.LocalVersion = v
	return e, nil
}

// Update replaces the payload of a live entry. The prior payload is pushed
// onto the entry's bounded history when the new payload actually differs.
func (s *State) Update(id int64, data json.RawMessage, now time.Time) (*Entry, error) {
	e, ok := s.Entries[id]
	if !ok || e.IsDeleted {
		return nil, common.ErrNotFound
	}

	if !e.SameData(data) {
		e.pushHistory(now)
		e.Data = append(json.RawMessage(nil), data...)
	}

	v := s.nextVersion()
	e.Version = v
	e.UpdatedAt = now
	s.LocalVersion = v
	return e, nil
}

// Delete tombstones a live entry: the record and payload stay in place so
// the deletion replicates like any other update.
func (s *State) Delete(id int64, now time.Time) (*Entry, error) {
	e, ok := s.Entries[id]
	if !ok || e.IsDeleted {
		return nil, common.ErrNotFound
	}

	v := s.nextVersion()
	at := now
	e.Version = v
	e.UpdatedAt = now
	e.IsDeleted = true
	e.DeletedAt = &at
	s.LocalVersion = v
	return e, nil
}

// Purge removes an entry outright and records the ID so the next change set
// asks the server for physical removal too. Unlike Delete this is
// irreversible and leaves no tombstone.
func (s *State) Purge(id int64) error {
	if _, ok := s.Entries[id]; !ok {
		return common.ErrNotFound
	}
	delete(s.Entries, id)
	s.Purged[id] = struct{}{}
	s.LocalVersion = s.nextVersion()
	return nil
}

// ClearPurged forgets acknowledged physical-removal requests.
func (s *State) ClearPurged() {
	s.Purged = make(map[int64]struct{})
}

// PurgedIDs returns the pending physical-removal requests in ascending
// order.
func (s *State) PurgedIDs() []int64 {
	ids := make([]int64, 0, len(s.Purged))
	for id := range s.Purged {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// EntryList returns deep copies of all entries, tombstones included, sorted
// by ID.
func (s *State) EntryList() []Entry {
	return sortedCopies(s.Entries, func(*Entry) bool { return true })
}

// VisibleEntries returns deep copies of the live (non-tombstoned) entries
// sorted by ID.
func (s *State) VisibleEntries() []Entry {
	return sortedCopies(s.Entries, func(e *Entry) bool { return !e.IsDeleted })
}

// Get returns the entry with the given ID, tombstoned or not.
func (s *State) Get(id int64) (*Entry, bool) {
	e, ok := s.Entries[id]
	return e, ok
}

// ReplaceFromServer swaps the local entry set for the authoritative list the
// server returned after an applied change set and collapses both watermarks
// onto the confirmed vault version.
func (s *State) ReplaceFromServer(entries []Entry, vaultVersion int64, syncedAt time.Time) {
	m := make(map[int64]*Entry, len(entries))
	for i := range entries {
		m[entries[i].ID] = entries[i].Clone()
	}
	s.Entries = m
	s.LocalVersion = vaultVersion
	s.ServerVersion = vaultVersion
	s.LastSyncedAt = syncedAt
	s.ClearPurged()
}

func sortedCopies(m map[int64]*Entry, keep func(*Entry) bool) []Entry {
	out := make([]Entry, 0, len(m))
	for _, e := range m {
		if keep(e) {
			out = append(out, *e.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
