package vault

import "sort"

// CalculateDelta builds the change set for everything that happened locally
// since baseVersion. Every entry whose version exceeds the base, tombstones
// included, is deep-copied into Updated; the server treats unknown IDs in
// Updated as additions, so Added stays empty on client-produced deltas.
// Deleted carries only explicitly requested physical removals.
//
// The function is pure: it never mutates its inputs and yields the same
// change set for the same inputs (entries sorted by ID, purged IDs sorted
// ascending).
func CalculateDelta(entries map[int64]*Entry, purged []int64, baseVersion int64, eventID string) ChangeSet {
	updated := make([]Entry, 0)
	for _, e := range entries {
		if e.Version > baseVersion {
			updated = append(updated, *e.Clone())
		}
	}
	sort.Slice(updated, func(i, j int) bool { return updated[i].ID < updated[j].ID })

	deleted := make([]int64, 0, len(purged))
	deleted = append(deleted, purged...)
	sort.Slice(deleted, func(i, j int) bool { return deleted[i] < deleted[j] })

	return ChangeSet{
		EventID:     eventID,
		BaseVersion: baseVersion,
		Added:       make([]Entry, 0),
		Updated:     updated,
		Deleted:     deleted,
	}
}
