package vault

import "time"

// MergeStats summarizes what a merge did, for user-facing notifications.
type MergeStats struct {
	Inserted    int
	Overwritten int
	Kept        int
	Removed     int
}

// Merge reconciles a fetched server snapshot with the local entry set
// outside the version-gated sync path (after a conflict was resolved by
// discarding the pending batch, or when replaying a stale queue was refused
// at startup).
//
// Per entry ID present on the server:
//   - absent locally: the server copy is inserted;
//   - server copy strictly newer by wall clock: server wins, and the losing
//     local payload is archived on the winner's conflict history;
//   - otherwise the local entry is kept untouched; nothing is archived,
//     only the losing side's data is ever recorded.
//
// IDs that exist only locally always survive; they are never dropped
// implicitly. IDs listed in serverDeleted were physically removed on the
// server and are removed from the result outright.
//
// Last-writer-wins on wall-clock time is deliberate: it is deterministic
// and idempotent for a fixed input pair, but client clock skew can pick the
// "wrong" winner. Callers must not paper over that with extra ordering
// machinery; it is a documented property of the protocol.
func Merge(local map[int64]*Entry, server []Entry, serverDeleted []int64, now time.Time) (map[int64]*Entry, MergeStats) {
	var stats MergeStats

	out := make(map[int64]*Entry, len(local)+len(server))
	for id, e := range local {
		out[id] = e.Clone()
	}

	for i := range server {
		srv := server[i]
		cur, ok := out[srv.ID]
		if !ok {
			out[srv.ID] = srv.Clone()
			stats.Inserted++
			continue
		}

		if srv.UpdatedAt.After(cur.UpdatedAt) {
			winner := srv.Clone()
			winner.PushConflictSnapshot(cur.Data, now)
			out[srv.ID] = winner
			stats.Overwritten++
			continue
		}

		stats.Kept++
	}

	for _, id := range serverDeleted {
		if _, ok := out[id]; ok {
			delete(out, id)
			stats.Removed++
		}
	}

	return out, stats
}
