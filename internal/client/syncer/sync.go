package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/client/api"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/common"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/vault"
)

// Status is a point-in-time view of the sync machinery for the status
// command.
type Status struct {
	Online          bool
	Pending         int
	ConflictPending bool
	Halted          bool
	HaltReason      string
	LastError       string
	LocalVersion    int64
	ServerVersion   int64
	LastSyncedAt    time.Time
	NextRetryAt     time.Time
}

// Status reports the controller's current condition.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Status{
		Online:          c.online,
		Pending:         c.queue.Len(),
		ConflictPending: c.conflict != nil,
		Halted:          c.halted != nil,
		LastError:       c.lastError,
		LocalVersion:    c.state.LocalVersion,
		ServerVersion:   c.state.ServerVersion,
		LastSyncedAt:    c.state.LastSyncedAt,
		NextRetryAt:     c.nextRetry,
	}
	if c.halted != nil {
		s.HaltReason = c.halted.Error()
	}
	return s
}

// TakeNotice returns and clears the pending user-facing message. Notices
// are produced when the engine changes the vault without a direct command,
// such as dropping a stale queue on reconnect.
func (c *Controller) TakeNotice() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg := c.notice
	c.notice = ""
	return msg, msg != ""
}

// ConflictState returns the server snapshot attached to the pending
// conflict, or nil when none is pending.
func (c *Controller) ConflictState() *vault.SyncConflict {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conflict == nil {
		return nil
	}
	cp := *c.conflict
	cp.Entries = make([]vault.Entry, len(c.conflict.Entries))
	for i := range c.conflict.Entries {
		cp.Entries[i] = *c.conflict.Entries[i].Clone()
	}
	return &cp
}

// SetOnline records connectivity as observed by the watcher. Coming back
// online resets the retry schedule and kicks a drain.
func (c *Controller) SetOnline(ctx context.Context, online bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.online == online {
		return
	}
	c.online = online
	if !online {
		c.needReconcile = true
		c.log.Info(ctx, "server unreachable, queuing changes locally")
		return
	}

	c.log.Info(ctx, "server reachable again")
	c.retry.Reset()
	c.nextRetry = time.Time{}
	c.drainIfReadyLocked(ctx)
}

// Tick is the periodic nudge from the watcher loop. It respects the retry
// schedule, so transport failures back off instead of hammering the server.
func (c *Controller) Tick(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.nowFn().Before(c.nextRetry) {
		c.drainIfReadyLocked(ctx)
	}
}

// SyncNow is the manual sync command. It clears a halt, ignores the retry
// schedule and reports what stopped the drain, if anything.
func (c *Controller) SyncNow(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conflict != nil {
		return common.ErrConflictPending
	}
	c.halted = nil
	c.nextRetry = time.Time{}
	c.retry.Reset()
	return c.drainLocked(ctx)
}

// drainIfReadyLocked runs a drain when nothing rules it out, swallowing the
// outcome: mutation paths and ticks must not fail because the server is
// having a bad day. Errors are kept for the status command instead.
func (c *Controller) drainIfReadyLocked(ctx context.Context) {
	if !c.online || c.halted != nil || c.conflict != nil {
		return
	}
	if err := c.drainLocked(ctx); err != nil {
		c.log.Warn(ctx, "sync attempt failed", "error", err)
	}
}

// drainLocked pushes queued batches one at a time until the queue is empty
// or something stops it. Exactly one batch is ever in flight because the
// controller lock is held for the whole round trip.
func (c *Controller) drainLocked(ctx context.Context) error {
	if err := c.reconcileLocked(ctx); err != nil {
		return c.recordFailureLocked(ctx, err)
	}

	for {
		head, ok := c.queue.Head()
		if !ok {
			c.lastError = ""
			return nil
		}

		resp, err := c.api.SyncVault(ctx, head.Delta)
		if err != nil {
			return c.recordFailureLocked(ctx, err)
		}

		c.queue.Pop()
		c.state.ReplaceFromServer(resp.Entries, resp.VaultVersion, resp.LastSyncedAt)
		c.retry.Reset()
		c.nextRetry = time.Time{}
		c.lastError = ""
		if err := c.persistLocked(ctx); err != nil {
			return err
		}
		c.log.Info(ctx, "batch acknowledged",
			"event_id", head.EventID, "vault_version", resp.VaultVersion)
	}
}

// recordFailureLocked sorts a failed attempt into the error taxonomy:
// conflicts wait for the user, transport failures retry with backoff, and
// anything else halts the drain until manual intervention.
func (c *Controller) recordFailureLocked(ctx context.Context, err error) error {
	c.lastError = err.Error()

	var conflict *api.ConflictError
	switch {
	case errors.As(err, &conflict):
		c.conflict = &conflict.Response
		c.log.Warn(ctx, "sync conflict, manual resolution required",
			"server_version", conflict.Response.ServerBaseVersion)
		return common.ErrConflictPending

	case errors.Is(err, common.ErrServerUnavailable):
		c.nextRetry = c.nowFn().Add(c.retry.NextBackOff())
		c.log.Warn(ctx, "server unreachable, will retry", "next_retry_at", c.nextRetry)
		return err

	default:
		// not found, unauthorized, malformed: retrying cannot help
		c.halted = err
		c.log.Error(ctx, "sync halted", "error", err)
		return err
	}
}

// reconcileLocked runs once per reconnect. It compares the queued base
// version with the server's current vault: a match lets the queue drain,
// a mismatch means another device moved the vault while this one was away,
// so the whole stale queue is dropped and the server state merged in.
func (c *Controller) reconcileLocked(ctx context.Context) error {
	if !c.needReconcile {
		return nil
	}

	snap, err := c.api.GetVault(ctx)
	if err != nil {
		return err
	}
	c.needReconcile = false

	head, ok := c.queue.Head()
	if !ok {
		if snap.VaultVersion != c.state.ServerVersion || c.state.LastSyncedAt.IsZero() {
			c.state.ReplaceFromServer(snap.EncryptedEntries, snap.VaultVersion, snap.LastSyncedAt)
			if err := c.persistLocked(ctx); err != nil {
				return err
			}
			c.log.Info(ctx, "vault refreshed from server", "vault_version", snap.VaultVersion)
		}
		return nil
	}

	if head.Delta.BaseVersion == snap.VaultVersion {
		return nil
	}

	c.log.Warn(ctx, "queued changes are stale, discarding them",
		"queued_base", head.Delta.BaseVersion, "server_version", snap.VaultVersion, "dropped", c.queue.Len())
	c.notice = fmt.Sprintf(
		"Dropped %d stale pending batch(es); adopted server vault version %d. Overwritten payloads are archived per entry.",
		c.queue.Len(), snap.VaultVersion)
	c.adoptServerLocked(ctx, snap.EncryptedEntries, snap.VaultVersion)
	return c.persistLocked(ctx)
}

// ResolveConflict is the manual resolution command: drop the queue, fetch
// the authoritative vault and merge it entry by entry. Local entries that
// lose carry their payload into the winner's conflict history; local
// entries the server never saw survive untouched.
func (c *Controller) ResolveConflict(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var entries []vault.Entry
	var version int64
	if c.conflict != nil {
		entries, version = c.conflict.Entries, c.conflict.VaultVersion
	} else {
		snap, err := c.api.GetVault(ctx)
		if err != nil {
			return err
		}
		entries, version = snap.EncryptedEntries, snap.VaultVersion
	}

	c.adoptServerLocked(ctx, entries, version)
	c.conflict = nil
	c.halted = nil
	c.retry.Reset()
	c.nextRetry = time.Time{}
	if err := c.persistLocked(ctx); err != nil {
		return err
	}

	c.log.Info(ctx, "conflict resolved against server state", "vault_version", version)
	return nil
}

// adoptServerLocked abandons queued work and reconciles local entries with
// the server's, last writer wins per entry.
func (c *Controller) adoptServerLocked(ctx context.Context, entries []vault.Entry, vaultVersion int64) {
	merged, stats := vault.Merge(c.state.Entries, entries, nil, c.nowFn())
	c.state.Entries = merged
	c.state.ServerVersion = vaultVersion
	if c.state.LocalVersion < vaultVersion {
		c.state.LocalVersion = vaultVersion
	}
	c.state.LastSyncedAt = c.nowFn()
	c.state.ClearPurged()
	c.queue.Clear()

	c.log.Info(ctx, "merged server vault",
		"inserted", stats.Inserted, "overwritten", stats.Overwritten, "kept", stats.Kept)
}
