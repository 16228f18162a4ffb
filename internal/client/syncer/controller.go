// Package syncer coordinates the offline-first vault: every local mutation
// lands in the local state and the pending queue first, and a background
// drain pushes queued batches to the server whenever it is reachable. The
// controller owns the local state, the queue and the conflict flag; the REPL
// and the connectivity watcher drive it.
package syncer

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/client/api"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/client/outbox"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/client/storage"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/common"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/dbx"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/logging"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/vault"
)

// Controller serializes all vault access behind one mutex. The lock is held
// across sync round trips, so a batch can never be coalesced while it is in
// flight: coalescing happens only to batches waiting in the queue.
type Controller struct {
	api    api.Client
	db     *sql.DB
	log    logging.Logger
	userID string

	mu    sync.Mutex
	state *vault.State
	queue *outbox.Queue

	online        bool
	needReconcile bool
	conflict      *vault.SyncConflict
	halted        error
	lastError     string
	notice        string

	retry     *backoff.ExponentialBackOff
	nextRetry time.Time

	nowFn      func() time.Time
	newEventID func() string
}

// NewController builds a controller for one logged-in user. Call Load before
// anything else to bring in persisted state.
func NewController(client api.Client, db *sql.DB, log logging.Logger, userID string) *Controller {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 2 * time.Second
	bo.MaxInterval = 2 * time.Minute
	bo.MaxElapsedTime = 0

	return &Controller{
		api:           client,
		db:            db,
		log:           log.With("component", "syncer", "user_id", userID),
		userID:        userID,
		state:         vault.NewState(),
		queue:         outbox.NewQueue(),
		needReconcile: true,
		retry:         bo,
		nowFn:         func() time.Time { return time.Now().UTC() },
		newEventID:    uuid.NewString,
	}
}

// Load restores the persisted vault state and pending queue, if any.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	store := storage.NewSQLiteStore(c.db)

	st, found, err := storage.LoadVault(ctx, store, c.userID)
	if err != nil {
		return err
	}
	if found {
		c.state = st
	}

	entries, err := storage.LoadOutbox(ctx, store, c.userID)
	if err != nil {
		return err
	}
	c.queue.Restore(entries)

	c.log.Info(ctx, "local vault loaded",
		"entries", len(c.state.Entries), "pending", c.queue.Len(), "vault_version", c.state.ServerVersion)
	return nil
}

// persistLocked writes state and queue in one transaction so a crash cannot
// separate a mutation from its queued batch.
func (c *Controller) persistLocked(ctx context.Context) error {
	return dbx.WithTx(ctx, c.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		store := storage.NewSQLiteStore(tx)
		if err := storage.SaveVault(ctx, store, c.userID, c.state); err != nil {
			return err
		}
		return storage.SaveOutbox(ctx, store, c.userID, c.queue.Entries())
	})
}

// enqueueLocked recomputes the pending batch from the full local state. The
// queue coalesces batches sharing a base version, so rapid edits collapse
// into one delta.
func (c *Controller) enqueueLocked(at time.Time) {
	delta := vault.CalculateDelta(c.state.Entries, c.state.PurgedIDs(), c.state.ServerVersion, c.newEventID())
	if delta.IsEmpty() {
		return
	}
	c.queue.Push(delta, at)
}

// AddEntry stores a new entry locally and queues it for sync.
func (c *Controller) AddEntry(ctx context.Context, data json.RawMessage) (*vault.Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.nowFn()
	e, err := c.state.Add(c.state.NextID(), data, now)
	if err != nil {
		return nil, err
	}
	c.enqueueLocked(now)
	if err := c.persistLocked(ctx); err != nil {
		return nil, err
	}

	c.drainIfReadyLocked(ctx)
	return e.Clone(), nil
}

// UpdateEntry replaces an entry's payload locally and queues it for sync.
func (c *Controller) UpdateEntry(ctx context.Context, id int64, data json.RawMessage) (*vault.Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.nowFn()
	e, err := c.state.Update(id, data, now)
	if err != nil {
		return nil, err
	}
	c.enqueueLocked(now)
	if err := c.persistLocked(ctx); err != nil {
		return nil, err
	}

	c.drainIfReadyLocked(ctx)
	return e.Clone(), nil
}

// DeleteEntry tombstones an entry locally and queues the change for sync.
func (c *Controller) DeleteEntry(ctx context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.nowFn()
	if _, err := c.state.Delete(id, now); err != nil {
		return err
	}
	c.enqueueLocked(now)
	if err := c.persistLocked(ctx); err != nil {
		return err
	}

	c.drainIfReadyLocked(ctx)
	return nil
}

// PurgeEntry removes an entry physically. The removal propagates to the
// server with the next batch and is applied there as a hard delete.
func (c *Controller) PurgeEntry(ctx context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.state.Purge(id); err != nil {
		return err
	}
	c.enqueueLocked(c.nowFn())
	if err := c.persistLocked(ctx); err != nil {
		return err
	}

	c.drainIfReadyLocked(ctx)
	return nil
}

// Entries returns the visible (non-tombstoned) entries sorted by id.
func (c *Controller) Entries() []vault.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.VisibleEntries()
}

// AllEntries returns every entry including tombstones, for trash listings.
func (c *Controller) AllEntries() []vault.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.EntryList()
}

// Entry returns a copy of one entry, tombstoned or not.
func (c *Controller) Entry(id int64) (*vault.Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.state.Get(id)
	if !ok {
		return nil, common.ErrNotFound
	}
	return e.Clone(), nil
}
