package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/common"
)

// Sync pushes queued changes to the server right now, clearing a halt first
// if one is set. A pending conflict blocks syncing until it is resolved.
func (a *App) Sync(ctx context.Context) error {
	s := a.currentSync()
	if s == nil {
		printlnFn("Log in first.")
		return nil
	}

	err := s.SyncNow(ctx)
	if msg, ok := s.TakeNotice(); ok {
		printlnFn(msg)
	}
	if err != nil {
		if errors.Is(err, common.ErrConflictPending) {
			printlnFn("Sync conflict: this vault diverged from the server.")
			printlnFn("Use 'resolve' to accept the server version; conflicting payloads are archived per entry.")
			return err
		}
		log.Printf("sync failed: %s", err.Error())
		return err
	}

	printlnFn("Sync complete.")
	return nil
}

// Resolve accepts the server version of the vault. Local payloads that lose
// land in the per-entry conflict archive, nothing is silently dropped.
func (a *App) Resolve(ctx context.Context) error {
	s := a.currentSync()
	if s == nil {
		printlnFn("Log in first.")
		return nil
	}

	if err := s.ResolveConflict(ctx); err != nil {
		log.Printf("resolve failed: %s", err.Error())
		return err
	}

	printlnFn("Resolved: server version adopted, overwritten payloads archived.")
	return nil
}

// Status prints the sync engine's current condition.
func (a *App) Status(ctx context.Context) error {
	s := a.currentSync()
	if s == nil {
		printlnFn("Not logged in.")
		return nil
	}

	st := s.Status()

	connectivity := "offline"
	if st.Online {
		connectivity = "online"
	}
	printlnFn(fmt.Sprintf("connectivity:   %s", connectivity))
	printlnFn(fmt.Sprintf("pending:        %d batch(es)", st.Pending))
	printlnFn(fmt.Sprintf("local version:  %d", st.LocalVersion))
	printlnFn(fmt.Sprintf("server version: %d", st.ServerVersion))

	if st.LastSyncedAt.IsZero() {
		printlnFn("last synced:    never")
	} else {
		printlnFn(fmt.Sprintf("last synced:    %s", st.LastSyncedAt.Format(time.RFC3339)))
	}
	if st.ConflictPending {
		printlnFn("conflict:       pending, run 'resolve'")
	}
	if st.Halted {
		printlnFn(fmt.Sprintf("halted:         %s (run 'sync' to retry)", st.HaltReason))
	}
	if !st.NextRetryAt.IsZero() && st.NextRetryAt.After(time.Now()) {
		printlnFn(fmt.Sprintf("next retry:     %s", st.NextRetryAt.Format(time.RFC3339)))
	}
	if st.LastError != "" {
		printlnFn(fmt.Sprintf("last error:     %s", st.LastError))
	}
	return nil
}
