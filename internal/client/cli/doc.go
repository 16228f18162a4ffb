// Package cli provides the interactive vault command-line client.
//
// It wires configuration, the local encrypted store, the sync controller and
// an interactive REPL that works the same online and offline. Typical flow:
// prompt for credentials, start a background connectivity watcher, and
// execute user commands while queued changes drain to the server whenever it
// is reachable.
//
// Key features:
//   - Login / Logout (online with offline fallback)
//   - Add, edit, delete and purge entries: notes, logins, credit cards
//   - List / Show entries, per-entry edit history and conflict archive
//   - Manual sync and conflict resolution
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and runREPL for details.
package cli
