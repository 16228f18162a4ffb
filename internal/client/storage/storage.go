// Package storage persists client state between runs. Everything the client
// needs to survive a restart (vault document, pending sync queue, session,
// cached credentials) is stored as JSON blobs in a single key/value table,
// namespaced per user so several accounts can share one database file.
package storage

import "context"

// Store is a small key/value abstraction over the client database.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}

const sessionKey = "session"

func vaultKey(userID string) string {
	return "vault_storage_" + userID
}

func outboxKey(userID string) string {
	return "vault_outbox_" + userID
}

func authCacheKey(login string) string {
	return "auth_cache_" + login
}
