package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/client/outbox"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/vault"
)

// VaultDocument is the on-disk form of the local vault state.
type VaultDocument struct {
	Entries       []vault.Entry `json:"entries"`
	VaultVersion  int64         `json:"vaultVersion"`
	ServerVersion int64         `json:"serverVersion"`
	Purged        []int64       `json:"purged,omitempty"`
	LastSyncedAt  time.Time     `json:"lastSyncedAt"`
}

// Session is the logged-in account, persisted so a restart resumes it.
type Session struct {
	UserID       string `json:"userId"`
	Login        string `json:"login"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AuthCache holds the account id, KDF salt and password verifier captured at
// the last online login, enabling the vault to be unlocked with no server
// reachable.
type AuthCache struct {
	UserID   string `json:"userId"`
	Salt     []byte `json:"salt"`
	Verifier []byte `json:"verifier"`
}

// SaveVault writes the user's vault state.
func SaveVault(ctx context.Context, s Store, userID string, st *vault.State) error {
	doc := VaultDocument{
		Entries:       st.EntryList(),
		VaultVersion:  st.LocalVersion,
		ServerVersion: st.ServerVersion,
		Purged:        st.PurgedIDs(),
		LastSyncedAt:  st.LastSyncedAt,
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal vault state: %w", err)
	}
	return s.Set(ctx, vaultKey(userID), raw)
}

// LoadVault reads the user's vault state. The second return value reports
// whether a persisted state existed.
func LoadVault(ctx context.Context, s Store, userID string) (*vault.State, bool, error) {
	raw, err := s.Get(ctx, vaultKey(userID))
	if err != nil {
		return nil, false, err
	}
	if raw == nil {
		return nil, false, nil
	}

	var doc VaultDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal vault state: %w", err)
	}

	st := vault.NewState()
	for i := range doc.Entries {
		e := doc.Entries[i]
		st.Entries[e.ID] = e.Clone()
	}
	st.LocalVersion = doc.VaultVersion
	st.ServerVersion = doc.ServerVersion
	for _, id := range doc.Purged {
		st.Purged[id] = struct{}{}
	}
	st.LastSyncedAt = doc.LastSyncedAt
	return st, true, nil
}

// SaveOutbox writes the user's pending sync queue.
func SaveOutbox(ctx context.Context, s Store, userID string, entries []outbox.Entry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal outbox: %w", err)
	}
	return s.Set(ctx, outboxKey(userID), raw)
}

// LoadOutbox reads the user's pending sync queue, empty when none was saved.
func LoadOutbox(ctx context.Context, s Store, userID string) ([]outbox.Entry, error) {
	raw, err := s.Get(ctx, outboxKey(userID))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	var entries []outbox.Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal outbox: %w", err)
	}
	return entries, nil
}

func SaveSession(ctx context.Context, s Store, sess *Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	return s.Set(ctx, sessionKey, raw)
}

func LoadSession(ctx context.Context, s Store) (*Session, error) {
	raw, err := s.Get(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &sess, nil
}

func ClearSession(ctx context.Context, s Store) error {
	return s.Delete(ctx, sessionKey)
}

func SaveAuthCache(ctx context.Context, s Store, login string, c *AuthCache) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal auth cache: %w", err)
	}
	return s.Set(ctx, authCacheKey(login), raw)
}

func LoadAuthCache(ctx context.Context, s Store, login string) (*AuthCache, error) {
	raw, err := s.Get(ctx, authCacheKey(login))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	var c AuthCache
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal auth cache: %w", err)
	}
	return &c, nil
}
