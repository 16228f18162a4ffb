package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/client/models"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/cryptox"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/vault"
)

// Vault is the slice of the sync controller the entry service needs.
type Vault interface {
	AddEntry(ctx context.Context, data json.RawMessage) (*vault.Entry, error)
	UpdateEntry(ctx context.Context, id int64, data json.RawMessage) (*vault.Entry, error)
	DeleteEntry(ctx context.Context, id int64) error
	PurgeEntry(ctx context.Context, id int64) error
	Entries() []vault.Entry
	AllEntries() []vault.Entry
	Entry(id int64) (*vault.Entry, error)
}

// EntryService is the encrypt/decrypt edge: envelopes in, sealed payloads
// toward the sync engine, and back.
type EntryService interface {
	Add(ctx context.Context, envelope models.Envelope, masterKey []byte) (int64, error)
	Update(ctx context.Context, id int64, envelope models.Envelope, masterKey []byte) error
	Get(ctx context.Context, id int64, masterKey []byte) (*models.Envelope, error)
	List(ctx context.Context, masterKey []byte) ([]models.ViewOverview, error)
	Delete(ctx context.Context, id int64) error
	Purge(ctx context.Context, id int64) error
	History(ctx context.Context, id int64, masterKey []byte) ([]HistoryItem, error)
	Conflicts(ctx context.Context, id int64, masterKey []byte) ([]ConflictItem, error)
}

// HistoryItem is one decrypted edit snapshot.
type HistoryItem struct {
	SavedAt  time.Time
	Envelope models.Envelope
}

// ConflictItem is one decrypted payload that lost a sync conflict.
type ConflictItem struct {
	ResolvedAt time.Time
	Resolution string
	Envelope   models.Envelope
}

type entryService struct {
	vault Vault
}

// NewEntryService constructs an EntryService over the given vault.
func NewEntryService(v Vault) EntryService {
	return &entryService{vault: v}
}

// seal encrypts the overview and the full envelope separately and packs
// both into the opaque payload the sync engine carries.
func seal(envelope models.Envelope, masterKey []byte) (json.RawMessage, error) {
	oCipher, oNonce, err := cryptox.EncryptEntry(envelope.Overview(), masterKey)
	if err != nil {
		return nil, fmt.Errorf("encryption error: %w", err)
	}

	cipher, nonce, err := cryptox.EncryptEntry(envelope, masterKey)
	if err != nil {
		return nil, fmt.Errorf("encryption error: %w", err)
	}

	payload := models.SealedPayload{
		Overview:      oCipher,
		NonceOverview: oNonce,
		Details:       cipher,
		NonceDetails:  nonce,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("payload encoding error: %w", err)
	}
	return raw, nil
}

func unseal(data json.RawMessage) (*models.SealedPayload, error) {
	var payload models.SealedPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("payload decoding error: %w", err)
	}
	return &payload, nil
}

func openOverview(data json.RawMessage, masterKey []byte) (*models.Overview, error) {
	payload, err := unseal(data)
	if err != nil {
		return nil, err
	}
	var ov models.Overview
	if err := cryptox.DecryptEntry(payload.Overview, payload.NonceOverview, masterKey, &ov); err != nil {
		return nil, fmt.Errorf("decryption error: %w", err)
	}
	return &ov, nil
}

func openEnvelope(data json.RawMessage, masterKey []byte) (*models.Envelope, error) {
	payload, err := unseal(data)
	if err != nil {
		return nil, err
	}
	var env models.Envelope
	if err := cryptox.DecryptEntry(payload.Details, payload.NonceDetails, masterKey, &env); err != nil {
		return nil, fmt.Errorf("decryption error: %w", err)
	}
	return &env, nil
}

func (s *entryService) Add(ctx context.Context, envelope models.Envelope, masterKey []byte) (int64, error) {
	raw, err := seal(envelope, masterKey)
	if err != nil {
		return 0, err
	}

	e, err := s.vault.AddEntry(ctx, raw)
	if err != nil {
		return 0, fmt.Errorf("saving error: %w", err)
	}
	return e.ID, nil
}

func (s *entryService) Update(ctx context.Context, id int64, envelope models.Envelope, masterKey []byte) error {
	raw, err := seal(envelope, masterKey)
	if err != nil {
		return err
	}

	if _, err := s.vault.UpdateEntry(ctx, id, raw); err != nil {
		return fmt.Errorf("saving error: %w", err)
	}
	return nil
}

func (s *entryService) Get(_ context.Context, id int64, masterKey []byte) (*models.Envelope, error) {
	e, err := s.vault.Entry(id)
	if err != nil {
		return nil, fmt.Errorf("error retrieving entry: %w", err)
	}
	return openEnvelope(e.Data, masterKey)
}

// List decrypts only the overview of each visible entry. Entries that fail
// to decrypt (wrong key epoch, corrupt payload) are listed as unreadable
// rather than hiding the whole vault.
func (s *entryService) List(_ context.Context, masterKey []byte) ([]models.ViewOverview, error) {
	rows := s.vault.Entries()

	result := make([]models.ViewOverview, 0, len(rows))
	for _, row := range rows {
		item := models.ViewOverview{ID: row.ID}
		if ov, err := openOverview(row.Data, masterKey); err == nil {
			item.Type = string(ov.Type)
			item.Title = ov.Title
		} else {
			item.Title = "(unreadable)"
		}
		result = append(result, item)
	}
	return result, nil
}

func (s *entryService) Delete(ctx context.Context, id int64) error {
	if err := s.vault.DeleteEntry(ctx, id); err != nil {
		return fmt.Errorf("error deleting entry: %w", err)
	}
	return nil
}

func (s *entryService) Purge(ctx context.Context, id int64) error {
	if err := s.vault.PurgeEntry(ctx, id); err != nil {
		return fmt.Errorf("error purging entry: %w", err)
	}
	return nil
}

func (s *entryService) History(_ context.Context, id int64, masterKey []byte) ([]HistoryItem, error) {
	e, err := s.vault.Entry(id)
	if err != nil {
		return nil, fmt.Errorf("error retrieving entry: %w", err)
	}

	items := make([]HistoryItem, 0, len(e.History))
	for _, snap := range e.History {
		env, err := openEnvelope(snap.Data, masterKey)
		if err != nil {
			return nil, err
		}
		items = append(items, HistoryItem{SavedAt: snap.SavedAt, Envelope: *env})
	}
	return items, nil
}

func (s *entryService) Conflicts(_ context.Context, id int64, masterKey []byte) ([]ConflictItem, error) {
	e, err := s.vault.Entry(id)
	if err != nil {
		return nil, fmt.Errorf("error retrieving entry: %w", err)
	}

	items := make([]ConflictItem, 0, len(e.ConflictHistory))
	for _, snap := range e.ConflictHistory {
		env, err := openEnvelope(snap.Data, masterKey)
		if err != nil {
			return nil, err
		}
		items = append(items, ConflictItem{ResolvedAt: snap.ResolvedAt, Resolution: snap.Resolution, Envelope: *env})
	}
	return items, nil
}
