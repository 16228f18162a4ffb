package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/client/models"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/common"
	"github.com/Konduru-Hemesh/securePasswordManager-SyncAndConflictManagement/internal/vault"
)

// fakeVault backs the entry service with a bare state, no sync machinery.
type fakeVault struct {
	st *vault.State
}

func newFakeVault() *fakeVault {
	return &fakeVault{st: vault.NewState()}
}

func (f *fakeVault) AddEntry(_ context.Context, data json.RawMessage) (*vault.Entry, error) {
	e, err := f.st.Add(f.st.NextID(), data, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return e.Clone(), nil
}

func (f *fakeVault) UpdateEntry(_ context.Context, id int64, data json.RawMessage) (*vault.Entry, error) {
	e, err := f.st.Update(id, data, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return e.Clone(), nil
}

func (f *fakeVault) DeleteEntry(_ context.Context, id int64) error {
	_, err := f.st.Delete(id, time.Now().UTC())
	return err
}

func (f *fakeVault) PurgeEntry(_ context.Context, id int64) error {
	return f.st.Purge(id)
}

func (f *fakeVault) Entries() []vault.Entry { return f.st.VisibleEntries() }

func (f *fakeVault) AllEntries() []vault.Entry { return f.st.EntryList() }

func (f *fakeVault) Entry(id int64) (*vault.Entry, error) {
	e, ok := f.st.Get(id)
	if !ok {
		return nil, common.ErrNotFound
	}
	return e.Clone(), nil
}

var _ Vault = (*fakeVault)(nil)

var testKey = make([]byte, 32)

func mustEnvelope(t *testing.T, title, text string) models.Envelope {
	t.Helper()
	env, err := models.Wrap(models.EntryTypeNote, title, nil, models.Note{Text: text})
	require.NoError(t, err)
	return env
}

func TestEntryService_AddGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewEntryService(newFakeVault())

	env, err := models.Wrap(models.EntryTypeLogin, "github",
		[]models.Metadata{{Name: "env", Value: "prod"}},
		models.Login{Username: "alice", Password: "hunter2", URL: "https://github.com"})
	require.NoError(t, err)

	id, err := s.Add(ctx, env, testKey)
	require.NoError(t, err)
	require.Equal(t, int64(1), id)

	got, err := s.Get(ctx, id, testKey)
	require.NoError(t, err)
	assert.Equal(t, models.EntryTypeLogin, got.Type)
	assert.Equal(t, "github", got.Title)

	inner, err := got.Unwrap()
	require.NoError(t, err)
	assert.Equal(t, models.Login{Username: "alice", Password: "hunter2", URL: "https://github.com"}, inner)
}

func TestEntryService_PayloadIsOpaque(t *testing.T) {
	ctx := context.Background()
	v := newFakeVault()
	s := NewEntryService(v)

	id, err := s.Add(ctx, mustEnvelope(t, "secret note", "the text"), testKey)
	require.NoError(t, err)

	// what the sync engine stores carries no plaintext
	e, err := v.Entry(id)
	require.NoError(t, err)
	assert.NotContains(t, string(e.Data), "secret note")
	assert.NotContains(t, string(e.Data), "the text")

	var payload models.SealedPayload
	require.NoError(t, json.Unmarshal(e.Data, &payload))
	assert.NotEmpty(t, payload.Overview)
	assert.NotEmpty(t, payload.Details)
	assert.NotEqual(t, payload.NonceOverview, payload.NonceDetails)
}

func TestEntryService_List(t *testing.T) {
	ctx := context.Background()
	s := NewEntryService(newFakeVault())

	_, err := s.Add(ctx, mustEnvelope(t, "first", "a"), testKey)
	require.NoError(t, err)
	id2, err := s.Add(ctx, mustEnvelope(t, "second", "b"), testKey)
	require.NoError(t, err)

	rows, err := s.List(ctx, testKey)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "first", rows[0].Title)
	assert.Equal(t, "second", rows[1].Title)
	assert.Equal(t, string(models.EntryTypeNote), rows[0].Type)

	// deleted entries disappear from listings
	require.NoError(t, s.Delete(ctx, id2))
	rows, err = s.List(ctx, testKey)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestEntryService_WrongKey(t *testing.T) {
	ctx := context.Background()
	s := NewEntryService(newFakeVault())

	id, err := s.Add(ctx, mustEnvelope(t, "hidden", "text"), testKey)
	require.NoError(t, err)

	wrongKey := make([]byte, 32)
	wrongKey[0] = 1

	_, err = s.Get(ctx, id, wrongKey)
	assert.Error(t, err)

	rows, err := s.List(ctx, wrongKey)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "(unreadable)", rows[0].Title)
}

func TestEntryService_HistoryDecrypts(t *testing.T) {
	ctx := context.Background()
	s := NewEntryService(newFakeVault())

	id, err := s.Add(ctx, mustEnvelope(t, "doc", "v1"), testKey)
	require.NoError(t, err)
	require.NoError(t, s.Update(ctx, id, mustEnvelope(t, "doc", "v2"), testKey))
	require.NoError(t, s.Update(ctx, id, mustEnvelope(t, "doc", "v3"), testKey))

	items, err := s.History(ctx, id, testKey)
	require.NoError(t, err)
	require.Len(t, items, 2)

	first, err := items[0].Envelope.Unwrap()
	require.NoError(t, err)
	assert.Equal(t, models.Note{Text: "v1"}, first)
	second, err := items[1].Envelope.Unwrap()
	require.NoError(t, err)
	assert.Equal(t, models.Note{Text: "v2"}, second)
}

func TestEntryService_ConflictsDecrypt(t *testing.T) {
	ctx := context.Background()
	v := newFakeVault()
	s := NewEntryService(v)

	id, err := s.Add(ctx, mustEnvelope(t, "doc", "local loser"), testKey)
	require.NoError(t, err)

	// simulate a lost conflict: the old payload went into the archive
	loser, err := v.Entry(id)
	require.NoError(t, err)
	winner, err := seal(mustEnvelope(t, "doc", "server winner"), testKey)
	require.NoError(t, err)

	e := v.st.Entries[id]
	e.PushConflictSnapshot(loser.Data, time.Now().UTC())
	e.Data = winner

	items, err := s.Conflicts(ctx, id, testKey)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, vault.ResolutionServerWins, items[0].Resolution)

	inner, err := items[0].Envelope.Unwrap()
	require.NoError(t, err)
	assert.Equal(t, models.Note{Text: "local loser"}, inner)
}

func TestEntryService_PurgeRemovesCompletely(t *testing.T) {
	ctx := context.Background()
	s := NewEntryService(newFakeVault())

	id, err := s.Add(ctx, mustEnvelope(t, "doomed", "x"), testKey)
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, id))
	require.NoError(t, s.Purge(ctx, id))

	_, err = s.Get(ctx, id, testKey)
	assert.ErrorIs(t, err, common.ErrNotFound)
}
