package client

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreLoadMissingFile(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "clients.json"), zerolog.Nop())
	assert.Empty(t, store.Load())
}

func TestStoreLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clients.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	store := NewStore(path, zerolog.Nop())
	assert.Empty(t, store.Load())
}

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clients.json")
	store := NewStore(path, zerolog.Nop())

	entries := []Entry{
		{ClientID: "client-a", CallbackURL: "http://example.com/hook"},
		{ClientID: "client-b"},
	}
	require.NoError(t, store.SaveAll(entries))

	loaded := store.Load()
	assert.Equal(t, entries, loaded)

	// A fresh store on the same path sees the same set, as after a restart
	reloaded := NewStore(path, zerolog.Nop()).Load()
	assert.Equal(t, entries, reloaded)
}

func TestStoreSaveAllOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clients.json")
	store := NewStore(path, zerolog.Nop())

	require.NoError(t, store.SaveAll([]Entry{{ClientID: "client-a"}, {ClientID: "client-b"}}))
	require.NoError(t, store.SaveAll([]Entry{{ClientID: "client-b"}}))

	loaded := store.Load()
	require.Len(t, loaded, 1)
	assert.Equal(t, "client-b", loaded[0].ClientID)
}

func TestStoreSaveAllEmptySet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clients.json")
	store := NewStore(path, zerolog.Nop())

	require.NoError(t, store.SaveAll(nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))

	// No stray temp files left behind
	files, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, files, 1)
}
