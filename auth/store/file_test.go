package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/fitbit-mcp/auth"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	store := NewFileStore(path)
	ctx := context.Background()

	// A missing file reads as empty.
	_, ok, err := store.Get(ctx, DefaultAccountKey)
	assert.NoError(t, err)
	assert.False(t, ok)

	token := &auth.Token{AccessToken: "access-1", RefreshToken: "refresh-1", ExpiresAt: 1_700_000_000_000, Scope: "activity", TokenType: "Bearer"}
	assert.NoError(t, store.Set(ctx, DefaultAccountKey, token))
	assert.NoError(t, store.Set(ctx, "alice", &auth.Token{AccessToken: "access-2"}))

	loaded, ok, err := store.Get(ctx, DefaultAccountKey)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, token, loaded)

	// A fresh instance over the same file sees both records.
	reopened := NewFileStore(path)
	loaded, ok, err = reopened.Get(ctx, "alice")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "access-2", loaded.AccessToken)
}

func TestFileStoreDocumentShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	store := NewFileStore(path)
	ctx := context.Background()
	assert.NoError(t, store.Set(ctx, "alice", &auth.Token{AccessToken: "access-1", ExpiresAt: 42}))

	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	var document map[string]map[string]interface{}
	assert.NoError(t, json.Unmarshal(data, &document))
	assert.Contains(t, document, "alice")
	assert.Equal(t, "access-1", document["alice"]["accessToken"])
	assert.Equal(t, float64(42), document["alice"]["expiresAt"])
}

func TestFileStoreClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	store := NewFileStore(path)
	ctx := context.Background()

	// Clearing an absent key is a no-op and creates no file.
	assert.NoError(t, store.Clear(ctx, "alice"))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Set(ctx, "alice", &auth.Token{AccessToken: "access-1"}))
	assert.NoError(t, store.Clear(ctx, "alice"))
	_, ok, err := store.Get(ctx, "alice")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStoreFallback(t *testing.T) {
	base := t.TempDir()
	// A regular file in the path makes directory creation fail regardless of
	// privileges.
	blocker := filepath.Join(base, "blocker")
	assert.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	name := "fitbit-fallback-test-tokens.json"
	fallbackPath := filepath.Join(os.TempDir(), name)
	t.Cleanup(func() { _ = os.Remove(fallbackPath) })

	store := NewFileStore(filepath.Join(blocker, "sub", name))
	ctx := context.Background()

	// The unreadable configured path reads as an empty mapping.
	_, ok, err := store.Get(ctx, "alice")
	assert.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "alice", &auth.Token{AccessToken: "access-1"}))

	// The write landed at the temp-directory fallback location.
	_, err = os.Stat(fallbackPath)
	assert.NoError(t, err)
	loaded, ok, err := store.Get(ctx, "alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "access-1", loaded.AccessToken)
}

func TestNewSelectsBackend(t *testing.T) {
	ctx := context.Background()

	fileStore, err := New(ctx, &Config{Path: filepath.Join(t.TempDir(), "tokens.json")})
	assert.NoError(t, err)
	assert.IsType(t, &FileStore{}, fileStore)

	tableStore, err := New(ctx, &Config{DSN: filepath.Join(t.TempDir(), "tokens.db")})
	assert.NoError(t, err)
	assert.IsType(t, &TableStore{}, tableStore)
	assert.NoError(t, tableStore.(*TableStore).Close())
}
