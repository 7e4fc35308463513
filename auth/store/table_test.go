package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viant/fitbit-mcp/auth"
)

func newTestTableStore(t *testing.T, prefix string) *TableStore {
	t.Helper()
	store, err := NewTableStore(context.Background(), "sqlite", filepath.Join(t.TempDir(), "tokens.db"), prefix)
	assert.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestTableStoreRoundTrip(t *testing.T) {
	store := newTestTableStore(t, "")
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "alice")
	assert.NoError(t, err)
	assert.False(t, ok)

	token := &auth.Token{AccessToken: "access-1", RefreshToken: "refresh-1", ExpiresAt: 1_700_000_000_000, Scope: "activity", TokenType: "Bearer"}
	assert.NoError(t, store.Set(ctx, "alice", token))

	loaded, ok, err := store.Get(ctx, "alice")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, token, loaded)

	// Set replaces the previous record.
	assert.NoError(t, store.Set(ctx, "alice", &auth.Token{AccessToken: "access-2", RefreshToken: "refresh-2", ExpiresAt: 1, Scope: "sleep", TokenType: "Bearer"}))
	loaded, ok, err = store.Get(ctx, "alice")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "access-2", loaded.AccessToken)
}

func TestTableStoreClear(t *testing.T) {
	store := newTestTableStore(t, "")
	ctx := context.Background()

	assert.NoError(t, store.Clear(ctx, "alice"))
	assert.NoError(t, store.Set(ctx, "alice", &auth.Token{AccessToken: "access-1"}))
	assert.NoError(t, store.Clear(ctx, "alice"))
	_, ok, err := store.Get(ctx, "alice")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestTableStoreKeyPrefix(t *testing.T) {
	store := newTestTableStore(t, "prod/")
	ctx := context.Background()

	assert.NoError(t, store.Set(ctx, "alice", &auth.Token{AccessToken: "access-1"}))
	loaded, ok, err := store.Get(ctx, "alice")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "access-1", loaded.AccessToken)

	// The raw row key carries the prefix.
	row := store.db.QueryRowContext(ctx, "SELECT account_key FROM tokens")
	var key string
	assert.NoError(t, row.Scan(&key))
	assert.Equal(t, "prod/alice", key)
}
