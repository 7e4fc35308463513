package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPendingConsumeOnce(t *testing.T) {
	pending := NewPendingAuthorizations()
	pending.Register("state-1", "alice", "http://example.com/done")

	entry, err := pending.Consume("state-1")
	assert.NoError(t, err)
	assert.Equal(t, "alice", entry.AccountKey)
	assert.Equal(t, "http://example.com/done", entry.SuccessRedirect)

	// A replayed state misses.
	_, err = pending.Consume("state-1")
	assert.True(t, IsKind(err, KindUnknownState))
}

func TestPendingUnknownState(t *testing.T) {
	pending := NewPendingAuthorizations()
	_, err := pending.Consume("never-issued")
	assert.True(t, IsKind(err, KindUnknownState))
}

func TestPendingExpiry(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	pending := NewPendingAuthorizations()
	pending.now = func() time.Time { return now }

	pending.Register("state-1", "alice", "")
	now = now.Add(pendingTTL + time.Second)
	_, err := pending.Consume("state-1")
	assert.True(t, IsKind(err, KindUnknownState))

	// Registering evicts stale entries as well.
	pending.Register("state-2", "bob", "")
	assert.Len(t, pending.entries, 1)
}
