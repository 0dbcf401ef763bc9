package idempotency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckOrInsertFirstSeenThenReplay(t *testing.T) {
	s := New()
	payload := map[string]any{"amount_minor": float64(10_000), "currency": "USD"}

	outcome, err := s.CheckOrInsert("key-1", payload)
	require.NoError(t, err)
	assert.Equal(t, FirstSeen, outcome)

	outcome, err = s.CheckOrInsert("key-1", payload)
	require.NoError(t, err)
	assert.Equal(t, Replay, outcome)
}

func TestCheckOrInsertDetectsPayloadHashMismatch(t *testing.T) {
	s := New()
	_, err := s.CheckOrInsert("key-1", map[string]any{"amount_minor": float64(10_000)})
	require.NoError(t, err)

	outcome, err := s.CheckOrInsert("key-1", map[string]any{"amount_minor": float64(9_000)})
	require.NoError(t, err)
	assert.Equal(t, PayloadHashMismatch, outcome)
}

func TestSnapshotRestoreRoundTrips(t *testing.T) {
	s := New()
	_, err := s.CheckOrInsert("key-1", map[string]any{"a": float64(1)})
	require.NoError(t, err)

	snap, err := s.Snapshot()
	require.NoError(t, err)

	restored := New()
	require.NoError(t, restored.Restore(snap))

	outcome, err := restored.CheckOrInsert("key-1", map[string]any{"a": float64(1)})
	require.NoError(t, err)
	assert.Equal(t, Replay, outcome)
}

func TestResultCachePutGet(t *testing.T) {
	c := NewResultCache()
	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Put("key-1", CachedResult{StatusCode: 200, Body: map[string]any{"journal_id": "j1"}})
	cached, ok := c.Get("key-1")
	require.True(t, ok)
	assert.Equal(t, 200, cached.StatusCode)
	assert.Equal(t, "j1", cached.Body["journal_id"])
}

func TestResultCacheSnapshotRestoreRoundTrips(t *testing.T) {
	c := NewResultCache()
	c.Put("key-1", CachedResult{StatusCode: 409, Body: map[string]any{"error": "journal_exists"}})

	snap := c.Snapshot()
	restored := NewResultCache()
	restored.Restore(snap)

	cached, ok := restored.Get("key-1")
	require.True(t, ok)
	assert.Equal(t, 409, cached.StatusCode)
}
