package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidPeriodID(t *testing.T) {
	assert.True(t, IsValidPeriodID("2026-02"))
	assert.False(t, IsValidPeriodID("2026-2"))
	assert.False(t, IsValidPeriodID("26-02"))
	assert.False(t, IsValidPeriodID("not-a-period"))
}

func TestPeriodIDFromDate(t *testing.T) {
	assert.Equal(t, "2026-02", PeriodIDFromDate(time.Date(2026, 2, 21, 0, 0, 0, 0, time.UTC)))
}

func TestLockPeriodRejectsInvalidPeriodID(t *testing.T) {
	s := New()
	assert.ErrorIs(t, s.LockPeriod("t1", "LE1", "US_GAAP", "bad"), ErrInvalidPeriodID)
}

func TestEnsureOpenFailsAfterLock(t *testing.T) {
	s := New()
	require.NoError(t, s.LockPeriod("t1", "LE1", "US_GAAP", "2026-02"))

	err := s.EnsureOpen("t1", "LE1", "US_GAAP", time.Date(2026, 2, 21, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	closedErr, ok := err.(*PeriodClosedError)
	require.True(t, ok)
	assert.Equal(t, "2026-02", closedErr.PeriodID)
}

func TestEnsureOpenSucceedsForDifferentScope(t *testing.T) {
	s := New()
	require.NoError(t, s.LockPeriod("t1", "LE1", "US_GAAP", "2026-02"))

	assert.NoError(t, s.EnsureOpen("t1", "LE1", "US_GAAP", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.NoError(t, s.EnsureOpen("t1", "LE2", "US_GAAP", time.Date(2026, 2, 21, 0, 0, 0, 0, time.UTC)))
}

func TestLockingAlreadyClosedPeriodIsNoOp(t *testing.T) {
	s := New()
	require.NoError(t, s.LockPeriod("t1", "LE1", "US_GAAP", "2026-02"))
	assert.NoError(t, s.LockPeriod("t1", "LE1", "US_GAAP", "2026-02"))
}

func TestExportSnapshotRestoreRoundTrips(t *testing.T) {
	s := New()
	require.NoError(t, s.LockPeriod("t1", "LE1", "US_GAAP", "2026-02"))

	snap, err := s.ExportSnapshot()
	require.NoError(t, err)

	restored := New()
	require.NoError(t, restored.Restore(snap))

	err = restored.EnsureOpen("t1", "LE1", "US_GAAP", time.Date(2026, 2, 21, 0, 0, 0, 0, time.UTC))
	assert.Error(t, err)
}
