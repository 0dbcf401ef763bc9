package legalhold

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertRejectsEndBeforeStart(t *testing.T) {
	s := New()
	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	err := s.Upsert(Rule{HoldID: "h1", TenantID: "t1", LegalEntityID: "LE1", LedgerBook: "US_GAAP", StartDate: start, EndDate: &end})
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestValidateFindsActiveHoldWithinRange(t *testing.T) {
	s := New()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Upsert(Rule{
		HoldID: "h1", TenantID: "t1", LegalEntityID: "LE1", LedgerBook: "US_GAAP",
		StartDate: start, EndDate: &end, Reason: "litigation", RetentionDays: 90,
	}))

	err := s.Validate("t1", "LE1", "US_GAAP", time.Date(2026, 2, 21, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	holdErr, ok := err.(*ActiveHoldError)
	require.True(t, ok)
	assert.Equal(t, "h1", holdErr.HoldID)
	assert.Equal(t, "litigation", holdErr.Reason)
	assert.Equal(t, 90, holdErr.RetentionDays)
}

func TestValidatePassesOutsideDateRange(t *testing.T) {
	s := New()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Upsert(Rule{
		HoldID: "h1", TenantID: "t1", LegalEntityID: "LE1", LedgerBook: "US_GAAP",
		StartDate: start, EndDate: &end, Reason: "litigation", RetentionDays: 90,
	}))

	assert.NoError(t, s.Validate("t1", "LE1", "US_GAAP", time.Date(2026, 2, 21, 0, 0, 0, 0, time.UTC)))
}

func TestValidatePassesForUnrelatedScope(t *testing.T) {
	s := New()
	require.NoError(t, s.Upsert(Rule{
		HoldID: "h1", TenantID: "t1", LegalEntityID: "LE1", LedgerBook: "US_GAAP",
		StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Reason: "litigation", RetentionDays: 90,
	}))

	assert.NoError(t, s.Validate("t1", "LE2", "US_GAAP", time.Date(2026, 2, 21, 0, 0, 0, 0, time.UTC)))
}

func TestUpsertIsLastWriterWinsPerScope(t *testing.T) {
	s := New()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Upsert(Rule{HoldID: "h1", TenantID: "t1", LegalEntityID: "LE1", LedgerBook: "US_GAAP", StartDate: start, Reason: "first", RetentionDays: 30}))
	require.NoError(t, s.Upsert(Rule{HoldID: "h2", TenantID: "t1", LegalEntityID: "LE1", LedgerBook: "US_GAAP", StartDate: start, Reason: "second", RetentionDays: 60}))

	err := s.Validate("t1", "LE1", "US_GAAP", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	holdErr, ok := err.(*ActiveHoldError)
	require.True(t, ok)
	assert.Equal(t, "h2", holdErr.HoldID)
}
