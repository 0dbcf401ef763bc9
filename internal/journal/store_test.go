package journal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger-posting-engine/internal/domain"
)

func balancedRecord(id string) domain.JournalRecord {
	return domain.JournalRecord{
		JournalID: id,
		Lines: []domain.JournalLine{
			{AccountID: "1105-CASH-CLEARING", EntrySide: domain.Debit, AmountMinor: 10_000, BaseAmountMinor: 10_000},
			{AccountID: "4000-REVENUE", EntrySide: domain.Credit, AmountMinor: 10_000, BaseAmountMinor: 10_000},
		},
	}
}

func TestInsertPostedRejectsUnbalancedRecord(t *testing.T) {
	s := New()
	unbalanced := balancedRecord("j1")
	unbalanced.Lines[1].AmountMinor = 9_000

	err := s.InsertPosted(unbalanced)
	assert.ErrorIs(t, err, ErrUnbalanced)
}

func TestInsertPostedRejectsDuplicateJournalID(t *testing.T) {
	s := New()
	require.NoError(t, s.InsertPosted(balancedRecord("j1")))

	err := s.InsertPosted(balancedRecord("j1"))
	assert.ErrorIs(t, err, ErrJournalExists)
}

func TestInsertedRecordIsForcedToPostedStatus(t *testing.T) {
	s := New()
	record := balancedRecord("j1")
	record.Status = domain.Reversed
	require.NoError(t, s.InsertPosted(record))

	got, ok, err := s.Get("j1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.Posted, got.Status)
}

func TestUpdatePostedAlwaysFails(t *testing.T) {
	s := New()
	require.NoError(t, s.InsertPosted(balancedRecord("j1")))
	assert.ErrorIs(t, s.UpdatePosted(balancedRecord("j1")), ErrImmutable)
}

func TestReverseIsNotIdempotent(t *testing.T) {
	s := New()
	require.NoError(t, s.InsertPosted(balancedRecord("j1")))

	require.NoError(t, s.Reverse("j1"))
	err := s.Reverse("j1")
	assert.ErrorIs(t, err, ErrAlreadyReversed)
}

func TestReverseUnknownJournalReturnsNotFound(t *testing.T) {
	s := New()
	assert.ErrorIs(t, s.Reverse("missing"), ErrNotFound)
}

func TestAllReturnsInsertionOrder(t *testing.T) {
	s := New()
	require.NoError(t, s.InsertPosted(balancedRecord("j1")))
	require.NoError(t, s.InsertPosted(balancedRecord("j2")))

	all, err := s.All()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "j1", all[0].JournalID)
	assert.Equal(t, "j2", all[1].JournalID)
}

func TestExportSnapshotRestoreRoundTrips(t *testing.T) {
	s := New()
	require.NoError(t, s.InsertPosted(balancedRecord("j1")))

	snap, err := s.ExportSnapshot()
	require.NoError(t, err)

	restored := New()
	require.NoError(t, restored.Restore(snap))

	got, ok, err := restored.Get("j1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "j1", got.JournalID)
}
