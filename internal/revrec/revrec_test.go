package revrec

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ledger-posting-engine/internal/domain"
)

func journal(ledgerBook string, status domain.JournalStatus, lines []domain.JournalLine, prov domain.Provenance) domain.JournalRecord {
	return domain.JournalRecord{
		LedgerBook: ledgerBook,
		Status:     status,
		Lines:      lines,
		Provenance: prov,
	}
}

func TestComputeRollforwardRecognizesRevenueAndDeferred(t *testing.T) {
	journals := []domain.JournalRecord{
		journal("book-1", domain.Posted, []domain.JournalLine{
			{AccountID: "1105-CASH-CLEARING", EntrySide: domain.Debit, AmountMinor: 10_000},
			{AccountID: "4000-REVENUE", EntrySide: domain.Credit, AmountMinor: 10_000},
		}, domain.Provenance{}),
		journal("book-1", domain.Posted, []domain.JournalLine{
			{AccountID: "1105-CASH-CLEARING", EntrySide: domain.Debit, AmountMinor: 5_000},
			{AccountID: "2200-DEFERRED-REVENUE-RESERVATIONS", EntrySide: domain.Credit, AmountMinor: 5_000},
		}, domain.Provenance{}),
		// Different book must not contribute.
		journal("book-2", domain.Posted, []domain.JournalLine{
			{AccountID: "4000-REVENUE", EntrySide: domain.Credit, AmountMinor: 999},
		}, domain.Provenance{}),
		// Reversed journal must not contribute.
		journal("book-1", domain.Reversed, []domain.JournalLine{
			{AccountID: "4000-REVENUE", EntrySide: domain.Credit, AmountMinor: 1},
		}, domain.Provenance{}),
	}

	result := ComputeRollforward(journals, "book-1")
	assert.EqualValues(t, 10_000, result.RecognizedRevenueMinor)
	assert.EqualValues(t, 5_000, result.DeferredRevenueEndingMinor)
}

func TestComputeDisclosureAggregatesRefundsAndProvenance(t *testing.T) {
	journals := []domain.JournalRecord{
		journal("book-1", domain.Posted, []domain.JournalLine{
			{AccountID: "4050-REFUNDS", EntrySide: domain.Debit, AmountMinor: 1_200},
			{AccountID: "1105-CASH-CLEARING", EntrySide: domain.Credit, AmountMinor: 1_200},
		}, domain.Provenance{PolicyVersion: "v2", FXRateSetID: "fx-2026-02"}),
		journal("book-1", domain.Posted, []domain.JournalLine{
			{AccountID: "4050-REFUNDS", EntrySide: domain.Debit, AmountMinor: 300},
			{AccountID: "1105-CASH-CLEARING", EntrySide: domain.Credit, AmountMinor: 300},
		}, domain.Provenance{PolicyVersion: "v1", FXRateSetID: "fx-2026-01"}),
	}

	result := ComputeDisclosure(journals, "book-1")
	assert.EqualValues(t, -1_500, result.RefundContraRevenueMinor)
	assert.Equal(t, []string{"v1", "v2"}, result.PolicyVersions)
	assert.Equal(t, []string{"fx-2026-01", "fx-2026-02"}, result.FXRateSets)
}
