// Package revrec is the revenue-recognition read-side: a rollforward and
// disclosure view computed by scanning posted journals for a ledger book.
package revrec

import (
	"sort"
	"strings"

	"ledger-posting-engine/internal/domain"
)

const (
	accountRevenue = "4000-REVENUE"
	accountRefunds = "4050-REFUNDS"
	deferredMarker = "DEFERRED"
)

// Rollforward summarizes recognized and deferred revenue movement for one
// ledger book across all posted journals (reversed journals excluded).
type Rollforward struct {
	LedgerBook                  string
	RecognizedRevenueMinor      int64
	DeferredRevenueEndingMinor  int64
}

// Disclosure aggregates contra-revenue and the provenance identifiers in
// force across a ledger book's posted journals.
type Disclosure struct {
	LedgerBook                string
	RefundContraRevenueMinor  int64
	PolicyVersions            []string
	FXRateSets                []string
}

// signed applies the ledger sign convention: a credit increases the
// balance, a debit decreases it.
func signed(side domain.EntrySide, amountMinor int64) int64 {
	if side == domain.Credit {
		return amountMinor
	}
	return -amountMinor
}

// ComputeRollforward scans every Posted journal in ledgerBook and
// accumulates recognized and deferred revenue movement.
func ComputeRollforward(journals []domain.JournalRecord, ledgerBook string) Rollforward {
	result := Rollforward{LedgerBook: ledgerBook}
	for _, j := range journals {
		if j.LedgerBook != ledgerBook || j.Status != domain.Posted {
			continue
		}
		for _, line := range j.Lines {
			delta := signed(line.EntrySide, line.AmountMinor)
			if line.AccountID == accountRevenue {
				result.RecognizedRevenueMinor += delta
			}
			if strings.Contains(line.AccountID, deferredMarker) {
				result.DeferredRevenueEndingMinor += delta
			}
		}
	}
	return result
}

// ComputeDisclosure scans every Posted journal in ledgerBook and
// accumulates refund contra-revenue plus the distinct provenance
// identifiers recorded on those journals' headers.
func ComputeDisclosure(journals []domain.JournalRecord, ledgerBook string) Disclosure {
	result := Disclosure{LedgerBook: ledgerBook}
	policyVersions := make(map[string]struct{})
	fxRateSets := make(map[string]struct{})

	for _, j := range journals {
		if j.LedgerBook != ledgerBook || j.Status != domain.Posted {
			continue
		}
		for _, line := range j.Lines {
			if line.AccountID == accountRefunds {
				result.RefundContraRevenueMinor += signed(line.EntrySide, line.AmountMinor)
			}
		}
		if j.Provenance.PolicyVersion != "" {
			policyVersions[j.Provenance.PolicyVersion] = struct{}{}
		}
		if j.Provenance.FXRateSetID != "" {
			fxRateSets[j.Provenance.FXRateSetID] = struct{}{}
		}
	}

	result.PolicyVersions = sortedKeys(policyVersions)
	result.FXRateSets = sortedKeys(fxRateSets)
	return result
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
