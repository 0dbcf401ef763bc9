package recon

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedTs(t *testing.T) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, "2026-02-21T00:00:00Z")
	require.NoError(t, err)
	return ts
}

func sampleException(exceptionType, severity string) Exception {
	return Exception{
		ExceptionID:   "e1",
		ExceptionType: exceptionType,
		Severity:      severity,
		Owner:         "recon_ops",
	}
}

func TestOwnerIsRequired(t *testing.T) {
	ex := sampleException("AMOUNT_MISMATCH", "HIGH")
	ex.Owner = " "
	err := ValidateException(ex)
	assert.Equal(t, ErrMissingOwner, err)
}

func TestDuplicateOutcomeTakesPrecedenceOverExceptionType(t *testing.T) {
	ex := sampleException("AMOUNT_MISMATCH", "LOW")
	route := RouteException(ex, Duplicate)
	assert.Equal(t, ReasonDuplicateCandidate, route.ReasonCode)
	assert.Equal(t, "DATA_QUALITY", route.OwnerQueue)
}

func TestRoutesCaseInsensitiveBankReferenceExceptions(t *testing.T) {
	ex := sampleException("bank reference missing", "MEDIUM")
	route := RouteException(ex, Unmatched)
	assert.Equal(t, ReasonMissingBankReference, route.ReasonCode)
	assert.Equal(t, "TREASURY_OPS", route.OwnerQueue)
}

func TestHighRiskInvestigateRoutesToRiskControl(t *testing.T) {
	ex := sampleException("investigate_manual", "CRITICAL")
	route := RouteException(ex, Investigate)
	assert.Equal(t, ReasonHighRiskInvestigate, route.ReasonCode)
	assert.Equal(t, "RISK_CONTROL", route.OwnerQueue)
}

func TestToleranceMatchRoutesToAutoClearReview(t *testing.T) {
	ex := sampleException("amount mismatch", "LOW")
	route := RouteException(ex, MatchedTolerance)
	assert.Equal(t, ReasonToleranceMatchReview, route.ReasonCode)
	assert.Equal(t, "AUTO_CLEAR_REVIEW", route.OwnerQueue)
}

func TestUnknownRouteDefaultsToReconAnalyst(t *testing.T) {
	ex := sampleException("vendor_note", "LOW")
	route := RouteException(ex, Unmatched)
	assert.Equal(t, ReasonUnclassified, route.ReasonCode)
	assert.Equal(t, "RECON_ANALYST", route.OwnerQueue)
}

func seededFixture(t *testing.T) RunInput {
	t.Helper()
	runStartedAt := fixedTs(t)
	order := func(orderID, paymentID, payoutID, currency string, amount int64) Order {
		return Order{OrderID: orderID, PaymentID: paymentID, PayoutID: payoutID, Currency: currency, AmountMinor: amount, CapturedAt: runStartedAt}
	}
	payment := func(paymentID, orderID, payoutID, currency string, amount int64) Payment {
		return Payment{PaymentID: paymentID, OrderID: orderID, PayoutID: payoutID, Currency: currency, AmountMinor: amount, SettledAt: runStartedAt}
	}
	payout := func(payoutID, paymentID, bankRef, currency string, amount int64) Payout {
		return Payout{PayoutID: payoutID, PaymentID: paymentID, BankReference: bankRef, Currency: currency, AmountMinor: amount, SettledAt: runStartedAt}
	}

	return RunInput{
		RunID:          "sprint3_fixture",
		RunStartedAt:   runStartedAt,
		ToleranceMinor: defaultMatchToleranceMinor,
		Orders: []Order{
			order("O-001", "P-001", "PO-001", "USD", 10_000),
			order("O-002", "P-002", "PO-002", "USD", 2_500),
			order("O-003", "P-003", "PO-003", "USD", 3_000),
			order("O-004", "P-004", "PO-004", "USD", 1_500),
			order("O-005", "P-005", "PO-005", "USD", 6_000),
			order("O-006", "P-006", "PO-006", "USD", 4_200),
			order("O-007", "P-007", "PO-007", "USD", 3_300),
			order("O-008", "P-008", "PO-008", "USD", 2_000),
			order("O-009", "P-009", "PO-009", "USD", 5_000),
			order("O-010", "P-010", "PO-010", "USD", 7_500),
			order("O-011", "P-011", "PO-011", "USD", 9_000),
		},
		Payments: []Payment{
			payment("P-001", "O-001", "PO-001", "USD", 10_000),
			payment("P-002", "O-002", "PO-002", "USD", 2_500),
			payment("P-003", "O-003", "PO-003", "USD", 3_000),
			payment("P-004", "O-004", "PO-004", "USD", 1_500),
			payment("P-005", "O-005", "PO-005", "USD", 6_000),
			payment("P-006", "O-006", "PO-006", "USD", 4_200),
			payment("P-007", "O-007", "PO-007", "USD", 3_300),
			payment("P-008", "O-008", "PO-008", "USD", 2_080),
			payment("P-009", "O-009", "PO-009", "CAD", 5_000),
			payment("P-010", "O-010", "PO-010", "USD", 7_500),
			payment("P-011", "O-011", "PO-011", "USD", 9_000),
			payment("P-011", "O-011", "PO-011", "USD", 9_000),
		},
		Payouts: []Payout{
			payout("PO-001", "P-001", "BANK-001", "USD", 10_000),
			payout("PO-002", "P-002", "BANK-002", "USD", 2_500),
			payout("PO-003", "P-003", "BANK-003", "USD", 3_000),
			payout("PO-004", "P-004", "BANK-004", "USD", 1_500),
			payout("PO-005", "P-005", "BANK-005", "USD", 6_000),
			payout("PO-006", "P-006", "BANK-006", "USD", 4_200),
			payout("PO-007", "P-007", "BANK-007", "USD", 3_300),
			payout("PO-008", "P-008", "BANK-008", "USD", 2_080),
			payout("PO-009", "P-009", "BANK-009", "CAD", 5_000),
			payout("PO-011", "P-011", "BANK-011", "USD", 9_000),
		},
	}
}

func TestReconcileV1IsDeterministicForSeededFixture(t *testing.T) {
	fixture := seededFixture(t)
	first := ReconcileV1(fixture)
	second := ReconcileV1(fixture)
	assert.Equal(t, first, second)
}

func TestReconcileV1RoutesSeededMismatchesToExceptionQueue(t *testing.T) {
	fixture := seededFixture(t)
	result := ReconcileV1(fixture)

	require.Len(t, result.ExceptionQueue, 3)
	assert.EqualValues(t, 10_000, result.Metrics.RoutedExceptionRateBps)

	byOrder := make(map[string]ExceptionQueueItem)
	for _, item := range result.ExceptionQueue {
		byOrder[item.OrderID] = item
	}

	currency, ok := byOrder["O-009"]
	require.True(t, ok)
	assert.Equal(t, ReasonCurrencyMismatch, currency.ReasonCode)
	assert.Equal(t, "PAYMENTS_OPS", currency.OwnerQueue)
	assert.Equal(t, fixture.RunStartedAt.Add(4*time.Hour), currency.SLADueAt)

	missingPayout, ok := byOrder["O-010"]
	require.True(t, ok)
	assert.Equal(t, ReasonMissingBankReference, missingPayout.ReasonCode)
	assert.Equal(t, "TREASURY_OPS", missingPayout.OwnerQueue)
	assert.Equal(t, fixture.RunStartedAt.Add(8*time.Hour), missingPayout.SLADueAt)

	duplicate, ok := byOrder["O-011"]
	require.True(t, ok)
	assert.Equal(t, ReasonDuplicateCandidate, duplicate.ReasonCode)
	assert.Equal(t, "DATA_QUALITY", duplicate.OwnerQueue)
	assert.Equal(t, fixture.RunStartedAt.Add(24*time.Hour), duplicate.SLADueAt)
}

func TestReconcileV1FixtureAutoMatchRateMeetsGate(t *testing.T) {
	fixture := seededFixture(t)
	result := ReconcileV1(fixture)

	assert.EqualValues(t, 11, result.Metrics.TotalCandidates)
	assert.EqualValues(t, 8, result.Metrics.AutoMatched)
	assert.GreaterOrEqual(t, result.Metrics.AutoMatchRatePercent(), 70.0)
}
