package ruleengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger-posting-engine/internal/domain"
)

func TestDeriveProducesBalancedLinesForEveryKnownEventType(t *testing.T) {
	payloads := map[string]map[string]any{
		"order.captured.v1":                 {"amount_minor": float64(10_000), "currency": "USD"},
		"payment.settled.v1":                 {"gross": float64(10_000), "fee": float64(250), "net": float64(9_750), "currency": "USD"},
		"refund.v1":                          {"amount_minor": float64(5_000), "currency": "USD"},
		"fee.assessed.v1":                    {"fee_amount_minor": float64(100), "currency": "USD"},
		"chargeback.created.v1":              {"amount_minor": float64(2_000), "currency": "USD"},
		"payout.cleared.v1":                  {"amount_minor": float64(8_000), "currency": "USD"},
		"dispute.opened.v1":                  {"amount_minor": float64(3_000), "currency": "USD"},
		"dispute.won.v1":                     {"amount_minor": float64(3_000), "currency": "USD"},
		"dispute.lost.v1":                    {"amount_minor": float64(3_000), "currency": "USD"},
		"inntopia.reservation.captured.v1":   {"total_amount_minor": float64(20_000), "currency": "USD"},
		"intercompany.due_to_due_from.v1":    {"amount_minor": float64(1_000), "currency": "USD"},
		"consolidation.elimination.v1":       {"amount_minor": float64(1_000), "currency": "USD"},
		"fx.translation.v1":                  {"translation_amount_minor": float64(-400), "currency": "USD"},
	}
	require.Len(t, payloads, len(domain.EventTypes), "every closed-vocabulary event type must have a fixture")

	for eventType, payload := range payloads {
		t.Run(eventType, func(t *testing.T) {
			lines, err := Derive(eventType, payload)
			require.NoError(t, err)
			require.NotEmpty(t, lines)

			record := domain.JournalRecord{Lines: lines}
			assert.True(t, record.IsBalanced(), "derived lines for %s must balance", eventType)
		})
	}
}

func TestDeriveRejectsUnknownEventType(t *testing.T) {
	_, err := Derive("not.a.real.event", map[string]any{})
	assert.ErrorIs(t, err, ErrUnsupportedEventType)
}

func TestDeriveRejectsZeroAmount(t *testing.T) {
	_, err := Derive("order.captured.v1", map[string]any{"amount_minor": float64(0), "currency": "USD"})
	assert.ErrorIs(t, err, ErrInvalidNumber)
}

func TestDerivePaymentSettledProducesSplitLinesMatchingSettlementMath(t *testing.T) {
	lines, err := Derive("payment.settled.v1", map[string]any{
		"gross": float64(10_000), "fee": float64(250), "net": float64(9_750), "currency": "USD",
	})
	require.NoError(t, err)
	require.Len(t, lines, 3)

	assert.Equal(t, "1000-CASH", lines[0].AccountID)
	assert.Equal(t, domain.Debit, lines[0].EntrySide)
	assert.EqualValues(t, 9_750, lines[0].AmountMinor)

	assert.Equal(t, "6100-PAYMENT-FEES", lines[1].AccountID)
	assert.Equal(t, domain.Debit, lines[1].EntrySide)
	assert.EqualValues(t, 250, lines[1].AmountMinor)

	assert.Equal(t, "1105-CASH-CLEARING", lines[2].AccountID)
	assert.Equal(t, domain.Credit, lines[2].EntrySide)
	assert.EqualValues(t, 10_000, lines[2].AmountMinor)
}

func TestDerivePaymentSettledRejectsInvalidSettlementMath(t *testing.T) {
	_, err := Derive("payment.settled.v1", map[string]any{
		"gross": float64(10_000), "fee": float64(250), "net": float64(9_000), "currency": "USD",
	})
	assert.ErrorIs(t, err, ErrInvalidSettlementMath)
}

func TestDeriveIntercompanyAllowsAccountOverride(t *testing.T) {
	lines, err := Derive("intercompany.due_to_due_from.v1", map[string]any{
		"amount_minor":      float64(1_000),
		"currency":          "USD",
		"debit_account_id":  "1399-DUE-FROM-CUSTOM",
		"credit_account_id": "2399-DUE-TO-CUSTOM",
	})
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "1399-DUE-FROM-CUSTOM", lines[0].AccountID)
	assert.Equal(t, "2399-DUE-TO-CUSTOM", lines[1].AccountID)
}

func TestDeriveFXTranslationSwitchesSidesOnSign(t *testing.T) {
	gain, err := Derive("fx.translation.v1", map[string]any{"translation_amount_minor": float64(500), "currency": "USD"})
	require.NoError(t, err)
	assert.Equal(t, domain.Debit, gain[0].EntrySide)
	assert.Equal(t, domain.Credit, gain[1].EntrySide)

	loss, err := Derive("fx.translation.v1", map[string]any{"translation_amount_minor": float64(-500), "currency": "USD"})
	require.NoError(t, err)
	assert.Equal(t, domain.Debit, loss[0].EntrySide)
	assert.Equal(t, "7300-FX-TRANSLATION-GAIN-LOSS", loss[0].AccountID)
}
