// Package ruleengine derives balanced double-entry journal lines from a
// canonical event type and payload, per the closed account-mapping table.
package ruleengine

import (
	"errors"
	"fmt"

	"ledger-posting-engine/internal/canon"
	"ledger-posting-engine/internal/domain"
)

var (
	ErrUnsupportedEventType   = errors.New("ruleengine: unsupported event type")
	ErrMissingField           = errors.New("ruleengine: missing required field")
	ErrInvalidNumber          = errors.New("ruleengine: invalid or non-positive number")
	ErrInvalidSettlementMath  = errors.New("ruleengine: gross != net + fee")
	ErrInvalidEntrySide       = errors.New("ruleengine: invalid entry_side")
)

// Derive dispatches on eventType and returns the balanced lines the posting
// orchestrator inserts into a JournalRecord. Pure function of its input: no
// I/O, no clock reads.
func Derive(eventType string, payload map[string]any) ([]domain.JournalLine, error) {
	switch eventType {
	case "order.captured.v1":
		return deriveSimple(payload, "1105-CASH-CLEARING", "4000-REVENUE",
			[]string{"/amount_minor", "/amount"})
	case "payment.settled.v1":
		return derivePaymentSettled(payload)
	case "refund.v1":
		return deriveSimple(payload, "4050-REFUNDS", "1105-CASH-CLEARING",
			[]string{"/amount_minor", "/amount"})
	case "fee.assessed.v1":
		return deriveSimple(payload, "6100-PAYMENT-FEES", "1105-CASH-CLEARING",
			[]string{"/fee_amount_minor", "/fee_amount"})
	case "chargeback.created.v1":
		return deriveSimple(payload, "6150-CHARGEBACK-LOSSES", "1105-CASH-CLEARING",
			[]string{"/amount_minor", "/amount"})
	case "payout.cleared.v1":
		return deriveSimple(payload, "1010-BANK-OPERATING", "1105-CASH-CLEARING",
			[]string{"/amount_minor", "/amount"})
	case "dispute.opened.v1":
		return deriveSimple(payload, "1205-DISPUTE-RECEIVABLE", "6150-CHARGEBACK-LOSSES",
			[]string{"/amount_minor", "/amount"})
	case "dispute.won.v1":
		return deriveSimple(payload, "1105-CASH-CLEARING", "1205-DISPUTE-RECEIVABLE",
			[]string{"/amount_minor", "/amount"})
	case "dispute.lost.v1":
		return deriveSimple(payload, "6150-CHARGEBACK-LOSSES", "1205-DISPUTE-RECEIVABLE",
			[]string{"/amount_minor", "/amount"})
	case "inntopia.reservation.captured.v1":
		return deriveSimple(payload, "1105-CASH-CLEARING", "2200-DEFERRED-REVENUE-RESERVATIONS",
			[]string{"/total_amount_minor", "/total_amount"})
	case "intercompany.due_to_due_from.v1":
		return deriveOverridable(payload, "1305-DUE-FROM-AFFILIATES", "2305-DUE-TO-AFFILIATES",
			"/debit_account_id", "/credit_account_id", []string{"/amount_minor", "/amount"})
	case "consolidation.elimination.v1":
		return deriveOverridable(payload, "4999-INTERCOMPANY-ELIMINATION", "5999-INTERCOMPANY-ELIMINATION",
			"/debit_account_id", "/credit_account_id", []string{"/amount_minor", "/amount"})
	case "fx.translation.v1":
		return deriveFXTranslation(payload)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEventType, eventType)
	}
}

func line(num int, account string, side domain.EntrySide, amount int64, currency, baseCurrency string) domain.JournalLine {
	return domain.JournalLine{
		LineNumber:      num,
		AccountID:       account,
		EntrySide:       side,
		AmountMinor:     amount,
		Currency:        currency,
		BaseAmountMinor: amount,
		BaseCurrency:    baseCurrency,
	}
}

func currencyOf(payload map[string]any) string {
	if s, ok := canon.FirstString(payload, "/currency"); ok {
		return s
	}
	return "USD"
}

func requirePositive(payload map[string]any, field string, pointers []string) (int64, error) {
	f, ok := canon.FirstNumeric(payload, pointers...)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingField, field)
	}
	n := int64(f)
	if n <= 0 {
		return 0, fmt.Errorf("%w: %s must be positive", ErrInvalidNumber, field)
	}
	return n, nil
}

func optionalNonNegative(payload map[string]any, pointers []string) (int64, bool) {
	f, ok := canon.FirstNumeric(payload, pointers...)
	if !ok {
		return 0, false
	}
	return int64(f), true
}

func deriveSimple(payload map[string]any, debitAccount, creditAccount string, amountPointers []string) ([]domain.JournalLine, error) {
	amount, err := requirePositive(payload, "amount", amountPointers)
	if err != nil {
		return nil, err
	}
	currency := currencyOf(payload)
	return []domain.JournalLine{
		line(1, debitAccount, domain.Debit, amount, currency, currency),
		line(2, creditAccount, domain.Credit, amount, currency, currency),
	}, nil
}

func deriveOverridable(payload map[string]any, defaultDebit, defaultCredit, debitPointer, creditPointer string, amountPointers []string) ([]domain.JournalLine, error) {
	amount, err := requirePositive(payload, "amount", amountPointers)
	if err != nil {
		return nil, err
	}
	currency := currencyOf(payload)
	debitAccount := defaultDebit
	if s, ok := canon.FirstString(payload, debitPointer); ok {
		debitAccount = s
	}
	creditAccount := defaultCredit
	if s, ok := canon.FirstString(payload, creditPointer); ok {
		creditAccount = s
	}
	return []domain.JournalLine{
		line(1, debitAccount, domain.Debit, amount, currency, currency),
		line(2, creditAccount, domain.Credit, amount, currency, currency),
	}, nil
}

func derivePaymentSettled(payload map[string]any) ([]domain.JournalLine, error) {
	gross, err := requirePositive(payload, "gross", []string{"/gross_amount_minor", "/gross"})
	if err != nil {
		return nil, err
	}
	net, ok := optionalNonNegative(payload, []string{"/net_amount_minor", "/net"})
	if !ok {
		return nil, fmt.Errorf("%w: net", ErrMissingField)
	}
	if net < 0 {
		return nil, fmt.Errorf("%w: net must be >= 0", ErrInvalidNumber)
	}
	fee, _ := optionalNonNegative(payload, []string{"/fee_amount_minor", "/fee"})
	if fee < 0 {
		return nil, fmt.Errorf("%w: fee must be >= 0", ErrInvalidNumber)
	}
	if gross != net+fee {
		return nil, ErrInvalidSettlementMath
	}

	currency := currencyOf(payload)
	lines := make([]domain.JournalLine, 0, 3)
	n := 1
	if net > 0 {
		lines = append(lines, line(n, "1000-CASH", domain.Debit, net, currency, currency))
		n++
	}
	if fee > 0 {
		lines = append(lines, line(n, "6100-PAYMENT-FEES", domain.Debit, fee, currency, currency))
		n++
	}
	lines = append(lines, line(n, "1105-CASH-CLEARING", domain.Credit, gross, currency, currency))
	return lines, nil
}

func derFXAmount(payload map[string]any) (float64, bool) {
	return canon.FirstNumeric(payload, "/translation_amount_minor", "/translation_amount")
}

func deriveFXTranslation(payload map[string]any) ([]domain.JournalLine, error) {
	translation, ok := derFXAmount(payload)
	if !ok {
		return nil, fmt.Errorf("%w: translation_amount", ErrMissingField)
	}
	if translation == 0 {
		return nil, fmt.Errorf("%w: translation_amount must be nonzero", ErrInvalidNumber)
	}
	amount := int64(translation)
	if amount < 0 {
		amount = -amount
	}
	currency := currencyOf(payload)

	if translation > 0 {
		return []domain.JournalLine{
			line(1, "3100-CUMULATIVE-TRANSLATION-ADJUSTMENT", domain.Debit, amount, currency, currency),
			line(2, "7300-FX-TRANSLATION-GAIN-LOSS", domain.Credit, amount, currency, currency),
		}, nil
	}
	return []domain.JournalLine{
		line(1, "7300-FX-TRANSLATION-GAIN-LOSS", domain.Debit, amount, currency, currency),
		line(2, "3100-CUMULATIVE-TRANSLATION-ADJUSTMENT", domain.Credit, amount, currency, currency),
	}, nil
}
