package domain

import (
	"strings"
	"time"
)

// EntrySide is the debit/credit tag on a JournalLine.
type EntrySide string

const (
	Debit  EntrySide = "DEBIT"
	Credit EntrySide = "CREDIT"
)

// ParseEntrySide accepts the side case-insensitively, as required when the
// posting orchestrator accepts explicitly provided lines instead of deriving
// them through the rule engine.
func ParseEntrySide(s string) (EntrySide, bool) {
	switch strings.ToUpper(s) {
	case "DEBIT":
		return Debit, true
	case "CREDIT":
		return Credit, true
	default:
		return "", false
	}
}

// JournalStatus is the two-state lifecycle of a JournalRecord.
type JournalStatus string

const (
	Posted   JournalStatus = "POSTED"
	Reversed JournalStatus = "REVERSED"
)

// JournalLine is one balanced debit or credit leg of a JournalRecord.
type JournalLine struct {
	LineNumber      int       `json:"line_number"`
	AccountID       string    `json:"account_id"`
	EntrySide       EntrySide `json:"entry_side"`
	AmountMinor     int64     `json:"amount_minor"`
	Currency        string    `json:"currency"`
	BaseAmountMinor int64     `json:"base_amount_minor"`
	BaseCurrency    string    `json:"base_currency"`
}

// Provenance records the policy/ruleset lineage a post was derived under.
type Provenance struct {
	BookPolicyID  string  `json:"book_policy_id"`
	PolicyVersion string  `json:"policy_version"`
	FXRateSetID   string  `json:"fx_rate_set_id"`
	RulesetVersion string `json:"ruleset_version"`
	WorkflowID    *string `json:"workflow_id,omitempty"`
}

// JournalRecord is the immutable (save for Status) append-only ledger entry.
type JournalRecord struct {
	JournalID               string        `json:"journal_id"`
	JournalNumber           string        `json:"journal_number"`
	Status                  JournalStatus `json:"status"`
	EventType               string        `json:"event_type"`
	TenantID                string        `json:"tenant_id"`
	LegalEntityID           string        `json:"legal_entity_id"`
	CounterpartyLegalEntity string        `json:"counterparty_legal_entity_id,omitempty"`
	LocationID              string        `json:"location_id"`
	LedgerBook              string        `json:"ledger_book"`
	AccountingDate          string        `json:"accounting_date"`
	PostingRunID            string        `json:"posting_run_id"`
	Provenance              Provenance    `json:"provenance"`
	PostedAt                time.Time     `json:"posted_at"`
	SourceEventIDs          []string      `json:"source_event_ids"`
	Lines                   []JournalLine `json:"lines"`
}

// IsBalanced checks the strict double-entry invariant on both the
// transaction-currency and base-currency axes.
func (j *JournalRecord) IsBalanced() bool {
	var debitAmount, creditAmount, debitBase, creditBase int64
	for _, line := range j.Lines {
		switch line.EntrySide {
		case Debit:
			debitAmount += line.AmountMinor
			debitBase += line.BaseAmountMinor
		case Credit:
			creditAmount += line.AmountMinor
			creditBase += line.BaseAmountMinor
		}
	}
	return debitAmount == creditAmount && debitBase == creditBase
}
