package httpapi

import (
	"time"

	"github.com/google/uuid"

	"ledger-posting-engine/internal/domain"
	"ledger-posting-engine/internal/legalhold"
	"ledger-posting-engine/internal/orchestrator"
)

// postEventWireRequest mirrors the reference order_payload(amount) shape:
// a canonical-event envelope plus the dynamic payload and provenance.
type postEventWireRequest struct {
	EventType                 string         `json:"event_type"`
	TenantID                  string         `json:"tenant_id"`
	LegalEntityID             string         `json:"legal_entity_id"`
	LocationID                string         `json:"location_id"`
	LedgerBook                string         `json:"ledger_book"`
	AccountingDate            string         `json:"accounting_date"`
	SourceEventID             string         `json:"source_event_id"`
	PostingRunID              string         `json:"posting_run_id"`
	CounterpartyLegalEntityID string         `json:"counterparty_legal_entity_id,omitempty"`
	Payload                   map[string]any `json:"payload"`
	Provenance                wireProvenance `json:"provenance"`
	Lines                     []wireLine     `json:"lines,omitempty"`
}

type wireProvenance struct {
	BookPolicyID   string `json:"book_policy_id"`
	PolicyVersion  string `json:"policy_version"`
	FXRateSetID    string `json:"fx_rate_set_id"`
	RulesetVersion string `json:"ruleset_version"`
	WorkflowID     string `json:"workflow_id,omitempty"`
}

type wireLine struct {
	AccountID       string  `json:"account_id"`
	EntrySide       string  `json:"entry_side"`
	AmountMinor     int64   `json:"amount_minor"`
	Currency        string  `json:"currency"`
	BaseAmountMinor *int64  `json:"base_amount_minor,omitempty"`
	BaseCurrency    *string `json:"base_currency,omitempty"`
}

func (w wireLine) toDomain() orchestrator.LineInput {
	return orchestrator.LineInput{
		AccountID:       w.AccountID,
		EntrySide:       w.EntrySide,
		AmountMinor:     w.AmountMinor,
		Currency:        w.Currency,
		BaseAmountMinor: w.BaseAmountMinor,
		BaseCurrency:    w.BaseCurrency,
	}
}

func toDomainLines(lines []wireLine) []orchestrator.LineInput {
	if len(lines) == 0 {
		return nil
	}
	out := make([]orchestrator.LineInput, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.toDomain())
	}
	return out
}

func (req postEventWireRequest) toDomain(idempotencyKey string) orchestrator.PostEventRequest {
	var workflowID *string
	if req.Provenance.WorkflowID != "" {
		workflowID = &req.Provenance.WorkflowID
	}
	return orchestrator.PostEventRequest{
		EventType:      req.EventType,
		TenantID:       req.TenantID,
		LegalEntityID:  req.LegalEntityID,
		LocationID:     req.LocationID,
		LedgerBook:     req.LedgerBook,
		AccountingDate: req.AccountingDate,
		SourceEventID:  req.SourceEventID,
		PostingRunID:   req.PostingRunID,
		IdempotencyKey: idempotencyKey,
		Payload:        req.Payload,
		Lines:          toDomainLines(req.Lines),
		Provenance: domain.Provenance{
			BookPolicyID:   req.Provenance.BookPolicyID,
			PolicyVersion:  req.Provenance.PolicyVersion,
			FXRateSetID:    req.Provenance.FXRateSetID,
			RulesetVersion: req.Provenance.RulesetVersion,
			WorkflowID:     workflowID,
		},
		CounterpartyLegalEntityID: req.CounterpartyLegalEntityID,
	}
}

type adjustJournalWireRequest struct {
	SourceEventID  string     `json:"source_event_id"`
	ReasonCode     string     `json:"reason_code"`
	AccountingDate string     `json:"accounting_date"`
	PostingRunID   string     `json:"posting_run_id"`
	TenantID       string     `json:"tenant_id"`
	LegalEntityID  string     `json:"legal_entity_id"`
	LedgerBook     string     `json:"ledger_book"`
	Lines          []wireLine `json:"lines"`
}

func (req adjustJournalWireRequest) toDomain(targetJournalID string) orchestrator.AdjustJournalRequest {
	return orchestrator.AdjustJournalRequest{
		TargetJournalID: targetJournalID,
		SourceEventID:   req.SourceEventID,
		ReasonCode:      req.ReasonCode,
		AccountingDate:  req.AccountingDate,
		PostingRunID:    req.PostingRunID,
		TenantID:        req.TenantID,
		LegalEntityID:   req.LegalEntityID,
		LedgerBook:      req.LedgerBook,
		Lines:           toDomainLines(req.Lines),
	}
}

type upsertLegalHoldWireRequest struct {
	HoldID        string  `json:"hold_id"`
	TenantID      string  `json:"tenant_id"`
	LegalEntityID string  `json:"legal_entity_id"`
	LedgerBook    string  `json:"ledger_book"`
	StartDate     string  `json:"start_date"`
	EndDate       *string `json:"end_date,omitempty"`
	Reason        string  `json:"reason"`
	RetentionDays int     `json:"retention_days"`
}

// toDomain parses dates and generates a hold_id when absent, returning a
// wire error code on the first validation failure.
func (req upsertLegalHoldWireRequest) toDomain() (legalhold.Rule, string) {
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return legalhold.Rule{}, "invalid_start_date"
	}

	var end *time.Time
	if req.EndDate != nil && *req.EndDate != "" {
		e, err := time.Parse("2006-01-02", *req.EndDate)
		if err != nil {
			return legalhold.Rule{}, "invalid_end_date"
		}
		end = &e
	}

	holdID := req.HoldID
	if holdID == "" {
		holdID = uuid.New().String()
	}

	return legalhold.Rule{
		HoldID:        holdID,
		TenantID:      req.TenantID,
		LegalEntityID: req.LegalEntityID,
		LedgerBook:    req.LedgerBook,
		StartDate:     start,
		EndDate:       end,
		Reason:        req.Reason,
		RetentionDays: req.RetentionDays,
	}, ""
}
