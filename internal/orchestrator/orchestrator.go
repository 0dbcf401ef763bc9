// Package orchestrator sequences the first-seen admission path around a
// single post: idempotency check, validation, rule derivation, journal
// insert, and audit seal emission, with cached replay of the final outcome.
package orchestrator

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ledger-posting-engine/internal/auditseal"
	"ledger-posting-engine/internal/canon"
	"ledger-posting-engine/internal/domain"
	"ledger-posting-engine/internal/idempotency"
	"ledger-posting-engine/internal/journal"
	"ledger-posting-engine/internal/legalhold"
	"ledger-posting-engine/internal/period"
	"ledger-posting-engine/internal/ruleengine"
)

// LineInput is an explicitly-provided journal line, used when the caller
// supplies lines instead of relying on rule-engine derivation.
type LineInput struct {
	AccountID       string
	EntrySide       string // parsed case-insensitively
	AmountMinor     int64
	Currency        string
	BaseAmountMinor *int64
	BaseCurrency    *string
}

// PostEventRequest is the structural input to the ledger.
type PostEventRequest struct {
	EventType                 string
	TenantID                  string
	LegalEntityID              string
	LocationID                 string // optional; "" means absent
	LedgerBook                 string
	AccountingDate              string // YYYY-MM-DD
	SourceEventID               string
	PostingRunID                string
	IdempotencyKey              string
	Payload                     map[string]any
	Lines                       []LineInput // optional explicit lines
	Provenance                  domain.Provenance
	CounterpartyLegalEntityID   string // required for intercompany/consolidation
}

// AdjustJournalRequest is the structural input to /adjust.
type AdjustJournalRequest struct {
	TargetJournalID string
	SourceEventID   string
	ReasonCode      string
	AccountingDate  string
	PostingRunID    string
	TenantID        string
	LegalEntityID   string
	LedgerBook      string
	Lines           []LineInput
}

// PostResult is the success shape returned from a post.
type PostResult struct {
	JournalID string `json:"journal_id"`
	Status    string `json:"status"`
	Replayed  bool   `json:"replayed"`
}

// AdjustResult is the success shape returned from an adjustment.
type AdjustResult struct {
	ReversedJournalID    string          `json:"reversed_journal_id"`
	ReplacementJournalID string          `json:"replacement_journal_id"`
	Status               string          `json:"status"`
	AuditSeal            auditseal.Entry `json:"audit_seal"`
}

// Error is the orchestrator's error taxonomy: an HTTP-status-tagged code,
// matching the wire error schema exactly, with optional structured detail.
type Error struct {
	HTTPStatus int
	Code       string
	Detail     map[string]any
}

func (e *Error) Error() string { return e.Code }

func badRequest(code string, detail map[string]any) *Error {
	return &Error{HTTPStatus: 400, Code: code, Detail: detail}
}

func conflict(code string, detail map[string]any) *Error {
	return &Error{HTTPStatus: 409, Code: code, Detail: detail}
}

// LocationAllowlist reports whether locationID is permitted for
// legalEntityID. A nil func means "anything goes" (no allowlist configured).
type LocationAllowlist func(legalEntityID, locationID string) bool

// CounterpartyValidator reports whether counterpartyLegalEntityID is a
// recognized legal entity distinct from legalEntityID.
type CounterpartyValidator func(legalEntityID, counterpartyLegalEntityID string) bool

// Clock returns the current instant; overridden in tests for determinism.
type Clock func() time.Time

// Orchestrator wires together the stores that gate and record a post.
type Orchestrator struct {
	Idempotency    *idempotency.Store
	ResultCache    *idempotency.ResultCache
	Journals       *journal.Store
	Periods        *period.Store
	LegalHolds     *legalhold.Store
	AuditSeals     *auditseal.Chain
	Locations      LocationAllowlist
	Counterparties CounterpartyValidator
	Now            Clock
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now().UTC()
}

// PostEvent runs the 10-step first-seen admission sequence for req, keyed
// on idempotency key K. Both success and failure outcomes are cached under
// K so replays of the same key reproduce the exact prior verdict.
func (o *Orchestrator) PostEvent(req PostEventRequest) (PostResult, error) {
	if !domain.EventTypes[req.EventType] {
		return PostResult{}, badRequest("unsupported_event_type", nil)
	}
	key := req.IdempotencyKey
	if strings.TrimSpace(key) == "" {
		return PostResult{}, badRequest("missing_idempotency_key", nil)
	}

	outcome, err := o.Idempotency.CheckOrInsert(key, req.Payload)
	if err != nil {
		return PostResult{}, err
	}

	payloadHash, err := canon.Hash(req.Payload)
	if err != nil {
		return PostResult{}, err
	}
	journalID := deterministicJournalID(key, payloadHash)

	switch outcome {
	case idempotency.PayloadHashMismatch:
		return PostResult{}, conflict("idempotency_payload_mismatch", nil)
	case idempotency.Replay:
		if cached, ok := o.ResultCache.Get(key); ok {
			return replayResult(cached)
		}
		return PostResult{JournalID: journalID, Status: "POSTED", Replayed: true}, nil
	}

	result, postErr := o.admitFirstSeen(req, journalID)
	o.cacheOutcome(key, result, postErr)
	return result, postErr
}

func (o *Orchestrator) admitFirstSeen(req PostEventRequest, journalID string) (PostResult, error) {
	accountingDate, err := time.Parse("2006-01-02", req.AccountingDate)
	if err != nil {
		return PostResult{}, badRequest("invalid_accounting_date", nil)
	}

	locationID := resolveLocationID(req)
	if locationID == "" {
		return PostResult{}, badRequest("missing_location_id", nil)
	}
	if o.Locations != nil && !o.Locations(req.LegalEntityID, locationID) {
		return PostResult{}, badRequest("location_not_allowed_for_legal_entity", nil)
	}

	entityScope := []string{req.LegalEntityID}
	if domain.IsIntercompany(req.EventType) {
		counterparty := req.CounterpartyLegalEntityID
		if strings.TrimSpace(counterparty) == "" {
			return PostResult{}, badRequest("missing_counterparty_legal_entity_id", nil)
		}
		if counterparty == req.LegalEntityID {
			return PostResult{}, badRequest("invalid_counterparty_legal_entity", nil)
		}
		if o.Counterparties != nil && !o.Counterparties(req.LegalEntityID, counterparty) {
			return PostResult{}, badRequest("unknown_counterparty_legal_entity", nil)
		}
		entityScope = append(entityScope, counterparty)
	}

	if err := o.LegalHolds.Validate(req.TenantID, req.LegalEntityID, req.LedgerBook, accountingDate); err != nil {
		if holdErr, ok := err.(*legalhold.ActiveHoldError); ok {
			return PostResult{}, conflict("legal_hold_active", map[string]any{
				"hold_id": holdErr.HoldID, "reason": holdErr.Reason, "retention_days": holdErr.RetentionDays,
			})
		}
		return PostResult{}, err
	}

	if err := o.Periods.EnsureOpen(req.TenantID, req.LegalEntityID, req.LedgerBook, accountingDate); err != nil {
		if closedErr, ok := err.(*period.PeriodClosedError); ok {
			return PostResult{}, conflict("period_closed:"+closedErr.PeriodID, nil)
		}
		return PostResult{}, err
	}

	lines, err := resolveLines(req)
	if err != nil {
		return PostResult{}, err
	}

	record := domain.JournalRecord{
		JournalID:               journalID,
		JournalNumber:           "S2-" + journalID[:8],
		EventType:               req.EventType,
		TenantID:                req.TenantID,
		LegalEntityID:           req.LegalEntityID,
		CounterpartyLegalEntity: req.CounterpartyLegalEntityID,
		LocationID:              locationID,
		LedgerBook:              req.LedgerBook,
		AccountingDate:          req.AccountingDate,
		PostingRunID:            req.PostingRunID,
		Provenance:              req.Provenance,
		PostedAt:                o.now(),
		SourceEventIDs:          []string{req.SourceEventID},
		Lines:                   lines,
	}

	if !record.IsBalanced() {
		return PostResult{}, badRequest("journal_unbalanced", nil)
	}
	if err := o.Journals.InsertPosted(record); err != nil {
		switch err {
		case journal.ErrJournalExists:
			return PostResult{}, conflict("journal_exists", nil)
		case journal.ErrUnbalanced:
			return PostResult{}, badRequest("journal_unbalanced", nil)
		default:
			return PostResult{}, err
		}
	}

	_, err = o.AuditSeals.Append("posting.posted", entityScope, map[string]any{
		"event_type":      req.EventType,
		"journal_id":      journalID,
		"tenant_id":       req.TenantID,
		"ledger_book":     req.LedgerBook,
		"source_event_id": req.SourceEventID,
		"location_id":     locationID,
	}, o.now().UnixNano())
	if err != nil {
		return PostResult{}, err
	}

	return PostResult{JournalID: journalID, Status: "POSTED", Replayed: false}, nil
}

func resolveLocationID(req PostEventRequest) string {
	if req.LocationID != "" {
		return req.LocationID
	}
	if s, ok := canon.FirstString(req.Payload,
		"/location_id", "/routing/location_id", "/context/routing/location_id", "/extensions/routing/location_id"); ok {
		return s
	}
	return ""
}

func resolveLines(req PostEventRequest) ([]domain.JournalLine, error) {
	if len(req.Lines) > 0 {
		lines := make([]domain.JournalLine, 0, len(req.Lines))
		for i, in := range req.Lines {
			side, ok := domain.ParseEntrySide(in.EntrySide)
			if !ok {
				return nil, badRequest("invalid_entry_side", nil)
			}
			currency := in.Currency
			baseCurrency := currency
			if in.BaseCurrency != nil {
				baseCurrency = *in.BaseCurrency
			}
			baseAmount := in.AmountMinor
			if in.BaseAmountMinor != nil {
				baseAmount = *in.BaseAmountMinor
			}
			lines = append(lines, domain.JournalLine{
				LineNumber:      i + 1,
				AccountID:       in.AccountID,
				EntrySide:       side,
				AmountMinor:     in.AmountMinor,
				Currency:        currency,
				BaseAmountMinor: baseAmount,
				BaseCurrency:    baseCurrency,
			})
		}
		return lines, nil
	}

	lines, err := ruleengine.Derive(req.EventType, req.Payload)
	if err != nil {
		return nil, badRequest("invalid_rule_derivation:"+err.Error(), nil)
	}
	return lines, nil
}

func (o *Orchestrator) cacheOutcome(key string, result PostResult, err error) {
	if err == nil {
		o.ResultCache.Put(key, idempotency.CachedResult{
			StatusCode: 200,
			Body:       map[string]any{"journal_id": result.JournalID, "status": result.Status, "replayed": result.Replayed},
		})
		return
	}
	if orchErr, ok := err.(*Error); ok {
		body := map[string]any{"error": orchErr.Code}
		for k, v := range orchErr.Detail {
			body[k] = v
		}
		o.ResultCache.Put(key, idempotency.CachedResult{StatusCode: orchErr.HTTPStatus, Body: body})
	}
}

func replayResult(cached idempotency.CachedResult) (PostResult, error) {
	if cached.StatusCode >= 200 && cached.StatusCode < 300 {
		result := PostResult{Replayed: true}
		if v, ok := cached.Body["journal_id"].(string); ok {
			result.JournalID = v
		}
		if v, ok := cached.Body["status"].(string); ok {
			result.Status = v
		}
		return result, nil
	}
	code := ""
	if v, ok := cached.Body["error"].(string); ok {
		code = v
	}
	detail := make(map[string]any, len(cached.Body))
	for k, v := range cached.Body {
		if k != "error" {
			detail[k] = v
		}
	}
	return PostResult{}, &Error{HTTPStatus: cached.StatusCode, Code: code, Detail: detail}
}

// AdjustJournal reverses the target journal and inserts a replacement with
// journal_number "ADJ-…", emitting a journal.adjusted seal.
func (o *Orchestrator) AdjustJournal(req AdjustJournalRequest) (AdjustResult, error) {
	target, ok, err := o.Journals.Get(req.TargetJournalID)
	if err != nil {
		return AdjustResult{}, err
	}
	if !ok {
		return AdjustResult{}, &Error{HTTPStatus: 404, Code: "journal_not_found"}
	}
	if target.TenantID != req.TenantID || target.LegalEntityID != req.LegalEntityID || target.LedgerBook != req.LedgerBook {
		return AdjustResult{}, badRequest("adjustment_scope_mismatch", nil)
	}

	accountingDate, err := time.Parse("2006-01-02", req.AccountingDate)
	if err != nil {
		return AdjustResult{}, badRequest("invalid_accounting_date", nil)
	}
	if err := o.LegalHolds.Validate(req.TenantID, req.LegalEntityID, req.LedgerBook, accountingDate); err != nil {
		if holdErr, ok := err.(*legalhold.ActiveHoldError); ok {
			return AdjustResult{}, conflict("legal_hold_active", map[string]any{
				"hold_id": holdErr.HoldID, "reason": holdErr.Reason, "retention_days": holdErr.RetentionDays,
			})
		}
		return AdjustResult{}, err
	}
	if err := o.Periods.EnsureOpen(req.TenantID, req.LegalEntityID, req.LedgerBook, accountingDate); err != nil {
		if closedErr, ok := err.(*period.PeriodClosedError); ok {
			return AdjustResult{}, conflict("period_closed:"+closedErr.PeriodID, nil)
		}
		return AdjustResult{}, err
	}

	lines, err := resolveLines(PostEventRequest{Lines: req.Lines})
	if err != nil {
		return AdjustResult{}, badRequest("missing_adjustment_lines", nil)
	}
	if probe := (domain.JournalRecord{Lines: lines}); !probe.IsBalanced() {
		return AdjustResult{}, badRequest("journal_unbalanced", nil)
	}

	if err := o.Journals.Reverse(req.TargetJournalID); err != nil {
		switch err {
		case journal.ErrAlreadyReversed:
			return AdjustResult{}, conflict("journal_already_reversed", nil)
		case journal.ErrNotFound:
			return AdjustResult{}, &Error{HTTPStatus: 404, Code: "journal_not_found"}
		default:
			return AdjustResult{}, err
		}
	}

	replacementID := deterministicReplacementID(req.TargetJournalID, req.SourceEventID, req.ReasonCode, req.AccountingDate, lines, req.PostingRunID)
	replacement := domain.JournalRecord{
		JournalID:      replacementID,
		JournalNumber:  "ADJ-" + replacementID[:8],
		EventType:      target.EventType,
		TenantID:       req.TenantID,
		LegalEntityID:  req.LegalEntityID,
		LocationID:     target.LocationID,
		LedgerBook:     req.LedgerBook,
		AccountingDate: req.AccountingDate,
		PostingRunID:   req.PostingRunID,
		Provenance:     target.Provenance,
		PostedAt:       o.now(),
		SourceEventIDs: []string{req.SourceEventID, "adjusts:" + req.TargetJournalID},
		Lines:          lines,
	}
	if !replacement.IsBalanced() {
		return AdjustResult{}, badRequest("journal_unbalanced", nil)
	}
	if err := o.Journals.InsertPosted(replacement); err != nil {
		return AdjustResult{}, err
	}

	entry, err := o.AuditSeals.Append("journal.adjusted", []string{req.LegalEntityID}, map[string]any{
		"reversed_journal_id":   req.TargetJournalID,
		"replacement_journal_id": replacementID,
		"reason_code":           req.ReasonCode,
	}, o.now().UnixNano())
	if err != nil {
		return AdjustResult{}, err
	}

	return AdjustResult{
		ReversedJournalID:    req.TargetJournalID,
		ReplacementJournalID: replacementID,
		Status:               "ADJUSTED",
		AuditSeal:            entry,
	}, nil
}

// deterministicJournalID derives a 128-bit UUID from the idempotency key
// and payload hash: the first 16 bytes of sha256(canonical_json({"value": K+":"+h})).
func deterministicJournalID(key, payloadHash string) string {
	sum := sha256.Sum256(mustCanonical(key + ":" + payloadHash))
	return uuid.Must(uuid.FromBytes(sum[:16])).String()
}

func deterministicReplacementID(targetJournalID, sourceEventID, reasonCode, date string, lines []domain.JournalLine, postingRunID string) string {
	tuple := map[string]any{
		"target_journal_id": targetJournalID,
		"source_event_id":   sourceEventID,
		"reason_code":       reasonCode,
		"date":              date,
		"lines":             lines,
		"posting_run_id":    postingRunID,
	}
	h := canon.MustHash(tuple)
	sum := sha256.Sum256([]byte(h))
	return uuid.Must(uuid.FromBytes(sum[:16])).String()
}

func mustCanonical(value string) []byte {
	b, err := canon.JSON(map[string]any{"value": value})
	if err != nil {
		panic(fmt.Sprintf("orchestrator: canonicalization must not fail: %v", err))
	}
	return b
}
