package adapters

import (
	"strings"

	"ledger-posting-engine/internal/canon"
	"ledger-posting-engine/internal/domain"
)

// SquareAdapter normalizes Square sale/refund/tender/payout events. Unlike
// Stripe, Square's location_id is a required routing field.
type SquareAdapter struct {
	LegalEntityID string
	LocationID    string // required; Normalize errors if empty
}

func (a *SquareAdapter) SourceSystem() string { return "square" }

type squareEventKind int

const (
	squareSale squareEventKind = iota
	squareRefund
	squareTender
	squarePayout
)

func (k squareEventKind) eventType() string {
	switch k {
	case squareRefund:
		return "refund.v1"
	case squareTender:
		return "payment.settled.v1"
	case squarePayout:
		return "payout.cleared.v1"
	default:
		return "order.captured.v1"
	}
}

func (k squareEventKind) idempotencySuffix() string {
	switch k {
	case squareRefund:
		return "refund"
	case squareTender:
		return "tender"
	case squarePayout:
		return "payout"
	default:
		return "sale"
	}
}

func detectSquareEventKind(payload map[string]any) (squareEventKind, error) {
	kindHint, ok := canon.FirstString(payload,
		"/entity", "/record_type", "/kind", "/event_type", "/type", "/data/type", "/data/object/type")
	if ok {
		normalized := strings.ToLower(kindHint)
		switch {
		case strings.Contains(normalized, "refund"):
			return squareRefund, nil
		case strings.Contains(normalized, "payout"):
			return squarePayout, nil
		case strings.Contains(normalized, "tender"):
			return squareTender, nil
		case strings.Contains(normalized, "order"), strings.Contains(normalized, "sale"),
			strings.Contains(normalized, "charge"), strings.Contains(normalized, "payment_intent"), strings.Contains(normalized, "payment"):
			return squareSale, nil
		}
	}

	if canon.Has(payload, "/refund_id") {
		return squareRefund, nil
	}
	if canon.Has(payload, "/payout_id") {
		return squarePayout, nil
	}
	if canon.Has(payload, "/tender_id") {
		return squareTender, nil
	}
	if canon.Has(payload, "/order_id", "/sale_id") {
		return squareSale, nil
	}
	return 0, normalizeErr("unsupported square event kind")
}

func (a *SquareAdapter) Normalize(raw domain.RawEvent) (domain.CanonicalEvent, error) {
	if a.LocationID == "" {
		return domain.CanonicalEvent{}, normalizeErr("missing field `location_id`")
	}
	kind, err := detectSquareEventKind(raw.Payload)
	if err != nil {
		return domain.CanonicalEvent{}, err
	}

	var event domain.CanonicalEvent
	switch kind {
	case squareSale:
		event, err = a.normalizeSale(raw)
	case squareRefund:
		event, err = a.normalizeRefund(raw)
	case squareTender:
		event, err = a.normalizeTender(raw)
	case squarePayout:
		event, err = a.normalizePayout(raw)
	}
	if err != nil {
		return domain.CanonicalEvent{}, err
	}

	digest, err := payloadDigest12(event.Payload)
	if err != nil {
		return domain.CanonicalEvent{}, err
	}
	event.EventID = "square-" + raw.SourceEventID + "-" + digest
	event.SchemaVersion = "1.0.0"
	event.SourceSystem = "square"
	event.SourceEventID = raw.SourceEventID
	event.TraceContext.IdempotencyKey = resolveIdempotencyKey(raw.Payload, "square", raw.SourceEventID, kind.idempotencySuffix())
	event.TraceContext.CorrelationID = resolveCorrelationID(raw.Payload, raw.SourceEventID)
	event.TraceContext.CausationID = optionalString(raw.Payload, "/causation_id", "/context/causation_id")
	event.TraceContext.Traceparent = optionalString(raw.Payload, "/traceparent", "/context/traceparent")
	event.TraceContext.Tracestate = optionalString(raw.Payload, "/tracestate", "/context/tracestate")
	return event, nil
}

func (a *SquareAdapter) withRoutingContext(event *domain.CanonicalEvent) {
	event.LegalEntityID = a.LegalEntityID
	event.Payload["legal_entity_id"] = a.LegalEntityID
	event.Payload["location_id"] = a.LocationID
	event.Payload["routing"] = map[string]any{
		"legal_entity_id": a.LegalEntityID,
		"location_id":     a.LocationID,
	}
}

func currencyOrDefault(payload map[string]any, pointers ...string) string {
	if s, ok := canon.FirstString(payload, pointers...); ok {
		return strings.ToUpper(s)
	}
	return "USD"
}

func (a *SquareAdapter) normalizeSale(raw domain.RawEvent) (domain.CanonicalEvent, error) {
	amount, ok := canon.FirstNumeric(raw.Payload, "/amount_minor", "/total_money/amount", "/amount")
	if !ok {
		return domain.CanonicalEvent{}, normalizeErr("missing sale amount")
	}
	if amount == 0 {
		return domain.CanonicalEvent{}, normalizeErr("sale amount must not be zero")
	}
	payload := map[string]any{
		"amount_minor":  absInt(amount),
		"currency":      currencyOrDefault(raw.Payload, "/currency", "/total_money/currency"),
		"business_date": businessDate(raw),
		"extensions":    map[string]any{"source_payload": raw.Payload},
	}
	event := domain.CanonicalEvent{EventType: "order.captured.v1", TenantID: tenantID(raw.Payload), Payload: payload}
	a.withRoutingContext(&event)
	return event, nil
}

func (a *SquareAdapter) normalizeRefund(raw domain.RawEvent) (domain.CanonicalEvent, error) {
	amount, ok := canon.FirstNumeric(raw.Payload, "/amount_minor", "/amount_money/amount", "/amount")
	if !ok {
		return domain.CanonicalEvent{}, normalizeErr("missing refund amount")
	}
	if amount == 0 {
		return domain.CanonicalEvent{}, normalizeErr("refund amount must not be zero")
	}
	payload := map[string]any{
		"amount_minor":  absInt(amount),
		"currency":      currencyOrDefault(raw.Payload, "/currency", "/amount_money/currency"),
		"business_date": businessDate(raw),
		"extensions":    map[string]any{"source_payload": raw.Payload},
	}
	event := domain.CanonicalEvent{EventType: "refund.v1", TenantID: tenantID(raw.Payload), Payload: payload}
	a.withRoutingContext(&event)
	return event, nil
}

func (a *SquareAdapter) normalizeTender(raw domain.RawEvent) (domain.CanonicalEvent, error) {
	gross, ok := canon.FirstNumeric(raw.Payload, "/gross_amount_minor", "/total_money/amount", "/gross")
	if !ok {
		return domain.CanonicalEvent{}, normalizeErr("missing tender gross amount")
	}
	fee, _ := canon.FirstNumeric(raw.Payload, "/fee_amount_minor", "/processing_fee_money/amount", "/fee")
	fee = absFloat(fee)
	explicitNet, hasExplicitNet := canon.FirstNumeric(raw.Payload, "/net_amount_minor", "/net_money/amount", "/net")
	net := explicitNet
	if !hasExplicitNet {
		net = gross - fee
	}
	if net < 0 {
		return domain.CanonicalEvent{}, normalizeErr("tender net must not be negative")
	}
	payload := map[string]any{
		"gross_amount_minor": absInt(gross),
		"fee_amount_minor":   int64(fee),
		"net_amount_minor":   int64(net),
		"currency":           currencyOrDefault(raw.Payload, "/currency", "/total_money/currency"),
		"business_date":      businessDate(raw),
		"extensions":         map[string]any{"source_payload": raw.Payload},
	}
	event := domain.CanonicalEvent{EventType: "payment.settled.v1", TenantID: tenantID(raw.Payload), Payload: payload}
	a.withRoutingContext(&event)
	return event, nil
}

func (a *SquareAdapter) normalizePayout(raw domain.RawEvent) (domain.CanonicalEvent, error) {
	amount, ok := canon.FirstNumeric(raw.Payload, "/amount_minor", "/amount_money/amount", "/amount")
	if !ok {
		return domain.CanonicalEvent{}, normalizeErr("missing payout amount")
	}
	if amount == 0 {
		return domain.CanonicalEvent{}, normalizeErr("payout amount must not be zero")
	}
	payload := map[string]any{
		"amount_minor":  absInt(amount),
		"currency":      currencyOrDefault(raw.Payload, "/currency", "/amount_money/currency"),
		"business_date": businessDate(raw),
		"extensions":    map[string]any{"source_payload": raw.Payload},
	}
	event := domain.CanonicalEvent{EventType: "payout.cleared.v1", TenantID: tenantID(raw.Payload), Payload: payload}
	a.withRoutingContext(&event)
	return event, nil
}
