package adapters

import (
	"strings"

	"ledger-posting-engine/internal/canon"
	"ledger-posting-engine/internal/domain"
)

// StripeAdapter normalizes Stripe charge/refund/payout-settlement events.
type StripeAdapter struct {
	LegalEntityID string
	LocationID    string // optional; Stripe's location_id is not required
}

func (a *StripeAdapter) SourceSystem() string { return "stripe" }

type stripeEventKind int

const (
	stripeChargeCaptured stripeEventKind = iota
	stripeRefund
	stripeSettlement
)

func (k stripeEventKind) eventType() string {
	switch k {
	case stripeRefund:
		return "refund.v1"
	case stripeSettlement:
		return "payment.settled.v1"
	default:
		return "order.captured.v1"
	}
}

func (k stripeEventKind) idempotencySuffix() string {
	switch k {
	case stripeRefund:
		return "refund"
	case stripeSettlement:
		return "settlement"
	default:
		return "charge.captured"
	}
}

func detectStripeEventKind(payload map[string]any) (stripeEventKind, error) {
	kindHint, ok := canon.FirstString(payload,
		"/type", "/event_type", "/entity", "/kind", "/record_type", "/data/type", "/data/object/type")
	if ok {
		normalized := strings.ToLower(kindHint)
		switch {
		case strings.Contains(normalized, "refund"):
			return stripeRefund, nil
		case strings.Contains(normalized, "payout"), strings.Contains(normalized, "balance"), strings.Contains(normalized, "settlement"):
			return stripeSettlement, nil
		case strings.Contains(normalized, "charge"), strings.Contains(normalized, "payment_intent"), strings.Contains(normalized, "payment"):
			return stripeChargeCaptured, nil
		}
	}

	// Structural fallback: look for kind-specific id fields.
	if canon.Has(payload, "/refund_id", "/data/object/refund_id") {
		return stripeRefund, nil
	}
	if canon.Has(payload, "/payout_id", "/data/object/payout_id", "/balance_transaction_id") {
		return stripeSettlement, nil
	}
	if canon.Has(payload, "/charge_id", "/data/object/id", "/payment_intent_id") {
		return stripeChargeCaptured, nil
	}

	return 0, normalizeErr("unsupported stripe event kind")
}

// Normalize implements Adapter.
func (a *StripeAdapter) Normalize(raw domain.RawEvent) (domain.CanonicalEvent, error) {
	kind, err := detectStripeEventKind(raw.Payload)
	if err != nil {
		return domain.CanonicalEvent{}, err
	}

	var event domain.CanonicalEvent
	switch kind {
	case stripeChargeCaptured:
		event, err = a.normalizeCharge(raw)
	case stripeRefund:
		event, err = a.normalizeRefund(raw)
	case stripeSettlement:
		event, err = a.normalizeSettlement(raw)
	}
	if err != nil {
		return domain.CanonicalEvent{}, err
	}

	digest, err := payloadDigest12(event.Payload)
	if err != nil {
		return domain.CanonicalEvent{}, err
	}
	event.EventID = "stripe-" + raw.SourceEventID + "-" + digest
	event.SchemaVersion = "1.0.0"
	event.SourceSystem = "stripe"
	event.SourceEventID = raw.SourceEventID
	event.TraceContext.IdempotencyKey = resolveIdempotencyKey(raw.Payload, "stripe", raw.SourceEventID, kind.idempotencySuffix())
	event.TraceContext.CorrelationID = resolveCorrelationID(raw.Payload, raw.SourceEventID)
	event.TraceContext.CausationID = optionalString(raw.Payload, "/causation_id", "/context/causation_id")
	event.TraceContext.Traceparent = optionalString(raw.Payload, "/traceparent", "/context/traceparent")
	event.TraceContext.Tracestate = optionalString(raw.Payload, "/tracestate", "/context/tracestate")
	return event, nil
}

func (a *StripeAdapter) withRoutingContext(event *domain.CanonicalEvent) {
	event.LegalEntityID = a.LegalEntityID
	event.Payload["legal_entity_id"] = a.LegalEntityID
	routing := map[string]any{"legal_entity_id": a.LegalEntityID}
	if a.LocationID != "" {
		event.Payload["location_id"] = a.LocationID
		routing["location_id"] = a.LocationID
	}
	event.Payload["routing"] = routing
}

func (a *StripeAdapter) normalizeCharge(raw domain.RawEvent) (domain.CanonicalEvent, error) {
	amount, ok := canon.FirstNumeric(raw.Payload, "/amount_minor", "/data/object/amount", "/amount")
	if !ok {
		return domain.CanonicalEvent{}, normalizeErr("missing charge amount")
	}
	if amount == 0 {
		return domain.CanonicalEvent{}, normalizeErr("charge amount must not be zero")
	}
	currency, _ := canon.FirstString(raw.Payload, "/currency", "/data/object/currency")
	if currency == "" {
		currency = "USD"
	}
	businessDate := businessDate(raw)

	payload := map[string]any{
		"amount_minor":              absInt(amount),
		"currency":                  strings.ToUpper(currency),
		"business_date":             businessDate,
		"extensions":                map[string]any{"source_payload": raw.Payload},
	}
	event := domain.CanonicalEvent{EventType: "order.captured.v1", TenantID: tenantID(raw.Payload), Payload: payload}
	a.withRoutingContext(&event)
	return event, nil
}

func (a *StripeAdapter) normalizeRefund(raw domain.RawEvent) (domain.CanonicalEvent, error) {
	amount, ok := canon.FirstNumeric(raw.Payload, "/amount_minor", "/data/object/amount", "/amount")
	if !ok {
		return domain.CanonicalEvent{}, normalizeErr("missing refund amount")
	}
	if amount == 0 {
		return domain.CanonicalEvent{}, normalizeErr("refund amount must not be zero")
	}
	currency, _ := canon.FirstString(raw.Payload, "/currency", "/data/object/currency")
	if currency == "" {
		currency = "USD"
	}
	payload := map[string]any{
		"amount_minor":  absInt(amount),
		"currency":      strings.ToUpper(currency),
		"business_date": businessDate(raw),
		"extensions":    map[string]any{"source_payload": raw.Payload},
	}
	event := domain.CanonicalEvent{EventType: "refund.v1", TenantID: tenantID(raw.Payload), Payload: payload}
	a.withRoutingContext(&event)
	return event, nil
}

func (a *StripeAdapter) normalizeSettlement(raw domain.RawEvent) (domain.CanonicalEvent, error) {
	gross, ok := canon.FirstNumeric(raw.Payload, "/gross_amount_minor", "/gross", "/data/object/gross")
	if !ok {
		return domain.CanonicalEvent{}, normalizeErr("missing settlement gross amount")
	}
	fee, _ := canon.FirstNumeric(raw.Payload, "/fee_amount_minor", "/fee", "/data/object/fee")
	fee = absFloat(fee)
	explicitNet, hasExplicitNet := canon.FirstNumeric(raw.Payload, "/net_amount_minor", "/net", "/data/object/net")
	net := explicitNet
	if !hasExplicitNet {
		net = gross - fee
	}
	if net < 0 {
		return domain.CanonicalEvent{}, normalizeErr("settlement net must not be negative")
	}
	currency, _ := canon.FirstString(raw.Payload, "/currency", "/data/object/currency")
	if currency == "" {
		currency = "USD"
	}
	payload := map[string]any{
		"gross_amount_minor": absInt(gross),
		"fee_amount_minor":   int64(fee),
		"net_amount_minor":   int64(net),
		"currency":           strings.ToUpper(currency),
		"business_date":      businessDate(raw),
		"extensions":         map[string]any{"source_payload": raw.Payload},
	}
	event := domain.CanonicalEvent{EventType: "payment.settled.v1", TenantID: tenantID(raw.Payload), Payload: payload}
	a.withRoutingContext(&event)
	return event, nil
}
