package adapters

import (
	"ledger-posting-engine/internal/canon"
	"ledger-posting-engine/internal/domain"
)

// InntopiaAdapter normalizes reservation-capture events from the Inntopia
// reservations source. Simpler than Stripe/Square: core identity fields are
// read by direct key lookup rather than pointer-candidate resolution.
type InntopiaAdapter struct {
	LegalEntityID string
	LocationID    string
}

func (a *InntopiaAdapter) SourceSystem() string { return "inntopia" }

func (a *InntopiaAdapter) Normalize(raw domain.RawEvent) (domain.CanonicalEvent, error) {
	reservationID, ok := raw.Payload["reservation_id"].(string)
	if !ok || reservationID == "" {
		return domain.CanonicalEvent{}, normalizeErr("missing field `reservation_id`")
	}
	tenant, ok := raw.Payload["tenant_id"].(string)
	if !ok || tenant == "" {
		return domain.CanonicalEvent{}, normalizeErr("missing field `tenant_id`")
	}
	legalEntity, ok := raw.Payload["legal_entity_id"].(string)
	if !ok || legalEntity == "" {
		legalEntity = a.LegalEntityID
	}
	if legalEntity == "" {
		return domain.CanonicalEvent{}, normalizeErr("missing field `legal_entity_id`")
	}

	amount, ok := canon.FirstNumeric(raw.Payload, "/total_amount_minor", "/total_amount")
	if !ok {
		return domain.CanonicalEvent{}, normalizeErr("missing field `total_amount`")
	}
	if amount == 0 {
		return domain.CanonicalEvent{}, normalizeErr("total_amount must not be zero")
	}
	currency := currencyOrDefault(raw.Payload, "/currency")
	status, _ := canon.FirstString(raw.Payload, "/reservation_status", "/status")
	businessDate := businessDate(raw)
	arrival, _ := canon.FirstString(raw.Payload, "/arrival_date")
	departure, _ := canon.FirstString(raw.Payload, "/departure_date")

	payload := map[string]any{
		"reservation_id":     reservationID,
		"reservation_status": status,
		"business_date":      businessDate,
		"currency":           currency,
		"total_amount_minor": absInt(amount),
		"arrival_date":       arrival,
		"departure_date":     departure,
		"legal_entity_id":    legalEntity,
		"extensions":         map[string]any{"source_payload": raw.Payload},
	}
	if a.LocationID != "" {
		payload["location_id"] = a.LocationID
		payload["routing"] = map[string]any{"legal_entity_id": legalEntity, "location_id": a.LocationID}
	} else {
		payload["routing"] = map[string]any{"legal_entity_id": legalEntity}
	}

	digest, err := payloadDigest12(payload)
	if err != nil {
		return domain.CanonicalEvent{}, err
	}

	defaultIdemKey := "inntopia:" + raw.SourceEventID + ":reservation.captured"
	idemKey := defaultIdemKey
	if s, ok := canon.FirstString(raw.Payload, "/idempotency_key"); ok {
		idemKey = s
	}
	correlation := reservationID
	if s, ok := canon.FirstString(raw.Payload, "/correlation_id"); ok {
		correlation = s
	}

	return domain.CanonicalEvent{
		EventID:       "inntopia-" + raw.SourceEventID + "-" + digest,
		EventType:     "inntopia.reservation.captured.v1",
		SchemaVersion: "1.0.0",
		SourceSystem:  "inntopia",
		SourceEventID: raw.SourceEventID,
		TenantID:      tenant,
		LegalEntityID: legalEntity,
		Payload:       payload,
		TraceContext: domain.CanonicalTraceContext{
			IdempotencyKey: idemKey,
			CorrelationID:  correlation,
			Traceparent:    optionalString(raw.Payload, "/traceparent"),
			Tracestate:     optionalString(raw.Payload, "/tracestate"),
		},
	}, nil
}
