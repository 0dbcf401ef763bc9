// Package domain holds the wire and storage shapes shared across every
// component of the posting engine: canonical events, journal records, and
// the closed vocabularies that gate them.
package domain

import "time"

// CanonicalEvent is the provider-agnostic shape every connector adapter
// normalizes raw provider payloads into.
type CanonicalEvent struct {
	EventID       string               `json:"event_id"`
	EventType     string               `json:"event_type"`
	SchemaVersion string               `json:"schema_version"`
	SourceSystem  string               `json:"source_system"`
	SourceEventID string               `json:"source_event_id"`
	TenantID      string               `json:"tenant_id"`
	LegalEntityID string               `json:"legal_entity_id"`
	Payload       map[string]any       `json:"payload"`
	TraceContext  CanonicalTraceContext `json:"trace_context"`
}

// CanonicalTraceContext carries idempotency and distributed-tracing
// correlation fields resolved during normalization.
type CanonicalTraceContext struct {
	IdempotencyKey string  `json:"idempotency_key"`
	CorrelationID  string  `json:"correlation_id"`
	CausationID    *string `json:"causation_id,omitempty"`
	Traceparent    *string `json:"traceparent,omitempty"`
	Tracestate     *string `json:"tracestate,omitempty"`
}

// RawEvent is the origin-owned, immutable-after-capture envelope a connector
// adapter consumes.
type RawEvent struct {
	SourceEventID string         `json:"source_event_id"`
	OccurredAt    time.Time      `json:"occurred_at"`
	Payload       map[string]any `json:"payload"`
}

// EventTypes is the closed vocabulary the rule engine and posting
// orchestrator validate every PostEventRequest against.
var EventTypes = map[string]bool{
	"order.captured.v1":                  true,
	"payment.settled.v1":                 true,
	"refund.v1":                          true,
	"fee.assessed.v1":                    true,
	"chargeback.created.v1":              true,
	"payout.cleared.v1":                  true,
	"dispute.opened.v1":                  true,
	"dispute.won.v1":                     true,
	"dispute.lost.v1":                    true,
	"inntopia.reservation.captured.v1":   true,
	"intercompany.due_to_due_from.v1":    true,
	"consolidation.elimination.v1":       true,
	"fx.translation.v1":                  true,
}

// IsIntercompany reports whether event_type requires a counterparty legal
// entity (intercompany and consolidation postings cross entity boundaries).
func IsIntercompany(eventType string) bool {
	return eventType == "intercompany.due_to_due_from.v1" || eventType == "consolidation.elimination.v1"
}
