package adapters

import (
	"ledger-posting-engine/internal/canon"
	"ledger-posting-engine/internal/domain"
)

func tenantID(payload map[string]any) string {
	if s, ok := canon.FirstString(payload, "/tenant_id", "/data/object/tenant_id"); ok {
		return s
	}
	return "tenant_1"
}

func businessDate(raw domain.RawEvent) string {
	if s, ok := canon.FirstString(raw.Payload, "/business_date", "/data/object/business_date"); ok {
		return s
	}
	return raw.OccurredAt.UTC().Format("2006-01-02")
}

func optionalString(payload map[string]any, pointers ...string) *string {
	if s, ok := canon.FirstString(payload, pointers...); ok {
		return &s
	}
	return nil
}

// resolveIdempotencyKey discovers an explicit idempotency_key in the
// payload, falling back to "{source}:{source_event_id}:{kind_suffix}".
func resolveIdempotencyKey(payload map[string]any, source, sourceEventID, kindSuffix string) string {
	if s, ok := canon.FirstString(payload, "/idempotency_key", "/context/idempotency_key"); ok {
		return s
	}
	return source + ":" + sourceEventID + ":" + kindSuffix
}

// resolveCorrelationID falls back through a preference order of domain ids
// before finally using source_event_id.
func resolveCorrelationID(payload map[string]any, sourceEventID string) string {
	if s, ok := canon.FirstString(payload,
		"/correlation_id", "/context/correlation_id",
		"/reservation_id", "/order_id", "/payment_id", "/refund_id", "/tender_id", "/payout_id"); ok {
		return s
	}
	return sourceEventID
}

func absInt(f float64) int64 {
	n := int64(f)
	if n < 0 {
		return -n
	}
	return n
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
