// Package adapters normalizes provider-specific raw events (Stripe, Square,
// Inntopia) into domain.CanonicalEvent. Each adapter is a pure function of
// its input: no network calls, no clock reads beyond the RawEvent's own
// OccurredAt.
package adapters

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"ledger-posting-engine/internal/canon"
	"ledger-posting-engine/internal/domain"
)

// Adapter normalizes one provider's RawEvent into a CanonicalEvent.
type Adapter interface {
	SourceSystem() string
	Normalize(raw domain.RawEvent) (domain.CanonicalEvent, error)
}

// NormalizeError wraps a normalization failure with adapter context.
type NormalizeError struct {
	Reason string
}

func (e *NormalizeError) Error() string { return "adapters: normalization failed: " + e.Reason }

func normalizeErr(format string, args ...any) error {
	return &NormalizeError{Reason: fmt.Sprintf(format, args...)}
}

// payloadDigest12 returns the first 12 lowercase hex characters of the
// SHA-256 digest of payload's canonical JSON, used for event_id derivation.
func payloadDigest12(payload map[string]any) (string, error) {
	c, err := canon.JSON(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(c)
	return hex.EncodeToString(sum[:])[:12], nil
}

// ReplayHashes normalizes each raw event with adapter and returns the
// SHA-256 canonical-JSON hash of each resulting CanonicalEvent, in order.
// Used by replay/backfill resiliency tests to assert determinism.
func ReplayHashes(adapter Adapter, raws []domain.RawEvent) ([]string, error) {
	hashes := make([]string, 0, len(raws))
	for _, raw := range raws {
		event, err := adapter.Normalize(raw)
		if err != nil {
			return nil, err
		}
		h, err := canon.Hash(event)
		if err != nil {
			return nil, err
		}
		hashes = append(hashes, h)
	}
	return hashes, nil
}
