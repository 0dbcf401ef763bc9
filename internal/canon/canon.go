// Package canon provides the canonical-JSON hashing primitive used across every
// deterministic identifier and tamper-evident seal in the posting engine.
package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// JSON marshals v to JSON then reduces it to its RFC 8785 canonical form.
// Map keys sort lexicographically and whitespace is stripped, so two
// semantically-equal values always produce byte-identical output.
func JSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canon: marshal: %w", err)
	}
	transformed, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canon: jcs transform: %w", err)
	}
	return transformed, nil
}

// Hash returns the lowercase hex SHA-256 digest of v's canonical JSON form.
func Hash(v any) (string, error) {
	c, err := JSON(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(c)
	return hex.EncodeToString(sum[:]), nil
}

// MustHash panics on marshal failure. Reserved for call sites where v's shape
// is statically known to be JSON-marshalable (no channels, funcs, cyclic maps).
func MustHash(v any) string {
	h, err := Hash(v)
	if err != nil {
		panic(err)
	}
	return h
}
