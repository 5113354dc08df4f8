// Package fingerprint produces deterministic keys for normalized inputs.
// The suggestion cache keys on fingerprints rather than raw text so
// arbitrarily long or non-ASCII inputs stay cheap to index.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
)

// Input hashes a normalized input string into a stable hex fingerprint.
func Input(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// Scoped prefixes the fingerprint with a namespace, e.g. a family key,
// producing a ready-to-use cache key.
func Scoped(namespace, normalized string) string {
	return namespace + ":" + Input(normalized)
}
