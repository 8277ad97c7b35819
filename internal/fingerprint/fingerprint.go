// Package fingerprint derives the cache key for a raw query string.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
)

// Of hashes the raw query text exactly as written, with no normalization.
// original_source's cache/manager.rs hashes the literal query passed in
// (hash_query), so "c:red" and "c:RED" deliberately produce different
// fingerprints and different cache entries here too.
func Of(query string) string {
	sum := sha256.Sum256([]byte(query))
	return hex.EncodeToString(sum[:])
}
