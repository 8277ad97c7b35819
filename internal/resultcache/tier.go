// Package resultcache implements the two-tier result-set cache described in
// SPEC_FULL.md §4.7: a generic distributed Tier (Redis-backed, or a no-op
// fallback per spec §9's "optional distributed cache tier" pattern) plus
// Cache, which layers fingerprint-keyed id-list semantics and a durable
// store.Store fallback on top of it. Modeled on the teacher's generic
// pkg/cache/redis wrapper (test/unit/cache/redis_cache_test.go).
package resultcache

import (
	"context"
	"time"
)

// Tier is one distributed key/value layer: opaque byte values, a
// caller-supplied TTL per write. cachemanager holds a single Tier reference
// for card, autocomplete, and result-set caching alike; it never branches
// on whether a real distributed cache is configured.
type Tier interface {
	// Get returns the cached value for key, and false if absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Put stores value for key with the given TTL. A failed write must
	// never be treated as a request failure by callers (SPEC_FULL.md §5).
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
