package resultcache

import (
	"context"
	"time"
)

// NoopTier is the Tier used when REDIS_ENABLED=false: every lookup misses,
// every write is a no-op, so cachemanager's logic is identical whether or
// not a distributed cache is configured.
type NoopTier struct{}

func (NoopTier) Get(ctx context.Context, key string) ([]byte, bool, error) { return nil, false, nil }

func (NoopTier) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}
