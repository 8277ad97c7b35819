package resultcache

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/go-logr/logr"
	"github.com/redis/go-redis/v9"
)

// RedisTier is the distributed Tier backed by go-redis/v9, grounded on the
// teacher's pkg/cache/redis client wrapper: a thin client plus a
// size-capped Put so oversized values are dropped rather than rejected
// (SPEC_FULL.md §4.7, REDIS_MAX_VALUE_SIZE_MB).
type RedisTier struct {
	client      *redis.Client
	maxValueLen int
	log         logr.Logger
}

// NewRedisTier builds a RedisTier from opts. maxValueBytes caps individual
// values; writes larger than the cap are silently dropped.
func NewRedisTier(opts *redis.Options, maxValueBytes int, log logr.Logger) *RedisTier {
	return &RedisTier{
		client:      redis.NewClient(opts),
		maxValueLen: maxValueBytes,
		log:         log.WithValues("component", "resultcache.redis"),
	}
}

// EnsureConnection pings Redis once, surfacing misconfiguration at startup
// instead of on the first request.
func (t *RedisTier) EnsureConnection(ctx context.Context) error {
	return t.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (t *RedisTier) Close() error { return t.client.Close() }

func (t *RedisTier) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := t.client.Get(ctx, key).Bytes()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

func (t *RedisTier) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if t.maxValueLen > 0 && len(value) > t.maxValueLen {
		t.log.V(1).Info("dropping oversized cache value", "key", key, "size", len(value), "max", t.maxValueLen)
		return nil
	}
	return t.client.Set(ctx, key, value, ttl).Err()
}
