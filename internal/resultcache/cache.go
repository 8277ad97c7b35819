package resultcache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/tetrabit/cardcache/internal/store"
)

// durableStore is the subset of store.Store the result-set cache needs,
// kept narrow so tests can fake it without a full Store.
type durableStore interface {
	GetResultSet(ctx context.Context, fingerprint string) (*store.ResultSet, error)
	PutResultSet(ctx context.Context, fingerprint string, ids []string, ttlHours int) error
}

// Cache is the two-tier result-set cache: a distributed Tier in front of
// the durable store tier, both keyed by query fingerprint
// (SPEC_FULL.md §4.7).
type Cache struct {
	tier         Tier
	store        durableStore
	distTTL      time.Duration
	defaultTTLHr int
}

// New builds a Cache. distTTL is the TTL applied to distributed-tier
// writes; defaultTTLHours is used for durable-tier writes (the TTL stamped
// into query_cache rows).
func New(tier Tier, durable durableStore, distTTL time.Duration, defaultTTLHours int) *Cache {
	return &Cache{tier: tier, store: durable, distTTL: distTTL, defaultTTLHr: defaultTTLHours}
}

func distKey(fingerprint string) string { return "query:" + fingerprint }

// Get checks the distributed tier, then the durable tier, returning the
// cached id list and which tier it came from ("" if both missed). A hit
// with zero ids is treated as absent per the result-set cache's advisory
// contract (SPEC_FULL.md §3).
func (c *Cache) Get(ctx context.Context, fingerprint string) (ids []string, tier string, err error) {
	if raw, ok, err := c.tier.Get(ctx, distKey(fingerprint)); err == nil && ok {
		var decoded []string
		if json.Unmarshal(raw, &decoded) == nil && len(decoded) > 0 {
			return decoded, "distributed", nil
		}
	}

	rs, err := c.store.GetResultSet(ctx, fingerprint)
	if err != nil {
		return nil, "", err
	}
	if rs != nil && len(rs.IDs) > 0 {
		return rs.IDs, "durable", nil
	}
	return nil, "", nil
}

// Put writes ids to both tiers, best-effort: a distributed-tier failure
// never fails the call (SPEC_FULL.md §5); a durable-tier failure is
// returned since it indicates the store itself is unhealthy.
func (c *Cache) Put(ctx context.Context, fingerprint string, ids []string) error {
	if raw, err := json.Marshal(ids); err == nil {
		_ = c.tier.Put(ctx, distKey(fingerprint), raw, c.distTTL)
	}
	return c.store.PutResultSet(ctx, fingerprint, ids, c.defaultTTLHr)
}
