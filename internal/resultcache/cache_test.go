package resultcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-logr/logr"
	"github.com/redis/go-redis/v9"

	"github.com/tetrabit/cardcache/internal/store"
)

type fakeDurableStore struct {
	rs        map[string]*store.ResultSet
	putErr    error
	putCalled bool
}

func (f *fakeDurableStore) GetResultSet(ctx context.Context, fingerprint string) (*store.ResultSet, error) {
	return f.rs[fingerprint], nil
}

func (f *fakeDurableStore) PutResultSet(ctx context.Context, fingerprint string, ids []string, ttlHours int) error {
	f.putCalled = true
	if f.putErr != nil {
		return f.putErr
	}
	if f.rs == nil {
		f.rs = map[string]*store.ResultSet{}
	}
	f.rs[fingerprint] = &store.ResultSet{IDs: ids, TTLHours: ttlHours}
	return nil
}

func newRedisTier(t *testing.T) *RedisTier {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	t.Cleanup(mr.Close)
	tier := NewRedisTier(&redis.Options{Addr: mr.Addr()}, 0, logr.Discard())
	if err := tier.EnsureConnection(context.Background()); err != nil {
		t.Fatalf("ensure connection: %v", err)
	}
	t.Cleanup(func() { _ = tier.Close() })
	return tier
}

func TestCache_DistributedHit(t *testing.T) {
	tier := newRedisTier(t)
	durable := &fakeDurableStore{}
	c := New(tier, durable, time.Hour, 24)

	if err := c.Put(context.Background(), "fp1", []string{"a", "b"}); err != nil {
		t.Fatalf("put: %v", err)
	}

	ids, tierName, err := c.Get(context.Background(), "fp1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if tierName != "distributed" {
		t.Fatalf("expected distributed hit, got %q", tierName)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

func TestCache_DurableFallbackWhenDistributedMisses(t *testing.T) {
	tier := NoopTier{}
	durable := &fakeDurableStore{rs: map[string]*store.ResultSet{
		"fp2": {IDs: []string{"x"}, TTLHours: 24},
	}}
	c := New(tier, durable, time.Hour, 24)

	ids, tierName, err := c.Get(context.Background(), "fp2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if tierName != "durable" || len(ids) != 1 || ids[0] != "x" {
		t.Fatalf("expected durable hit with [x], got tier=%q ids=%v", tierName, ids)
	}
}

func TestCache_EmptyResultSetTreatedAsMiss(t *testing.T) {
	tier := NoopTier{}
	durable := &fakeDurableStore{rs: map[string]*store.ResultSet{
		"fp3": {IDs: []string{}, TTLHours: 24},
	}}
	c := New(tier, durable, time.Hour, 24)

	ids, tierName, err := c.Get(context.Background(), "fp3")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if tierName != "" || ids != nil {
		t.Fatalf("expected a miss for zero-id result set, got tier=%q ids=%v", tierName, ids)
	}
}

func TestCache_Put_PropagatesDurableError(t *testing.T) {
	durable := &fakeDurableStore{putErr: errors.New("boom")}
	c := New(NoopTier{}, durable, time.Hour, 24)

	if err := c.Put(context.Background(), "fp4", []string{"a"}); err == nil {
		t.Fatal("expected durable put error to propagate")
	}
}

func TestRedisTier_DropsOversizedValue(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	defer mr.Close()

	tier := NewRedisTier(&redis.Options{Addr: mr.Addr()}, 4, logr.Discard())
	defer tier.Close()

	if err := tier.Put(context.Background(), "k", []byte("way too long"), time.Minute); err != nil {
		t.Fatalf("put should drop silently, not error: %v", err)
	}
	if _, ok, _ := tier.Get(context.Background(), "k"); ok {
		t.Fatal("expected oversized value to have been dropped")
	}
}
