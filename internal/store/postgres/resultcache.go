package postgres

import (
	"context"

	"github.com/lib/pq"

	"github.com/tetrabit/cardcache/internal/store"
)

// GetResultSet reads one query_cache row, touching last_accessed as a side
// effect (SPEC_FULL.md §4.3). A row past its TTL is treated as absent so
// expiry doesn't require a separate janitor pass on the read path.
func (s *Store) GetResultSet(ctx context.Context, fingerprint string) (*store.ResultSet, error) {
	var ids pq.StringArray
	var ttlHours int
	err := s.db.QueryRowContext(ctx, `
		UPDATE query_cache SET last_accessed = now()
		WHERE query_fingerprint = $1
		  AND last_accessed + (ttl_hours || ' hours')::interval >= now()
		RETURNING card_ids, ttl_hours
	`, fingerprint).Scan(&ids, &ttlHours)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, wrapErr(err, store.Unavailable, "get result set")
	}
	return &store.ResultSet{IDs: []string(ids), TTLHours: ttlHours}, nil
}

// PutResultSet upserts the fingerprint's id list and TTL, resetting
// last_accessed to now.
func (s *Store) PutResultSet(ctx context.Context, fingerprint string, ids []string, ttlHours int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO query_cache (query_fingerprint, card_ids, ttl_hours, last_accessed, created_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (query_fingerprint) DO UPDATE SET
			card_ids = EXCLUDED.card_ids,
			ttl_hours = EXCLUDED.ttl_hours,
			last_accessed = now()
	`, fingerprint, pq.Array(ids), ttlHours)
	return wrapErr(err, store.Unavailable, "put result set")
}

// GCResultSets deletes entries whose last_accessed is older than
// olderThanHours, returning the number of rows removed.
func (s *Store) GCResultSets(ctx context.Context, olderThanHours int) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM query_cache WHERE last_accessed + ($1 || ' hours')::interval < now()
	`, olderThanHours)
	if err != nil {
		return 0, wrapErr(err, store.Unavailable, "gc result sets")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrapErr(err, store.Internal, "gc result sets rows affected")
	}
	return n, nil
}
