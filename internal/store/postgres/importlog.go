package postgres

import (
	"context"
	"time"

	"github.com/tetrabit/cardcache/internal/store"
)

// RecordImport appends one row to bulk_data_metadata.
func (s *Store) RecordImport(ctx context.Context, total int, source string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bulk_data_metadata (total_cards, source, imported_at) VALUES ($1, $2, now())`,
		total, source)
	return wrapErr(err, store.Unavailable, "record import")
}

// LastImportTimestamp returns the most recent bulk import's imported_at, or
// nil if no import has ever run.
func (s *Store) LastImportTimestamp(ctx context.Context) (*time.Time, error) {
	var t time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT imported_at FROM bulk_data_metadata ORDER BY imported_at DESC LIMIT 1`,
	).Scan(&t)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, wrapErr(err, store.Unavailable, "last import timestamp")
	}
	return &t, nil
}

// CardCount returns the total number of rows in cards.
func (s *Store) CardCount(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cards`).Scan(&n)
	return n, wrapErr(err, store.Unavailable, "card count")
}

// ResultSetCount returns the total number of rows in query_cache.
func (s *Store) ResultSetCount(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM query_cache`).Scan(&n)
	return n, wrapErr(err, store.Unavailable, "result set count")
}

// AnyCards reports whether the cards table is non-empty, used by the bulk
// loader to decide whether the very first load is mandatory.
func (s *Store) AnyCards(ctx context.Context) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM cards LIMIT 1)`).Scan(&exists)
	return exists, wrapErr(err, store.Unavailable, "any cards")
}
