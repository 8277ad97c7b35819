// Package postgres implements store.Store against PostgreSQL. Reads and the
// result-set/import-log bookkeeping go through jmoiron/sqlx over
// lib/pq (the convenience path for scalar/array scanning); the bulk loader's
// batched upsert goes through a separate jackc/pgx/v5 pool using pgx.Batch,
// grounded on the pooled-access shape exercised by the teacher's
// pkg/storage/vector/connection_pool_test.go (independently configurable
// min/max connections, acquire timeout, idle timeout, max lifetime).
package postgres

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/tetrabit/cardcache/internal/config"
	"github.com/tetrabit/cardcache/internal/store"
)

// Store is the concrete PostgreSQL backend.
type Store struct {
	db  *sqlx.DB
	pgx *pgxpool.Pool
	log logr.Logger
}

// Open connects both the sqlx/lib-pq pool (general reads) and the pgx pool
// (batched upserts), applying cfg's pool sizing to both so the two
// connection pools share one operational budget.
func Open(ctx context.Context, cfg config.DatabaseConfig, log logr.Logger) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.URL)
	if err != nil {
		return nil, store.NewError(store.Unavailable, "connect to postgres via lib/pq", err)
	}
	db.SetMaxOpenConns(cfg.MaxConnections)
	if cfg.MinConnections > 0 {
		db.SetMaxIdleConns(cfg.MinConnections)
	}
	db.SetConnMaxIdleTime(cfg.IdleTimeout)
	db.SetConnMaxLifetime(cfg.MaxLifetime)

	pgxCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		_ = db.Close()
		return nil, store.NewError(store.Internal, "parse pgx pool config", err)
	}
	pgxCfg.MaxConns = int32(cfg.MaxConnections)
	pgxCfg.MinConns = int32(cfg.MinConnections)
	pgxCfg.MaxConnIdleTime = cfg.IdleTimeout
	pgxCfg.MaxConnLifetime = cfg.MaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		_ = db.Close()
		return nil, store.NewError(store.Unavailable, "connect to postgres via pgx", err)
	}

	return &Store{db: db, pgx: pool, log: log.WithValues("component", "store.postgres")}, nil
}

// Close releases both underlying connection pools.
func (s *Store) Close() {
	_ = s.db.Close()
	s.pgx.Close()
}

// Ping checks the sqlx/lib-pq pool, the path every read-side handler relies
// on for readiness.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return store.NewError(store.Unavailable, "ping database", err)
	}
	return nil
}

func wrapErr(err error, cat store.Category, msg string) error {
	if err == nil {
		return nil
	}
	return store.NewError(cat, msg, err)
}
