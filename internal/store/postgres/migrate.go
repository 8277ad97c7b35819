package postgres

import (
	"context"
	"database/sql"
	"embed"

	"github.com/pressly/goose/v3"

	"github.com/tetrabit/cardcache/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies every pending goose migration embedded under migrations/
// using db's own *sql.DB handle (lib/pq), so schema setup shares the same
// driver as the rest of the read path.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return store.NewError(store.Internal, "set goose dialect", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return store.NewError(store.Unavailable, "run migrations", err)
	}
	return nil
}

// MigrateStore runs Migrate against s's own sqlx-wrapped connection.
func (s *Store) MigrateStore(ctx context.Context) error {
	return Migrate(ctx, s.db.DB)
}
