package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/tetrabit/cardcache/internal/card"
	"github.com/tetrabit/cardcache/internal/store"
)

const cardColumns = `id, oracle_id, name, mana_cost, cmc, type_line, oracle_text,
	set_code, set_name, collector_number, rarity, power, toughness, loyalty,
	released_at, colors, color_identity, keywords, prices, image_uris,
	card_faces, legalities, raw_json, created_at, updated_at`

// scanCard reads one cards row in cardColumns order. Multi-valued columns
// are Postgres text[] and need pq.Array to scan into []string; the JSON
// passthrough columns scan directly into json.RawMessage since its
// underlying type is []byte.
func scanCard(rows interface{ Scan(...any) error }) (card.Card, error) {
	var c card.Card
	err := rows.Scan(
		&c.ID, &c.OracleID, &c.Name, &c.ManaCost, &c.CMC, &c.TypeLine, &c.OracleText,
		&c.SetCode, &c.SetName, &c.CollectorNumber, &c.Rarity, &c.Power, &c.Toughness, &c.Loyalty,
		&c.ReleasedAt, pq.Array(&c.Colors), pq.Array(&c.ColorIdentity), pq.Array(&c.Keywords),
		&c.Prices, &c.ImageURIs, &c.CardFaces, &c.Legalities, &c.RawJSON,
		&c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

// UpsertCards batch-inserts batch via a single pgx.Batch pipeline: one
// INSERT ... ON CONFLICT (id) DO UPDATE statement queued per card, so
// derived columns are replaced from raw_json and updated_at advances while
// created_at is preserved (SPEC_FULL.md §3 invariant).
func (s *Store) UpsertCards(ctx context.Context, batch []card.Card) error {
	if len(batch) == 0 {
		return nil
	}

	const upsertSQL = `
INSERT INTO cards (
	id, oracle_id, name, mana_cost, cmc, type_line, oracle_text,
	set_code, set_name, collector_number, rarity, power, toughness, loyalty,
	released_at, colors, color_identity, keywords, prices, image_uris,
	card_faces, legalities, raw_json, created_at, updated_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
	$16, $17, $18, $19, $20, $21, $22, $23, now(), now()
)
ON CONFLICT (id) DO UPDATE SET
	oracle_id = EXCLUDED.oracle_id,
	name = EXCLUDED.name,
	mana_cost = EXCLUDED.mana_cost,
	cmc = EXCLUDED.cmc,
	type_line = EXCLUDED.type_line,
	oracle_text = EXCLUDED.oracle_text,
	set_code = EXCLUDED.set_code,
	set_name = EXCLUDED.set_name,
	collector_number = EXCLUDED.collector_number,
	rarity = EXCLUDED.rarity,
	power = EXCLUDED.power,
	toughness = EXCLUDED.toughness,
	loyalty = EXCLUDED.loyalty,
	released_at = EXCLUDED.released_at,
	colors = EXCLUDED.colors,
	color_identity = EXCLUDED.color_identity,
	keywords = EXCLUDED.keywords,
	prices = EXCLUDED.prices,
	image_uris = EXCLUDED.image_uris,
	card_faces = EXCLUDED.card_faces,
	legalities = EXCLUDED.legalities,
	raw_json = EXCLUDED.raw_json,
	updated_at = now()
`
	b := &pgx.Batch{}
	for _, c := range batch {
		b.Queue(upsertSQL,
			c.ID, c.OracleID, c.Name, c.ManaCost, c.CMC, c.TypeLine, c.OracleText,
			c.SetCode, c.SetName, c.CollectorNumber, c.Rarity, c.Power, c.Toughness, c.Loyalty,
			c.ReleasedAt, pq.Array(c.Colors), pq.Array(c.ColorIdentity), pq.Array(c.Keywords),
			[]byte(c.Prices), []byte(c.ImageURIs), []byte(c.CardFaces), []byte(c.Legalities), []byte(c.RawJSON),
		)
	}

	br := s.pgx.SendBatch(ctx, b)
	defer br.Close()
	for range batch {
		if _, err := br.Exec(); err != nil {
			return wrapErr(err, store.Unavailable, "upsert card batch")
		}
	}
	return nil
}

// GetCard returns nil, nil when id is absent, per store.Store's contract.
func (s *Store) GetCard(ctx context.Context, id string) (*card.Card, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+cardColumns+" FROM cards WHERE id = $1", id)
	c, err := scanCard(row)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, wrapErr(err, store.Unavailable, "get card")
	}
	return &c, nil
}

// GetCards returns cards for ids in no particular order, chunking the IN
// clause at 1000 ids per query so the parameter count never approaches the
// underlying driver's limit (SPEC_FULL.md §4.3).
func (s *Store) GetCards(ctx context.Context, ids []string) ([]card.Card, error) {
	const chunkSize = 1000
	var out []card.Card
	for start := 0; start < len(ids); start += chunkSize {
		end := start + chunkSize
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]

		placeholders := make([]string, len(chunk))
		args := make([]any, len(chunk))
		for i, id := range chunk {
			placeholders[i] = "$" + strconv.Itoa(i+1)
			args[i] = id
		}
		query := "SELECT " + cardColumns + " FROM cards WHERE id IN (" + strings.Join(placeholders, ",") + ")"

		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, wrapErr(err, store.Unavailable, "get cards")
		}
		for rows.Next() {
			c, err := scanCard(rows)
			if err != nil {
				rows.Close()
				return nil, wrapErr(err, store.Internal, "scan card row")
			}
			out = append(out, c)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, wrapErr(err, store.Unavailable, "get cards")
		}
	}
	return out, nil
}

// SearchByName is a case-insensitive fuzzy match over name, ordered by
// closeness (shortest-name-first as a cheap proxy, then alphabetical).
func (s *Store) SearchByName(ctx context.Context, q string, limit int) ([]card.Card, error) {
	query := "SELECT " + cardColumns + ` FROM cards
		WHERE name ILIKE '%' || $1 || '%'
		ORDER BY (lower(name) = lower($1)) DESC, length(name) ASC, name ASC
		LIMIT $2`
	rows, err := s.db.QueryContext(ctx, query, q, limit)
	if err != nil {
		return nil, wrapErr(err, store.Unavailable, "search by name")
	}
	defer rows.Close()

	var out []card.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, wrapErr(err, store.Internal, "scan card row")
		}
		out = append(out, c)
	}
	return out, wrapErr(rows.Err(), store.Unavailable, "search by name")
}

// Autocomplete returns DISTINCT names with a case-insensitive prefix match,
// lexicographically ascending.
func (s *Store) Autocomplete(ctx context.Context, prefix string, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT name FROM cards WHERE name ILIKE $1 || '%' ORDER BY name ASC LIMIT $2`,
		prefix, limit)
	if err != nil {
		return nil, wrapErr(err, store.Unavailable, "autocomplete")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, wrapErr(err, store.Internal, "scan autocomplete row")
		}
		names = append(names, n)
	}
	return names, wrapErr(rows.Err(), store.Unavailable, "autocomplete")
}

// ExecutePredicate runs sql (a WHERE-clause predicate produced by
// internal/querytranslate) against the cards table and returns the matches.
func (s *Store) ExecutePredicate(ctx context.Context, sql string, params []any) ([]card.Card, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+cardColumns+" FROM cards WHERE "+sql, params...)
	if err != nil {
		return nil, wrapErr(err, store.Unavailable, "execute predicate")
	}
	defer rows.Close()

	var out []card.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, wrapErr(err, store.Internal, "scan card row")
		}
		out = append(out, c)
	}
	return out, wrapErr(rows.Err(), store.Unavailable, "execute predicate")
}

// CountPredicate runs the counting form of the same predicate.
func (s *Store) CountPredicate(ctx context.Context, sql string, params []any) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cards WHERE "+sql, params...).Scan(&n)
	if err != nil {
		return 0, wrapErr(err, store.Unavailable, "count predicate")
	}
	return n, nil
}

func isNoRows(err error) bool {
	return stderrors.Is(err, sql.ErrNoRows)
}
