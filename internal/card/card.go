// Package card defines the primary card entity and the other persisted
// shapes (result-set cache entries, bulk import log rows) described in
// SPEC_FULL.md §3, grounded in original_source's card model used throughout
// cache/manager.rs and the bulk loader.
package card

import (
	"encoding/json"
	"time"
)

// Card is the primary catalog entity. RawJSON is the source of truth; the
// scalar and multi-valued fields are projections of it maintained for
// querying, per SPEC_FULL.md §3's reconstructibility invariant.
type Card struct {
	ID       string  `db:"id" json:"id"`
	OracleID *string `db:"oracle_id" json:"oracle_id,omitempty"`

	Name            string   `db:"name" json:"name"`
	ManaCost        *string  `db:"mana_cost" json:"mana_cost,omitempty"`
	CMC             float64  `db:"cmc" json:"cmc"`
	TypeLine        *string  `db:"type_line" json:"type_line,omitempty"`
	OracleText      *string  `db:"oracle_text" json:"oracle_text,omitempty"`
	SetCode         string   `db:"set_code" json:"set_code"`
	SetName         *string  `db:"set_name" json:"set_name,omitempty"`
	CollectorNumber *string  `db:"collector_number" json:"collector_number,omitempty"`
	Rarity          *string  `db:"rarity" json:"rarity,omitempty"`
	Power           *string  `db:"power" json:"power,omitempty"`
	Toughness       *string  `db:"toughness" json:"toughness,omitempty"`
	Loyalty         *string  `db:"loyalty" json:"loyalty,omitempty"`
	ReleasedAt      *time.Time `db:"released_at" json:"released_at,omitempty"`

	Colors        []string `db:"colors" json:"colors,omitempty"`
	ColorIdentity []string `db:"color_identity" json:"color_identity,omitempty"`
	Keywords      []string `db:"keywords" json:"keywords,omitempty"`

	Prices     json.RawMessage `db:"prices" json:"prices,omitempty"`
	ImageURIs  json.RawMessage `db:"image_uris" json:"image_uris,omitempty"`
	CardFaces  json.RawMessage `db:"card_faces" json:"card_faces,omitempty"`
	Legalities json.RawMessage `db:"legalities" json:"legalities,omitempty"`
	RawJSON    json.RawMessage `db:"raw_json" json:"-"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ValidColor reports whether c is one of the five WUBRG color codes.
func ValidColor(c string) bool {
	switch c {
	case "W", "U", "B", "R", "G":
		return true
	default:
		return false
	}
}

// ResultSetCacheEntry is the durable result-set cache row keyed by query
// fingerprint (SPEC_FULL.md §3, §4.7).
type ResultSetCacheEntry struct {
	QueryFingerprint string    `db:"query_fingerprint"`
	CardIDs          []string  `db:"card_ids"`
	TTLHours         int       `db:"ttl_hours"`
	LastAccessed     time.Time `db:"last_accessed"`
	CreatedAt        time.Time `db:"created_at"`
}

// Expired reports whether the entry is past its TTL as of now.
func (e ResultSetCacheEntry) Expired(now time.Time) bool {
	return e.LastAccessed.Add(time.Duration(e.TTLHours) * time.Hour).Before(now)
}

// BulkImportLogEntry is an append-only record of one bulk ingest run
// (SPEC_FULL.md §3, §4.9).
type BulkImportLogEntry struct {
	ID         int64     `db:"id"`
	TotalCards int       `db:"total_cards"`
	Source     string    `db:"source"`
	ImportedAt time.Time `db:"imported_at"`
}
