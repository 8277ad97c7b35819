package upstream

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tetrabit/cardcache/internal/card"
)

// wireCard mirrors the upstream catalog's per-record JSON shape
// (SPEC_FULL.md §6.3). Only the fields this service projects into its own
// Card model are named explicitly; everything else rides along in the
// original raw bytes captured by DecodeCard.
type wireCard struct {
	ID              string          `json:"id"`
	OracleID        string          `json:"oracle_id"`
	Name            string          `json:"name"`
	ManaCost        string          `json:"mana_cost"`
	CMC             float64         `json:"cmc"`
	TypeLine        string          `json:"type_line"`
	OracleText      string          `json:"oracle_text"`
	Set             string          `json:"set"`
	SetName         string          `json:"set_name"`
	CollectorNumber string          `json:"collector_number"`
	Rarity          string          `json:"rarity"`
	Power           string          `json:"power"`
	Toughness       string          `json:"toughness"`
	Loyalty         string          `json:"loyalty"`
	ReleasedAt      string          `json:"released_at"`
	Colors          []string        `json:"colors"`
	ColorIdentity   []string        `json:"color_identity"`
	Keywords        []string        `json:"keywords"`
	Prices          json.RawMessage `json:"prices"`
	ImageURIs       json.RawMessage `json:"image_uris"`
	CardFaces       json.RawMessage `json:"card_faces"`
	Legalities      json.RawMessage `json:"legalities"`
}

// DecodeCard projects one raw upstream JSON record into the internal Card
// model, preserving the original bytes as RawJSON (the source of truth per
// SPEC_FULL.md §3). Per-record decode failures are the caller's to count
// and skip (bulk loader §4.9 step 4, upstream client §4.4).
func DecodeCard(raw json.RawMessage) (card.Card, error) {
	var w wireCard
	if err := json.Unmarshal(raw, &w); err != nil {
		return card.Card{}, fmt.Errorf("decode card record: %w", err)
	}
	if w.ID == "" {
		return card.Card{}, fmt.Errorf("decode card record: missing id")
	}
	if w.Name == "" {
		return card.Card{}, fmt.Errorf("decode card record %s: missing name", w.ID)
	}

	c := card.Card{
		ID:            w.ID,
		Name:          w.Name,
		CMC:           w.CMC,
		SetCode:       w.Set,
		Colors:        w.Colors,
		ColorIdentity: w.ColorIdentity,
		Keywords:      w.Keywords,
		Prices:        w.Prices,
		ImageURIs:     w.ImageURIs,
		CardFaces:     w.CardFaces,
		Legalities:    w.Legalities,
		RawJSON:       append(json.RawMessage(nil), raw...),
	}
	if w.OracleID != "" {
		c.OracleID = &w.OracleID
	}
	if w.ManaCost != "" {
		c.ManaCost = &w.ManaCost
	}
	if w.TypeLine != "" {
		c.TypeLine = &w.TypeLine
	}
	if w.OracleText != "" {
		c.OracleText = &w.OracleText
	}
	if w.SetName != "" {
		c.SetName = &w.SetName
	}
	if w.CollectorNumber != "" {
		c.CollectorNumber = &w.CollectorNumber
	}
	if w.Rarity != "" {
		c.Rarity = &w.Rarity
	}
	if w.Power != "" {
		c.Power = &w.Power
	}
	if w.Toughness != "" {
		c.Toughness = &w.Toughness
	}
	if w.Loyalty != "" {
		c.Loyalty = &w.Loyalty
	}
	if w.ReleasedAt != "" {
		if t, err := time.Parse("2006-01-02", w.ReleasedAt); err == nil {
			c.ReleasedAt = &t
		}
	}
	return c, nil
}

// searchPage is the envelope returned by the upstream search endpoint.
type searchPage struct {
	Data     []json.RawMessage `json:"data"`
	HasMore  bool               `json:"has_more"`
	NextPage string             `json:"next_page"`
}

// bulkDataResponse is the envelope returned by GET /bulk-data.
type bulkDataResponse struct {
	Data []BulkDataEntry `json:"data"`
}

// BulkDataEntry describes one downloadable bulk snapshot.
type BulkDataEntry struct {
	Type        string    `json:"type"`
	DownloadURI string    `json:"download_uri"`
	UpdatedAt   time.Time `json:"updated_at"`
	Size        int64     `json:"size"`
}
