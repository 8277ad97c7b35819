// Package cachemanager orchestrates the tiered read path described in
// SPEC_FULL.md §4.8: distributed tier, durable result-set cache, the store's
// predicate executor, and upstream fallback, with best-effort write-back
// into both cache tiers. Grounded on original_source's cache/manager.rs,
// which this module follows method-for-method.
package cachemanager

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/tetrabit/cardcache/internal/card"
	"github.com/tetrabit/cardcache/internal/fingerprint"
	"github.com/tetrabit/cardcache/internal/logging"
	"github.com/tetrabit/cardcache/internal/queryparse"
	"github.com/tetrabit/cardcache/internal/queryvalidate"
	"github.com/tetrabit/cardcache/internal/querytranslate"
	"github.com/tetrabit/cardcache/internal/resultcache"
	"github.com/tetrabit/cardcache/internal/store"
)

const autocompleteTTL = 10 * time.Minute

// Upstream is the subset of upstream.Client the cache manager depends on,
// kept narrow so tests can fake it.
type Upstream interface {
	Search(ctx context.Context, query string) ([]card.Card, error)
	ByID(ctx context.Context, id string) (*card.Card, error)
	ByName(ctx context.Context, name string, fuzzy bool) (*card.Card, error)
	ByIDsCollection(ctx context.Context, ids []string) ([]card.Card, error)
}

// Manager is the tiered read path. It holds a single resultcache.Tier
// reference (real or no-op) and never branches on whether a distributed
// cache is configured, per SPEC_FULL.md §9.
type Manager struct {
	store      store.Store
	resultSets *resultcache.Cache
	tier       resultcache.Tier
	upstream   Upstream
	validator  *queryvalidate.Validator
	maxResults int
	log        logr.Logger
}

// New builds a Manager. tier is the distributed key/value layer (use
// resultcache.NoopTier{} when none is configured); resultSets is the
// two-tier result-set cache built over the same tier and store.
func New(st store.Store, resultSets *resultcache.Cache, tier resultcache.Tier, up Upstream, validator *queryvalidate.Validator, maxResults int, log logr.Logger) *Manager {
	return &Manager{
		store:      st,
		resultSets: resultSets,
		tier:       tier,
		upstream:   up,
		validator:  validator,
		maxResults: maxResults,
		log:        log.WithValues(logging.FieldComponent, "cachemanager"),
	}
}

func cardKey(id string) string { return "card:" + id }

func autocompleteKey(prefix string) string { return "autocomplete:" + strings.ToLower(prefix) }

// parseAndValidate runs the full parse/validate pipeline shared by Search
// and SearchPaginated.
func (m *Manager) parseAndValidate(query string) (*queryparse.Node, error) {
	if err := m.validator.ValidateQueryString(query); err != nil {
		return nil, err
	}
	node, err := queryparse.Parse(query)
	if err != nil {
		return nil, err
	}
	if err := m.validator.ValidateAST(node); err != nil {
		return nil, err
	}
	return node, nil
}

// idsOf projects cards to their ids, preserving order.
func idsOf(cards []card.Card) []string {
	ids := make([]string, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}
	return ids
}

// dereference resolves an ordered id list into cards, reordering the
// store's unordered result to match ids and dropping ids the store no
// longer has (stale result-set cache entries, SPEC_FULL.md §3).
func dereference(ids []string, cards []card.Card) []card.Card {
	byID := make(map[string]card.Card, len(cards))
	for _, c := range cards {
		byID[c.ID] = c
	}
	out := make([]card.Card, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// writeBack stores ids under fp in both cache tiers, best-effort: failures
// are logged but never propagated (SPEC_FULL.md §5).
func (m *Manager) writeBack(ctx context.Context, fp string, ids []string) {
	if err := m.resultSets.Put(ctx, fp, ids); err != nil {
		m.log.V(1).Info("result-set cache write failed", logging.FieldCause, err.Error())
	}
}

// Search answers query in full (unpaginated, capped at maxResults),
// consulting tiers in strict order before falling back to upstream.
func (m *Manager) Search(ctx context.Context, query string) ([]card.Card, error) {
	node, err := m.parseAndValidate(query)
	if err != nil {
		return nil, err
	}

	fp := fingerprint.Of(query)

	if ids, tier, err := m.resultSets.Get(ctx, fp); err == nil && len(ids) > 0 {
		cards, err := m.store.GetCards(ctx, ids)
		if err == nil {
			if resolved := dereference(ids, cards); len(resolved) > 0 {
				m.log.V(1).Info("search cache hit", logging.FieldQuery, query, logging.FieldTier, tier)
				return resolved, nil
			}
		}
	}

	pred, orderLimit, err := querytranslate.BuildSearch(node, m.maxResults)
	if err == nil {
		cards, err := m.store.ExecutePredicate(ctx, pred.SQL+" "+orderLimit, pred.Params)
		if err == nil && len(cards) > 0 {
			ids := idsOf(cards)
			m.writeBack(ctx, fp, ids)
			return cards, nil
		}
	}

	upstreamCards, err := m.upstream.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(upstreamCards) == 0 {
		return nil, nil
	}
	if err := m.store.UpsertCards(ctx, upstreamCards); err != nil {
		m.log.V(1).Info("upstream search upsert failed", logging.FieldCause, err.Error())
	}
	m.writeBack(ctx, fp, idsOf(upstreamCards))
	return upstreamCards, nil
}

// SearchPaginated bypasses the result-set cache entirely: pagination cuts
// don't compose with its id-list representation (SPEC_FULL.md §4.8).
func (m *Manager) SearchPaginated(ctx context.Context, query string, page, pageSize int) ([]card.Card, int, error) {
	node, err := m.parseAndValidate(query)
	if err != nil {
		return nil, 0, err
	}

	paginated, err := querytranslate.BuildPaginated(node, page, pageSize)
	if err == nil {
		total, countErr := m.store.CountPredicate(ctx, paginated.CountSQL, paginated.CountParams)
		if countErr == nil && total > 0 {
			cards, pageErr := m.store.ExecutePredicate(ctx, paginated.PageSQL, paginated.PageParams)
			if pageErr == nil {
				return cards, total, nil
			}
		}
	}

	upstreamCards, err := m.upstream.Search(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	if len(upstreamCards) == 0 {
		return nil, 0, nil
	}
	if err := m.store.UpsertCards(ctx, upstreamCards); err != nil {
		m.log.V(1).Info("upstream search upsert failed", logging.FieldCause, err.Error())
	}

	page, pageSize = querytranslate.ClampPage(page, pageSize)
	total := len(upstreamCards)
	start := (page - 1) * pageSize
	if start >= total {
		return nil, total, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return upstreamCards[start:end], total, nil
}

// GetCard resolves a single id: distributed tier, then store, then
// upstream, warming the distributed tier on every path that finds a card.
func (m *Manager) GetCard(ctx context.Context, id string) (*card.Card, error) {
	if raw, ok, err := m.tier.Get(ctx, cardKey(id)); err == nil && ok {
		var c card.Card
		if json.Unmarshal(raw, &c) == nil {
			return &c, nil
		}
	}

	c, err := m.store.GetCard(ctx, id)
	if err != nil {
		return nil, err
	}
	if c != nil {
		m.warmCard(ctx, *c)
		return c, nil
	}

	upstreamCard, err := m.upstream.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if upstreamCard == nil {
		return nil, nil
	}
	if err := m.store.UpsertCards(ctx, []card.Card{*upstreamCard}); err != nil {
		m.log.V(1).Info("upstream get-by-id upsert failed", logging.FieldCause, err.Error())
	}
	m.warmCard(ctx, *upstreamCard)
	return upstreamCard, nil
}

func (m *Manager) warmCard(ctx context.Context, c card.Card) {
	raw, err := json.Marshal(c)
	if err != nil {
		return
	}
	if err := m.tier.Put(ctx, cardKey(c.ID), raw, 0); err != nil {
		m.log.V(1).Info("card tier warm failed", logging.FieldCause, err.Error())
	}
}

// GetCardByName resolves by name: store full-text match first, upstream
// fuzzy/exact lookup on miss.
func (m *Manager) GetCardByName(ctx context.Context, name string, fuzzy bool) (*card.Card, error) {
	matches, err := m.store.SearchByName(ctx, name, 1)
	if err == nil && len(matches) > 0 {
		return &matches[0], nil
	}

	upstreamCard, err := m.upstream.ByName(ctx, name, fuzzy)
	if err != nil {
		return nil, err
	}
	if upstreamCard == nil {
		return nil, nil
	}
	if err := m.store.UpsertCards(ctx, []card.Card{*upstreamCard}); err != nil {
		m.log.V(1).Info("upstream get-by-name upsert failed", logging.FieldCause, err.Error())
	}
	return upstreamCard, nil
}

// GetCardsBatch resolves ids from the store, fetches any still missing from
// upstream when fetchMissing is set, and projects the result back into
// request order. Absent ids are omitted, not null-filled.
func (m *Manager) GetCardsBatch(ctx context.Context, ids []string, fetchMissing bool) ([]card.Card, []string, error) {
	found, err := m.store.GetCards(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	byID := make(map[string]card.Card, len(found))
	for _, c := range found {
		byID[c.ID] = c
	}

	missing := missingInOrder(ids, byID)

	if fetchMissing && len(missing) > 0 {
		fetched, err := m.upstream.ByIDsCollection(ctx, missing)
		if err != nil {
			return nil, nil, err
		}
		if len(fetched) > 0 {
			if err := m.store.UpsertCards(ctx, fetched); err != nil {
				m.log.V(1).Info("upstream batch upsert failed", logging.FieldCause, err.Error())
			}
			for _, c := range fetched {
				byID[c.ID] = c
			}
			missing = missingInOrder(ids, byID)
		}
	}

	ordered := make([]card.Card, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			ordered = append(ordered, c)
		}
	}
	return ordered, missing, nil
}

func missingInOrder(ids []string, byID map[string]card.Card) []string {
	seen := make(map[string]bool, len(ids))
	var missing []string
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, ok := byID[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

// Autocomplete rejects prefixes shorter than 2 characters outright, then
// consults the distributed tier before the store.
func (m *Manager) Autocomplete(ctx context.Context, prefix string) ([]string, error) {
	if len(prefix) < 2 {
		return nil, nil
	}

	key := autocompleteKey(prefix)
	if raw, ok, err := m.tier.Get(ctx, key); err == nil && ok {
		var names []string
		if json.Unmarshal(raw, &names) == nil {
			return names, nil
		}
	}

	names, err := m.store.Autocomplete(ctx, prefix, 20)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(names); err == nil {
		if err := m.tier.Put(ctx, key, raw, autocompleteTTL); err != nil {
			m.log.V(1).Info("autocomplete tier warm failed", logging.FieldCause, err.Error())
		}
	}
	return names, nil
}
