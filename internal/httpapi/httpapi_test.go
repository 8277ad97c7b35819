package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/tetrabit/cardcache/internal/bulkload"
	"github.com/tetrabit/cardcache/internal/cachemanager"
	"github.com/tetrabit/cardcache/internal/card"
	"github.com/tetrabit/cardcache/internal/config"
	"github.com/tetrabit/cardcache/internal/errors"
	"github.com/tetrabit/cardcache/internal/queryvalidate"
	"github.com/tetrabit/cardcache/internal/resultcache"
	"github.com/tetrabit/cardcache/internal/store"
	"github.com/tetrabit/cardcache/internal/upstream"
)

type fakeStore struct {
	cards        map[string]card.Card
	predicateOut []card.Card
	countOut     int
	resultSets   map[string]*store.ResultSet
	pingErr      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{cards: map[string]card.Card{}, resultSets: map[string]*store.ResultSet{}}
}

func (f *fakeStore) UpsertCards(ctx context.Context, batch []card.Card) error {
	for _, c := range batch {
		f.cards[c.ID] = c
	}
	return nil
}
func (f *fakeStore) GetCard(ctx context.Context, id string) (*card.Card, error) {
	if c, ok := f.cards[id]; ok {
		return &c, nil
	}
	return nil, nil
}
func (f *fakeStore) GetCards(ctx context.Context, ids []string) ([]card.Card, error) {
	var out []card.Card
	for _, id := range ids {
		if c, ok := f.cards[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}
func (f *fakeStore) SearchByName(ctx context.Context, q string, limit int) ([]card.Card, error) {
	return nil, nil
}
func (f *fakeStore) Autocomplete(ctx context.Context, prefix string, limit int) ([]string, error) {
	return nil, nil
}
func (f *fakeStore) ExecutePredicate(ctx context.Context, sql string, params []any) ([]card.Card, error) {
	return f.predicateOut, nil
}
func (f *fakeStore) CountPredicate(ctx context.Context, sql string, params []any) (int, error) {
	return f.countOut, nil
}
func (f *fakeStore) GetResultSet(ctx context.Context, fingerprint string) (*store.ResultSet, error) {
	return f.resultSets[fingerprint], nil
}
func (f *fakeStore) PutResultSet(ctx context.Context, fingerprint string, ids []string, ttlHours int) error {
	f.resultSets[fingerprint] = &store.ResultSet{IDs: ids, TTLHours: ttlHours}
	return nil
}
func (f *fakeStore) GCResultSets(ctx context.Context, olderThanHours int) (int64, error) { return 0, nil }
func (f *fakeStore) RecordImport(ctx context.Context, total int, source string) error    { return nil }
func (f *fakeStore) LastImportTimestamp(ctx context.Context) (*time.Time, error)         { return nil, nil }
func (f *fakeStore) CardCount(ctx context.Context) (int64, error)                        { return int64(len(f.cards)), nil }
func (f *fakeStore) ResultSetCount(ctx context.Context) (int64, error)                   { return int64(len(f.resultSets)), nil }
func (f *fakeStore) AnyCards(ctx context.Context) (bool, error)                          { return len(f.cards) > 0, nil }
func (f *fakeStore) Ping(ctx context.Context) error                                      { return f.pingErr }

type fakeUpstream struct {
	searchOut []card.Card
	byIDOut   *card.Card
}

func (f *fakeUpstream) Search(ctx context.Context, query string) ([]card.Card, error) {
	return f.searchOut, nil
}
func (f *fakeUpstream) ByID(ctx context.Context, id string) (*card.Card, error) { return f.byIDOut, nil }
func (f *fakeUpstream) ByName(ctx context.Context, name string, fuzzy bool) (*card.Card, error) {
	return nil, nil
}
func (f *fakeUpstream) ByIDsCollection(ctx context.Context, ids []string) ([]card.Card, error) {
	return nil, nil
}

func (f *fakeUpstream) BulkData(ctx context.Context) ([]upstream.BulkDataEntry, error) {
	return nil, nil
}
func (f *fakeUpstream) Download(ctx context.Context, downloadURI string) ([]byte, error) {
	return nil, nil
}

func newTestServer(st *fakeStore, up *fakeUpstream) *Server {
	rc := resultcache.New(resultcache.NoopTier{}, st, time.Hour, 24)
	validator := queryvalidate.New(queryvalidate.Limits{MaxQueryLength: 1000, MaxNestingDepth: 5, MaxOrClauses: 10})
	manager := cachemanager.New(st, rc, resultcache.NoopTier{}, up, validator, 1000, logr.Discard())
	loader := bulkload.New(st, up, "default_cards", 24*time.Hour, logr.Discard())
	batch := config.BatchConfig{MaxIDs: 1000, MaxNames: 50, MaxQueries: 10, Parallelism: 4}
	return NewServer(manager, st, loader, batch, logr.Discard())
}

func doRequest(t *testing.T, s *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	router := NewRouter(s, logr.Discard(), nil, 1000, time.Minute)
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleSearch_RequiresQuery(t *testing.T) {
	s := newTestServer(newFakeStore(), &fakeUpstream{})
	rec := doRequest(t, s, http.MethodGet, "/cards/search", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleSearch_MalformedQueryReturnsInvalidQuery(t *testing.T) {
	s := newTestServer(newFakeStore(), &fakeUpstream{})
	rec := doRequest(t, s, http.MethodGet, "/cards/search?q="+url.QueryEscape("(((("), nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}

	var body errors.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != errors.CodeInvalidQuery {
		t.Fatalf("expected INVALID_QUERY, got %s", body.Error.Code)
	}
}

func TestHandleSearch_BadOperatorReturnsValidationError(t *testing.T) {
	s := newTestServer(newFakeStore(), &fakeUpstream{})
	rec := doRequest(t, s, http.MethodGet, "/cards/search?q="+url.QueryEscape("name:>5"), nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}

	var body errors.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != errors.CodeValidationError {
		t.Fatalf("expected VALIDATION_ERROR, got %s", body.Error.Code)
	}
}

func TestHandleSearch_ReturnsPaginatedEnvelope(t *testing.T) {
	st := newFakeStore()
	st.predicateOut = []card.Card{{ID: "L", Name: "Lightning Bolt"}}
	st.countOut = 1
	s := newTestServer(st, &fakeUpstream{})

	rec := doRequest(t, s, http.MethodGet, "/cards/search?q=bolt", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Total      int  `json:"total"`
			Page       int  `json:"page"`
			TotalPages int  `json:"total_pages"`
			HasMore    bool `json:"has_more"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !body.Success || body.Data.Total != 1 || body.Data.Page != 1 {
		t.Fatalf("unexpected response body: %+v", body)
	}
}

func TestHandleGetCard_NotFound(t *testing.T) {
	s := newTestServer(newFakeStore(), &fakeUpstream{})
	id := uuid.NewString()
	rec := doRequest(t, s, http.MethodGet, "/cards/"+id, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleGetCard_InvalidUUID(t *testing.T) {
	s := newTestServer(newFakeStore(), &fakeUpstream{})
	rec := doRequest(t, s, http.MethodGet, "/cards/not-a-uuid", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleCardsBatch_RejectsEmptyIDs(t *testing.T) {
	s := newTestServer(newFakeStore(), &fakeUpstream{})
	rec := doRequest(t, s, http.MethodPost, "/cards/batch", []byte(`{"ids":[]}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleCardsBatch_ResolvesKnownIDs(t *testing.T) {
	st := newFakeStore()
	id := uuid.NewString()
	st.cards[id] = card.Card{ID: id, Name: "Counterspell"}
	s := newTestServer(st, &fakeUpstream{})

	rec := doRequest(t, s, http.MethodPost, "/cards/batch", []byte(`{"ids":["`+id+`"]}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Data struct {
			Cards []card.Card `json:"cards"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data.Cards) != 1 || body.Data.Cards[0].ID != id {
		t.Fatalf("unexpected cards: %+v", body.Data.Cards)
	}
}

func TestHandleHealthz_ReportsStoreFailure(t *testing.T) {
	st := newFakeStore()
	st.pingErr = context.DeadlineExceeded
	s := newTestServer(st, &fakeUpstream{})

	rec := doRequest(t, s, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestHandleReadyz_NotReadyWithoutCards(t *testing.T) {
	s := newTestServer(newFakeStore(), &fakeUpstream{})
	rec := doRequest(t, s, http.MethodGet, "/readyz", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestHandleStats_ReturnsCounts(t *testing.T) {
	st := newFakeStore()
	st.cards["x"] = card.Card{ID: "x", Name: "X"}
	s := newTestServer(st, &fakeUpstream{})

	rec := doRequest(t, s, http.MethodGet, "/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}
