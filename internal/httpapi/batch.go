package httpapi

import (
	"encoding/json"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/tetrabit/cardcache/internal/card"
	"github.com/tetrabit/cardcache/internal/errors"
	"github.com/tetrabit/cardcache/internal/querytranslate"
)

// semaphore bounds how many goroutines in a batch run concurrently, per
// BATCH_PARALLELISM (SPEC_FULL.md §6.1).
type semaphore chan struct{}

func newSemaphore(n int) semaphore { return make(semaphore, n) }

func (s semaphore) acquire() { s <- struct{}{} }
func (s semaphore) release() { <-s }

type cardsBatchRequest struct {
	IDs          []string `json:"ids" validate:"required,min=1,dive,required"`
	FetchMissing bool     `json:"fetch_missing"`
}

type cardsBatchResponse struct {
	Cards      []card.Card `json:"cards"`
	MissingIDs []string    `json:"missing_ids"`
}

func (s *Server) handleCardsBatch(w http.ResponseWriter, r *http.Request) {
	var req cardsBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, r, errors.ValidationError("invalid request body"))
		return
	}
	if err := validateBody(req); err != nil {
		fail(w, r, errors.ValidationError("ids must not be empty"))
		return
	}
	if len(req.IDs) > s.batch.MaxIDs {
		fail(w, r, errors.ValidationError("too many ids requested"))
		return
	}

	cards, missing, err := s.manager.GetCardsBatch(r.Context(), req.IDs, req.FetchMissing)
	if err != nil {
		fail(w, r, asAPIError(err))
		return
	}
	ok(w, http.StatusOK, cardsBatchResponse{Cards: nonNil(cards), MissingIDs: nonNilStrings(missing)})
}

type namedBatchRequest struct {
	Names []string `json:"names" validate:"required,min=1,dive,required"`
	Fuzzy bool     `json:"fuzzy"`
}

type namedResult struct {
	Name string     `json:"name"`
	Card *card.Card `json:"card,omitempty"`
}

type namedBatchResponse struct {
	Results  []namedResult `json:"results"`
	NotFound []string      `json:"not_found"`
}

func (s *Server) handleNamedBatch(w http.ResponseWriter, r *http.Request) {
	var req namedBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, r, errors.ValidationError("invalid request body"))
		return
	}
	if err := validateBody(req); err != nil {
		fail(w, r, errors.ValidationError("names must not be empty"))
		return
	}
	if len(req.Names) > s.batch.MaxNames {
		fail(w, r, errors.ValidationError("too many names requested"))
		return
	}

	results := make([]namedResult, len(req.Names))
	sem := newSemaphore(s.batch.Parallelism)
	g, ctx := errgroup.WithContext(r.Context())

	for i, name := range req.Names {
		i, name := i, name
		g.Go(func() error {
			sem.acquire()
			defer sem.release()

			c, err := s.manager.GetCardByName(ctx, name, req.Fuzzy)
			if err != nil {
				return err
			}
			results[i] = namedResult{Name: name, Card: c}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fail(w, r, asAPIError(err))
		return
	}

	var notFound []string
	for _, res := range results {
		if res.Card == nil {
			notFound = append(notFound, res.Name)
		}
	}
	ok(w, http.StatusOK, namedBatchResponse{Results: results, NotFound: nonNilStrings(notFound)})
}

type batchQueryItem struct {
	ID       string `json:"id" validate:"required"`
	Query    string `json:"query" validate:"required"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}

type queriesBatchRequest struct {
	Queries []batchQueryItem `json:"queries" validate:"required,min=1,dive"`
}

type queryResult struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

type queriesBatchResponse struct {
	Results []queryResult `json:"results"`
}

func (s *Server) handleQueriesBatch(w http.ResponseWriter, r *http.Request) {
	var req queriesBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, r, errors.ValidationError("invalid request body"))
		return
	}
	if err := validateBody(req); err != nil {
		fail(w, r, errors.ValidationError("queries must not be empty, and each must carry an id and a query string"))
		return
	}
	if len(req.Queries) > s.batch.MaxQueries {
		fail(w, r, errors.ValidationError("too many queries requested"))
		return
	}

	results := make([]queryResult, len(req.Queries))
	sem := newSemaphore(s.batch.Parallelism)
	g, ctx := errgroup.WithContext(r.Context())

	for i, item := range req.Queries {
		i, item := i, item
		g.Go(func() error {
			sem.acquire()
			defer sem.release()

			page, pageSize := querytranslate.ClampPage(item.Page, item.PageSize)
			cards, _, err := s.manager.SearchPaginated(ctx, item.Query, page, pageSize)
			if err != nil {
				results[i] = queryResult{ID: item.ID, Success: false, Error: asAPIError(err).Message}
				return nil
			}
			results[i] = queryResult{ID: item.ID, Success: true, Data: nonNil(cards)}
			return nil
		})
	}
	_ = g.Wait()

	ok(w, http.StatusOK, queriesBatchResponse{Results: results})
}
