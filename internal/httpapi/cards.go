package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tetrabit/cardcache/internal/errors"
	"github.com/tetrabit/cardcache/internal/querytranslate"
)

type searchResponse struct {
	Data       any  `json:"data"`
	Total      int  `json:"total"`
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	TotalPages int  `json:"total_pages"`
	HasMore    bool `json:"has_more"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		fail(w, r, errors.InvalidQuery("q is required"))
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	page, pageSize = querytranslate.ClampPage(page, pageSize)

	cards, total, err := s.manager.SearchPaginated(r.Context(), q, page, pageSize)
	if err != nil {
		fail(w, r, asAPIError(err))
		return
	}

	ok(w, http.StatusOK, searchResponse{
		Data:       nonNil(cards),
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: querytranslate.TotalPages(total, pageSize),
		HasMore:    page < querytranslate.TotalPages(total, pageSize),
	})
}

func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		fail(w, r, errors.ValidationError("id must be a UUID"))
		return
	}

	c, err := s.manager.GetCard(r.Context(), id)
	if err != nil {
		fail(w, r, asAPIError(err))
		return
	}
	if c == nil {
		fail(w, r, errors.CardNotFound(id))
		return
	}
	ok(w, http.StatusOK, c)
}

func (s *Server) handleGetCardByName(w http.ResponseWriter, r *http.Request) {
	exact := r.URL.Query().Get("exact")
	fuzzy := r.URL.Query().Get("fuzzy")
	if exact == "" && fuzzy == "" {
		fail(w, r, errors.InvalidQuery("exactly one of 'exact' or 'fuzzy' is required"))
		return
	}

	name := exact
	isFuzzy := false
	if exact == "" {
		name = fuzzy
		isFuzzy = true
	}

	c, err := s.manager.GetCardByName(r.Context(), name, isFuzzy)
	if err != nil {
		fail(w, r, asAPIError(err))
		return
	}
	if c == nil {
		fail(w, r, errors.CardNotFound(name))
		return
	}
	ok(w, http.StatusOK, c)
}

type autocompleteResponse struct {
	Object string   `json:"object"`
	Data   []string `json:"data"`
}

func (s *Server) handleAutocomplete(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	names, err := s.manager.Autocomplete(r.Context(), q)
	if err != nil {
		fail(w, r, asAPIError(err))
		return
	}
	ok(w, http.StatusOK, autocompleteResponse{Object: "catalog", Data: nonNilStrings(names)})
}
