package httpapi

import "net/http"

type statsResponse struct {
	TotalCards        int64 `json:"total_cards"`
	TotalCacheEntries int64 `json:"total_cache_entries"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	cards, err := s.store.CardCount(r.Context())
	if err != nil {
		fail(w, r, asAPIError(err))
		return
	}
	entries, err := s.store.ResultSetCount(r.Context())
	if err != nil {
		fail(w, r, asAPIError(err))
		return
	}
	ok(w, http.StatusOK, statsResponse{TotalCards: cards, TotalCacheEntries: entries})
}

func (s *Server) handleAdminReload(w http.ResponseWriter, r *http.Request) {
	if _, err := s.loader.ForceLoad(r.Context()); err != nil {
		fail(w, r, asAPIError(err))
		return
	}
	ok(w, http.StatusOK, "Bulk data reload completed")
}
