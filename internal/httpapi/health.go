package httpapi

import (
	"net/http"

	"github.com/tetrabit/cardcache/internal/errors"
)

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		fail(w, r, errors.DatabaseError("store unreachable", err))
		return
	}
	ok(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		fail(w, r, errors.DatabaseError("store unreachable", err))
		return
	}
	any, err := s.store.AnyCards(r.Context())
	if err != nil {
		fail(w, r, asAPIError(err))
		return
	}
	if !any {
		fail(w, r, errors.DatabaseError("bulk data not yet primed", nil))
		return
	}
	ok(w, http.StatusOK, map[string]string{"status": "ready"})
}
