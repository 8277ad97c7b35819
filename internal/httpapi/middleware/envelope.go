package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/tetrabit/cardcache/internal/errors"
)

// writeError renders err as the service's standard error envelope,
// stamping it with the request's id if request-id middleware already ran.
func writeError(w http.ResponseWriter, r *http.Request, err *errors.Error) {
	err = err.WithRequestID(GetRequestID(r.Context()))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Code.StatusCode())
	_ = json.NewEncoder(w).Encode(err.Envelope())
}
