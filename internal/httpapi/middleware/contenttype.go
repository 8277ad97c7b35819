package middleware

import (
	"mime"
	"net/http"

	"github.com/tetrabit/cardcache/internal/errors"
)

// ValidateContentType rejects request bodies whose Content-Type isn't JSON,
// allowing a missing header through as a grace period for clients that omit
// it on bodyless requests (GET search, etc). Grounded on the teacher's
// content_type_test.go.
func ValidateContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		if ct == "" {
			next.ServeHTTP(w, r)
			return
		}

		media, _, err := mime.ParseMediaType(ct)
		if err != nil || media != "application/json" {
			writeError(w, r, errors.ValidationError("Content-Type must be application/json"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
