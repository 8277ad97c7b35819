package upstream

import "fmt"

// Error wraps a non-2xx, non-404 HTTP response from the upstream catalog.
// Callers map it (and breaker.ErrOpen) to SCRYFALL_API_ERROR at the HTTP
// boundary (SPEC_FULL.md §7).
type Error struct {
	Status int
	Body   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("upstream error: status %d", e.Status)
}
