// Package httpapi builds the client-facing HTTP surface described in
// SPEC_FULL.md §6.1: a chi router, the middleware chain in
// internal/httpapi/middleware, and handlers delegating to
// internal/cachemanager, internal/bulkload, and internal/store. Grounded on
// the teacher's pkg/gateway package layout (router + handlers + middleware
// subpackage) even though this service answers reads instead of ingesting
// webhooks.
package httpapi

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/tetrabit/cardcache/internal/breaker"
	"github.com/tetrabit/cardcache/internal/errors"
	"github.com/tetrabit/cardcache/internal/httpapi/middleware"
	"github.com/tetrabit/cardcache/internal/queryparse"
	"github.com/tetrabit/cardcache/internal/queryvalidate"
	"github.com/tetrabit/cardcache/internal/store"
	"github.com/tetrabit/cardcache/internal/upstream"
)

// ok writes the {success:true, data:<T>} envelope.
func ok(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(struct {
		Success bool `json:"success"`
		Data    any  `json:"data"`
	}{Success: true, Data: data})
}

// fail writes the {success:false, error:{...}} envelope, stamping the
// error with the request's id.
func fail(w http.ResponseWriter, r *http.Request, err *errors.Error) {
	err = err.WithRequestID(middleware.GetRequestID(r.Context()))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Code.StatusCode())
	_ = json.NewEncoder(w).Encode(err.Envelope())
}

// asAPIError classifies an arbitrary error returned by cachemanager/store/
// upstream into the HTTP error taxonomy, falling back to INTERNAL_ERROR for
// anything not already a typed *errors.Error.
func asAPIError(err error) *errors.Error {
	if apiErr, ok := errors.As(err); ok {
		return apiErr
	}

	if stderrors.Is(err, queryparse.ErrSyntax) {
		return errors.InvalidQuery(err.Error())
	}

	if stderrors.Is(err, queryvalidate.ErrInvalid) {
		return errors.ValidationError(err.Error())
	}

	var storeErr *store.Error
	if stderrors.As(err, &storeErr) {
		return errors.DatabaseError(storeErr.Error(), err)
	}

	var upstreamErr *upstream.Error
	if stderrors.As(err, &upstreamErr) {
		return errors.ScryfallAPIError(upstreamErr.Error(), err)
	}

	if stderrors.Is(err, breaker.ErrOpen) {
		return errors.ScryfallAPIError("upstream circuit breaker is open", err)
	}

	return errors.InternalError("unexpected error", err)
}
