package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func contentTypeHandler() http.Handler {
	return ValidateContentType(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestValidateContentType_AllowsJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/cards/batch", nil)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	contentTypeHandler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestValidateContentType_AllowsJSONWithCharset(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/cards/batch", nil)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rec := httptest.NewRecorder()
	contentTypeHandler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestValidateContentType_AllowsMissingHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/cards/search", nil)
	rec := httptest.NewRecorder()
	contentTypeHandler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 during grace period, got %d", rec.Code)
	}
}

func TestValidateContentType_RejectsOtherMediaTypes(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/cards/batch", nil)
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	contentTypeHandler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestValidateContentType_RejectsMalformedHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/cards/batch", nil)
	req.Header.Set("Content-Type", ";;;")
	rec := httptest.NewRecorder()
	contentTypeHandler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
