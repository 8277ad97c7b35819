package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-logr/logr"
	"github.com/redis/go-redis/v9"

	"github.com/tetrabit/cardcache/internal/httpapi/middleware"
	"github.com/tetrabit/cardcache/internal/metrics"
)

// NewRouter assembles the full middleware chain and route table described
// in SPEC_FULL.md §6.1: recoverer, request-id, request logging, security
// headers, CORS, content-type validation, rate limiting (one limit per
// source IP, shared by every route), HTTP metrics, then the handler.
func NewRouter(s *Server, log logr.Logger, redisClient *redis.Client, rateLimit int, rateWindow time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestIDMiddleware(log))
	r.Use(middleware.RequestLogging())
	r.Use(middleware.SecurityHeaders())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.ValidateContentType)
	r.Use(middleware.NewRedisRateLimiter(redisClient, rateLimit, rateWindow))
	r.Use(middleware.HTTPMetrics())
	r.Use(middleware.InFlightRequests)

	r.Get("/cards/search", s.handleSearch)
	r.Get("/cards/{id}", s.handleGetCard)
	r.Get("/cards/named", s.handleGetCardByName)
	r.Get("/cards/autocomplete", s.handleAutocomplete)
	r.Post("/cards/batch", s.handleCardsBatch)
	r.Post("/cards/named/batch", s.handleNamedBatch)
	r.Post("/queries/batch", s.handleQueriesBatch)
	r.Get("/stats", s.handleStats)
	r.Post("/admin/reload", s.handleAdminReload)
	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	r.Get("/metrics", metrics.Handler().ServeHTTP)

	return r
}
