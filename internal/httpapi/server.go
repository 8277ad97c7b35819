package httpapi

import (
	"github.com/go-logr/logr"

	"github.com/tetrabit/cardcache/internal/bulkload"
	"github.com/tetrabit/cardcache/internal/cachemanager"
	"github.com/tetrabit/cardcache/internal/config"
	"github.com/tetrabit/cardcache/internal/store"
)

// Server holds every dependency the route handlers need. It carries no
// behavior of its own beyond dispatch; the real work lives in
// internal/cachemanager, internal/bulkload, and internal/store.
type Server struct {
	manager *cachemanager.Manager
	store   store.Store
	loader  *bulkload.Loader
	batch   config.BatchConfig
	log     logr.Logger
}

// NewServer builds a Server.
func NewServer(manager *cachemanager.Manager, st store.Store, loader *bulkload.Loader, batch config.BatchConfig, log logr.Logger) *Server {
	return &Server{manager: manager, store: st, loader: loader, batch: batch, log: log.WithValues("component", "httpapi")}
}
