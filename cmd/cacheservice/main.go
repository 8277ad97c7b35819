// Command cacheservice is the process entrypoint: it resolves
// configuration, wires every component described in SPEC_FULL.md's
// component table, and serves the HTTP API until an interrupt or terminate
// signal arrives.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tetrabit/cardcache/internal/breaker"
	"github.com/tetrabit/cardcache/internal/bulkload"
	"github.com/tetrabit/cardcache/internal/cachemanager"
	"github.com/tetrabit/cardcache/internal/config"
	"github.com/tetrabit/cardcache/internal/httpapi"
	"github.com/tetrabit/cardcache/internal/logging"
	"github.com/tetrabit/cardcache/internal/queryvalidate"
	"github.com/tetrabit/cardcache/internal/refresh"
	"github.com/tetrabit/cardcache/internal/resultcache"
	"github.com/tetrabit/cardcache/internal/store/postgres"
	"github.com/tetrabit/cardcache/internal/upstream"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logging.NewLogger(logging.Options{Development: cfg.Logging.Development, Level: cfg.Logging.Level})
	log = log.WithValues("instance_id", cfg.Server.InstanceID)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pgStore, err := postgres.Open(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	defer pgStore.Close()

	if err := pgStore.MigrateStore(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	var tier resultcache.Tier = resultcache.NoopTier{}
	var rateLimitClient *redis.Client
	if cfg.Cache.Redis.Enabled {
		opts, err := redis.ParseURL(cfg.Cache.Redis.URL)
		if err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}
		redisTier := resultcache.NewRedisTier(opts, cfg.Cache.Redis.MaxValueSizeMB<<20, log)
		if err := redisTier.EnsureConnection(ctx); err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer redisTier.Close()
		tier = redisTier
		rateLimitClient = redis.NewClient(opts)
		defer rateLimitClient.Close()
	}

	resultSets := resultcache.New(tier, pgStore, time.Duration(cfg.Cache.Redis.TTLSeconds)*time.Second, cfg.Cache.QueryCacheTTLHours)

	breakerCfg := breaker.Config{
		FailureThreshold:    cfg.Breaker.FailureThreshold,
		SuccessThreshold:    cfg.Breaker.SuccessThreshold,
		OpenTimeout:         time.Duration(cfg.Breaker.TimeoutSeconds) * time.Second,
		HalfOpenMaxRequests: cfg.Breaker.HalfOpenMaxRequests,
	}
	upstreamClient := upstream.New(cfg.Upstream.BaseURL, cfg.Upstream.RateLimitPerSec, breakerCfg, log)

	validator := queryvalidate.New(queryvalidate.Limits{
		MaxQueryLength:  cfg.Limits.MaxQueryLength,
		MaxNestingDepth: cfg.Limits.MaxNestingDepth,
		MaxOrClauses:    cfg.Limits.MaxOrClauses,
	})

	manager := cachemanager.New(pgStore, resultSets, tier, upstreamClient, validator, cfg.Limits.MaxResults, log)

	loader := bulkload.New(pgStore, upstreamClient, cfg.Upstream.BulkDataType, time.Duration(cfg.Upstream.CacheTTLHours)*time.Hour, log)

	stopRefresh := refresh.Start(ctx, loader, time.Duration(cfg.Refresh.CheckIntervalHours)*time.Hour, cfg.Refresh.Enabled, log)
	defer stopRefresh()

	server := httpapi.NewServer(manager, pgStore, loader, cfg.Batch, log)
	router := httpapi.NewRouter(server, log, rateLimitClient, cfg.RateLimit.RequestsPerWindow, time.Duration(cfg.RateLimit.WindowSeconds)*time.Second)

	httpServer := &http.Server{
		Addr:    cfg.Server.ServerAddress(),
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return httpServer.Shutdown(shutdownCtx)
}
