// Package config loads the service's entire configuration surface from
// environment variables, mirroring original_source/src/config.rs's
// env-or-default layering rather than introducing a YAML/TOML file format
// the spec never asked for.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the fully resolved configuration for one process instance.
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Upstream UpstreamConfig
	Cache    CacheConfig
	Limits   QueryLimits
	Batch    BatchConfig
	Breaker  BreakerConfig
	Refresh  RefreshConfig
	Logging  LoggingConfig
	RateLimit APIRateLimitConfig
}

// APIRateLimitConfig bounds the per-source-IP request rate the HTTP API
// itself enforces (distinct from UpstreamConfig.RateLimitPerSec, which
// gates our own calls to the upstream card API).
type APIRateLimitConfig struct {
	RequestsPerWindow int
	WindowSeconds     int
}

type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MinConnections     int
	AcquireTimeout     time.Duration
	IdleTimeout        time.Duration
	MaxLifetime        time.Duration
}

type ServerConfig struct {
	Host       string
	Port       int
	InstanceID string
}

// ServerAddress renders host:port, grounded on original_source's
// Config::server_address.
func (s ServerConfig) ServerAddress() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type UpstreamConfig struct {
	BaseURL          string
	RateLimitPerSec  int
	BulkDataType     string
	CacheTTLHours    int
}

type RedisConfig struct {
	Enabled        bool
	URL            string
	TTLSeconds     int
	MaxValueSizeMB int
}

type CacheConfig struct {
	QueryCacheTTLHours  int
	QueryCacheMaxSize   int
	Redis               RedisConfig
}

type QueryLimits struct {
	MaxQueryLength  int
	MaxNestingDepth int
	MaxOrClauses    int
	MaxResults      int
	TimeoutSeconds  int
}

type BatchConfig struct {
	MaxIDs      int
	MaxNames    int
	MaxQueries  int
	Parallelism int
}

type BreakerConfig struct {
	FailureThreshold    int
	SuccessThreshold    int
	TimeoutSeconds      int
	HalfOpenMaxRequests int
}

type RefreshConfig struct {
	Enabled             bool
	CheckIntervalHours  int
}

type LoggingConfig struct {
	Level       int
	Development bool
}

// FromEnv resolves Config from the process environment, applying the
// defaults listed in SPEC_FULL.md §6.5.
func FromEnv() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL must be set")
	}

	maxConns, err := envInt("DATABASE_MAX_CONNECTIONS", 10)
	if err != nil {
		return nil, err
	}
	minConns, err := envInt("DATABASE_MIN_CONNECTIONS", 0)
	if err != nil {
		return nil, err
	}
	acquireMS, err := envInt("DATABASE_ACQUIRE_TIMEOUT_MS", 30000)
	if err != nil {
		return nil, err
	}
	idleSec, err := envInt("DATABASE_IDLE_TIMEOUT_SECONDS", 600)
	if err != nil {
		return nil, err
	}
	lifetimeSec, err := envInt("DATABASE_MAX_LIFETIME_SECONDS", 1800)
	if err != nil {
		return nil, err
	}

	port, err := envInt("API_PORT", 8080)
	if err != nil {
		return nil, err
	}

	instanceID := os.Getenv("INSTANCE_ID")
	if instanceID == "" {
		instanceID = os.Getenv("HOSTNAME")
	}
	if instanceID == "" {
		instanceID = "unknown"
	}

	rateLimit, err := envInt("SCRYFALL_RATE_LIMIT_PER_SECOND", 10)
	if err != nil {
		return nil, err
	}
	scryfallTTL, err := envInt("SCRYFALL_CACHE_TTL_HOURS", 24)
	if err != nil {
		return nil, err
	}

	queryCacheTTL, err := envInt("QUERY_CACHE_TTL_HOURS", 24)
	if err != nil {
		return nil, err
	}
	queryCacheMax, err := envInt("QUERY_CACHE_MAX_SIZE", 10000)
	if err != nil {
		return nil, err
	}

	redisEnabled := envBool("REDIS_ENABLED", false)
	redisTTL, err := envInt("REDIS_TTL_SECONDS", 3600)
	if err != nil {
		return nil, err
	}
	redisMaxMB, err := envInt("REDIS_MAX_VALUE_SIZE_MB", 10)
	if err != nil {
		return nil, err
	}

	maxQueryLen, err := envInt("QUERY_MAX_LENGTH", 1000)
	if err != nil {
		return nil, err
	}
	maxNesting, err := envInt("QUERY_MAX_NESTING", 5)
	if err != nil {
		return nil, err
	}
	maxOr, err := envInt("QUERY_MAX_OR_CLAUSES", 10)
	if err != nil {
		return nil, err
	}
	maxResults, err := envInt("QUERY_MAX_RESULTS", 1000)
	if err != nil {
		return nil, err
	}
	queryTimeout, err := envInt("QUERY_TIMEOUT_SECONDS", 30)
	if err != nil {
		return nil, err
	}

	maxIDs, err := envInt("BATCH_MAX_IDS", 1000)
	if err != nil {
		return nil, err
	}
	maxNames, err := envInt("BATCH_MAX_NAMES", 50)
	if err != nil {
		return nil, err
	}
	maxQueries, err := envInt("BATCH_MAX_QUERIES", 10)
	if err != nil {
		return nil, err
	}
	parallelism, err := envInt("BATCH_PARALLELISM", 4)
	if err != nil {
		return nil, err
	}
	if parallelism < 1 {
		parallelism = 1
	}
	if parallelism > 32 {
		parallelism = 32
	}

	failureThreshold, err := envInt("CIRCUIT_BREAKER_FAILURE_THRESHOLD", 5)
	if err != nil {
		return nil, err
	}
	successThreshold, err := envInt("CIRCUIT_BREAKER_SUCCESS_THRESHOLD", 2)
	if err != nil {
		return nil, err
	}
	breakerTimeout, err := envInt("CIRCUIT_BREAKER_TIMEOUT_SECONDS", 60)
	if err != nil {
		return nil, err
	}
	halfOpenMax, err := envInt("CIRCUIT_BREAKER_HALF_OPEN_REQUESTS", 3)
	if err != nil {
		return nil, err
	}

	refreshEnabled := envBool("BULK_REFRESH_ENABLED", true)
	refreshInterval, err := envInt("BULK_REFRESH_INTERVAL_HOURS", 720)
	if err != nil {
		return nil, err
	}

	logLevel, err := envInt("LOG_LEVEL", 0)
	if err != nil {
		return nil, err
	}

	apiRatePerWindow, err := envInt("API_RATE_LIMIT_REQUESTS", 100)
	if err != nil {
		return nil, err
	}
	apiRateWindowSec, err := envInt("API_RATE_LIMIT_WINDOW_SECONDS", 60)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Database: DatabaseConfig{
			URL:            dbURL,
			MaxConnections: maxConns,
			MinConnections: minConns,
			AcquireTimeout: time.Duration(acquireMS) * time.Millisecond,
			IdleTimeout:    time.Duration(idleSec) * time.Second,
			MaxLifetime:    time.Duration(lifetimeSec) * time.Second,
		},
		Server: ServerConfig{
			Host:       envString("API_HOST", "0.0.0.0"),
			Port:       port,
			InstanceID: instanceID,
		},
		Upstream: UpstreamConfig{
			BaseURL:         envString("SCRYFALL_BASE_URL", "https://api.scryfall.com"),
			RateLimitPerSec: rateLimit,
			BulkDataType:    envString("SCRYFALL_BULK_DATA_TYPE", "default_cards"),
			CacheTTLHours:   scryfallTTL,
		},
		Cache: CacheConfig{
			QueryCacheTTLHours: queryCacheTTL,
			QueryCacheMaxSize:  queryCacheMax,
			Redis: RedisConfig{
				Enabled:        redisEnabled,
				URL:            envString("REDIS_URL", "redis://localhost:6379"),
				TTLSeconds:     redisTTL,
				MaxValueSizeMB: redisMaxMB,
			},
		},
		Limits: QueryLimits{
			MaxQueryLength:  maxQueryLen,
			MaxNestingDepth: maxNesting,
			MaxOrClauses:    maxOr,
			MaxResults:      maxResults,
			TimeoutSeconds:  queryTimeout,
		},
		Batch: BatchConfig{
			MaxIDs:      maxIDs,
			MaxNames:    maxNames,
			MaxQueries:  maxQueries,
			Parallelism: parallelism,
		},
		Breaker: BreakerConfig{
			FailureThreshold:    failureThreshold,
			SuccessThreshold:    successThreshold,
			TimeoutSeconds:      breakerTimeout,
			HalfOpenMaxRequests: halfOpenMax,
		},
		Refresh: RefreshConfig{
			Enabled:            refreshEnabled,
			CheckIntervalHours: refreshInterval,
		},
		Logging: LoggingConfig{
			Level:       logLevel,
			Development: envBool("LOG_DEVELOPMENT", false),
		},
		RateLimit: APIRateLimitConfig{
			RequestsPerWindow: apiRatePerWindow,
			WindowSeconds:     apiRateWindowSec,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks invariants FromEnv's parsing alone can't express.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database url is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Batch.Parallelism < 1 || c.Batch.Parallelism > 32 {
		return fmt.Errorf("batch parallelism must be in [1,32], got %d", c.Batch.Parallelism)
	}
	return nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid number: %w", key, err)
	}
	return n, nil
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
