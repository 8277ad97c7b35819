// Package metrics holds the Prometheus vectors exported by this service,
// grouped in one file and registered at init the way cuemby-warren's
// pkg/metrics does, rather than scattering prometheus.MustRegister calls
// across the packages that increment them.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardcache_http_requests_total",
			Help: "Total HTTP requests by route, method and status",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cardcache_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds by route and method",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	HTTPInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cardcache_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		},
	)

	CacheResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardcache_cache_results_total",
			Help: "Cache lookups by tier and outcome (hit/miss)",
		},
		[]string{"tier", "outcome"},
	)

	BreakerState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cardcache_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half_open)",
		},
	)

	BulkImportCardsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardcache_bulk_import_cards_total",
			Help: "Cards processed by the bulk loader, by outcome (success/failure)",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		HTTPInFlight,
		CacheResultsTotal,
		BreakerState,
		BulkImportCardsTotal,
	)
}

// Handler exposes the Prometheus exposition endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer measures elapsed time for a single operation.
type Timer struct {
	start time.Time
}

// NewTimer starts a Timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDurationVec records the elapsed time against a labeled histogram.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// RecordCacheResult increments the cache hit/miss counter for tier.
func RecordCacheResult(tier string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	CacheResultsTotal.WithLabelValues(tier, outcome).Inc()
}
