package middleware

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tetrabit/cardcache/internal/errors"
)

// NewRedisRateLimiter builds a per-source-IP fixed-window rate limiter
// backed by Redis INCR/EXPIRE, grounded on the teacher's ratelimit_test.go.
// It fails open (lets the request through) when Redis is unreachable, since
// a rate limiter outage should never become an outage of the API itself.
func NewRedisRateLimiter(client *redis.Client, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if client == nil || limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			ip := sourceIP(r)
			key := "ratelimit:" + ip

			ctx := r.Context()
			count, err := client.Incr(ctx, key).Result()
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			if count == 1 {
				client.Expire(ctx, key, window)
			}

			if count > int64(limit) {
				ttl, ttlErr := client.TTL(ctx, key).Result()
				if ttlErr != nil || ttl < 0 {
					ttl = window
				}
				w.Header().Set("Retry-After", strconv.Itoa(int(ttl.Seconds())))
				writeError(w, r, errors.RateLimitExceeded("rate limit exceeded, try again later"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func sourceIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
