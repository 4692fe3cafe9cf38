package api

import (
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/gridpools/scorewire/internal/api/respond"
)

// TimingMiddleware stamps every response with its handler time in the
// X-Process-Time header.
func TimingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		ms := float64(time.Since(start).Microseconds()) / 1000.0
		w.Header().Set("X-Process-Time", fmt.Sprintf("%.2fms", ms))
	})
}

// clientBuckets holds one token bucket per client IP. Buckets are never
// evicted; the client population of a pool API is small and each bucket
// is a few words.
type clientBuckets struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	limit   rate.Limit
	burst   int
}

func newClientBuckets(requestsPerWindow int, window time.Duration) *clientBuckets {
	burst := requestsPerWindow / 2
	if burst < 1 {
		burst = 1
	}
	return &clientBuckets{
		buckets: make(map[string]*rate.Limiter),
		limit:   rate.Limit(float64(requestsPerWindow) / window.Seconds()),
		burst:   burst,
	}
}

// allow reports whether the client may proceed, creating its bucket on
// first sight.
func (c *clientBuckets) allow(ip string) bool {
	c.mu.Lock()
	b, ok := c.buckets[ip]
	if !ok {
		b = rate.NewLimiter(c.limit, c.burst)
		c.buckets[ip] = b
	}
	c.mu.Unlock()
	return b.Allow()
}

// RateLimitMiddleware rejects clients that exceed their per-IP token
// bucket with a 429 and a Retry-After covering the configured window.
func RateLimitMiddleware(requestsPerWindow int, window time.Duration) func(http.Handler) http.Handler {
	limiter := newClientBuckets(requestsPerWindow, window)
	retryAfter := fmt.Sprintf("%d", int(window.Seconds()))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil || ip == "" {
				ip = r.RemoteAddr
			}
			if !limiter.allow(ip) {
				w.Header().Set("Retry-After", retryAfter)
				respond.WriteError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
