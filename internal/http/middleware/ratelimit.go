// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the submission rate limiter. The contact form is
// public and unauthenticated, so requests are keyed by client IP. Two
// backends satisfy Limiter:
//
//   - RateLimiter: in-memory, per-key token buckets (golang.org/x/time/rate)
//     with opportunistic garbage collection. Correct for a single process.
//   - RedisWindowLimiter (ratelimit_redis.go): a fixed window counted in
//     Redis, shared by every replica behind a load balancer.
//
// The limiter is abuse control, not authorization.
package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Limiter decides whether the request identified by key may proceed. When
// it may not, retryAfter is a hint for the Retry-After header. A non-nil
// error means the decision could not be made.
type Limiter interface {
	Allow(ctx context.Context, key string) (ok bool, retryAfter time.Duration, err error)
}

// KeyFunc selects the identity used to key a rate-limit bucket.
type KeyFunc func(*gin.Context) string

// KeyByClientIP keys buckets by c.ClientIP(), prefixed "ip:". Behind a proxy
// configure gin's trusted proxies so the forwarded address is used.
func KeyByClientIP() KeyFunc {
	return func(c *gin.Context) string {
		return "ip:" + c.ClientIP()
	}
}

// visitor holds a single rate limiter and the last time it was seen.
// Used to opportunistically evict idle buckets.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter implements a per-key token-bucket rate limiter.
//
// Buckets are created on demand and stored in an internal map guarded by a
// mutex. Idle buckets are evicted after a TTL via opportunistic cleanup during
// lookups to keep memory usage bounded.
//
// This type is safe for concurrent use.
type RateLimiter struct {
	rps      rate.Limit
	burst    int
	mu       sync.Mutex
	visitors map[string]*visitor

	ttl      time.Duration
	cleanupN uint64
}

// NewRateLimiter constructs a RateLimiter with the given tokens-per-second
// and burst size. burst <= 0 is coerced to 1.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		visitors: make(map[string]*visitor),
		ttl:      10 * time.Minute, // evict idle entries after TTL
	}
}

// getVisitor returns (and updates) the limiter for key, creating it if absent.
// It also performs opportunistic GC of idle entries after ~5000 lookups.
//
// GC runs before the requested visitor is touched so an old bucket can be
// evicted even when it is the one being fetched.
func (rl *RateLimiter) getVisitor(key string) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.cleanupN++
	if rl.cleanupN >= 5000 {
		for k, vv := range rl.visitors {
			if now.Sub(vv.lastSeen) >= rl.ttl {
				delete(rl.visitors, k)
			}
		}
		rl.cleanupN = 0
	}

	if v, ok := rl.visitors[key]; ok {
		v.lastSeen = now
		return v.limiter
	}

	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.visitors[key] = &visitor{limiter: lim, lastSeen: now}
	return lim
}

// Allow takes one token from key's bucket. It never returns an error.
func (rl *RateLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	lim := rl.getVisitor(key)
	if lim.Allow() {
		return true, 0, nil
	}
	retry := time.Second
	if rl.rps > 0 {
		retry = time.Duration(float64(time.Second) / float64(rl.rps))
	}
	return false, retry, nil
}

// RateLimit returns a Gin middleware enforcing l per keyFn identity.
//
// Denied requests get 429 with a Retry-After header (whole seconds, at
// least 1) and the standard error envelope:
//
//	{ "request_id": "<id>", "code": "too_many_requests", "error": "rate limit exceeded" }
//
// If the limiter itself fails (e.g. Redis is down) the request is allowed
// and the failure is logged: losing the limiter must not lose enquiries.
func RateLimit(l Limiter, keyFn KeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, retryAfter, err := l.Allow(c.Request.Context(), keyFn(c))
		if err != nil {
			LoggerFrom(c).Warn().Err(err).Msg("rate limiter unavailable, allowing request")
			c.Next()
			return
		}
		if allowed {
			c.Next()
			return
		}

		secs := int(math.Ceil(retryAfter.Seconds()))
		if secs < 1 {
			secs = 1
		}
		c.Header("Retry-After", strconv.Itoa(secs))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": RequestIDFrom(c),
			"code":       "too_many_requests",
			"error":      "rate limit exceeded",
		})
	}
}
