// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements a per-identity token-bucket admission gate evaluated
// before any other request processing. Buckets are held in a bounded
// in-memory cache: idle entries are evicted after a TTL, and a hard size cap
// keeps a large or spoofed identity space from growing the map without
// bound.
//
// Notes:
//   - This limiter is process-local. For horizontally scaled deployments,
//     prefer a distributed limiter (e.g., Redis-backed) to enforce global
//     limits.
package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// forwardedForHeader carries the original client address when the service
// sits behind a proxy. The first comma-separated value wins when the header
// contains a chain.
const forwardedForHeader = "X-Forwarded-For"

// ClientIdentity derives the rate-limit identity for a request: the first
// address in X-Forwarded-For when present, otherwise the host part of the
// direct connection address.
func ClientIdentity(r *http.Request) string {
	if fwd := r.Header.Get(forwardedForHeader); fwd != "" {
		if first, _, ok := strings.Cut(fwd, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(fwd)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// bucket holds a single identity's limiter and the last time it was seen,
// used for both TTL and size-cap eviction.
type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-identity token-bucket admission gate.
//
// Each bucket holds up to Capacity tokens and is refilled at
// RefillTokens/RefillInterval. One token is consumed per admitted call; a
// request finding an empty bucket is denied with a fixed 429 body and
// consumes no further state.
//
// This type is safe for concurrent use.
type RateLimiter struct {
	rps      rate.Limit
	capacity int

	mu      sync.Mutex
	buckets map[string]*bucket

	ttl        time.Duration
	maxBuckets int
	lookups    uint64
}

// RateLimiterOptions configures the bucket shape and cache bounds.
type RateLimiterOptions struct {
	// Capacity is the bucket size (max burst). Values <= 0 are coerced to 1.
	Capacity int
	// RefillTokens tokens are restored every RefillInterval.
	RefillTokens   int
	RefillInterval time.Duration
	// IdleTTL evicts buckets not seen for this long. <= 0 defaults to 10m.
	IdleTTL time.Duration
	// MaxBuckets caps the number of tracked identities. <= 0 defaults to 10000.
	MaxBuckets int
}

// NewRateLimiter constructs a RateLimiter from opts. The interval refill
// (RefillTokens per RefillInterval) is expressed as a continuous rate; over
// any full window the admitted counts are the same.
func NewRateLimiter(opts RateLimiterOptions) *RateLimiter {
	if opts.Capacity <= 0 {
		opts.Capacity = 1
	}
	if opts.RefillTokens <= 0 {
		opts.RefillTokens = opts.Capacity
	}
	if opts.RefillInterval <= 0 {
		opts.RefillInterval = time.Minute
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = 10 * time.Minute
	}
	if opts.MaxBuckets <= 0 {
		opts.MaxBuckets = 10000
	}
	return &RateLimiter{
		rps:        rate.Limit(float64(opts.RefillTokens) / opts.RefillInterval.Seconds()),
		capacity:   opts.Capacity,
		buckets:    make(map[string]*bucket),
		ttl:        opts.IdleTTL,
		maxBuckets: opts.MaxBuckets,
	}
}

// Admit consumes one token from the identity's bucket, creating the bucket
// full on first sight. It reports false when the bucket is empty.
func (rl *RateLimiter) Admit(identity string) bool {
	return rl.getBucket(identity).Allow()
}

// getBucket returns (and refreshes) the limiter for identity, creating it if
// absent. Idle entries are garbage collected opportunistically after ~5000
// lookups, and the oldest-idle entry is dropped when the cache is at its
// size cap.
//
// IMPORTANT: run GC *before* touching the requested bucket so an "old" entry
// can be evicted even when it is the one being fetched.
func (rl *RateLimiter) getBucket(identity string) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	rl.lookups++
	if rl.lookups >= 5000 {
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) >= rl.ttl {
				delete(rl.buckets, k)
			}
		}
		rl.lookups = 0
	}

	if b, ok := rl.buckets[identity]; ok {
		b.lastSeen = now
		lim := b.limiter
		rl.mu.Unlock()
		return lim
	}

	// At capacity: make room by dropping the entry idle the longest.
	if len(rl.buckets) >= rl.maxBuckets {
		var oldestKey string
		var oldestSeen time.Time
		for k, b := range rl.buckets {
			if oldestKey == "" || b.lastSeen.Before(oldestSeen) {
				oldestKey, oldestSeen = k, b.lastSeen
			}
		}
		delete(rl.buckets, oldestKey)
	}

	lim := rate.NewLimiter(rl.rps, rl.capacity)
	rl.buckets[identity] = &bucket{limiter: lim, lastSeen: now}
	rl.mu.Unlock()
	return lim
}

// Handler returns a Gin middleware enforcing the admission gate. Denied
// requests receive a fixed body:
//
//	HTTP/1.1 429 Too Many Requests
//	{
//	  "request_id": "<uuid>",
//	  "code":       "too_many_requests",
//	  "message":    "too many requests"
//	}
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := ClientIdentity(c.Request)
		if rl.Admit(identity) {
			c.Next()
			return
		}

		rateLimited.Inc()
		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get("X-Request-ID"),
			"code":       "too_many_requests",
			"message":    "too many requests",
		})
	}
}
