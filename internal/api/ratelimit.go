package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Per-client token bucket throttling for the results API. Buckets refill
// continuously at ratePerMin/60 tokens per second up to the burst capacity;
// an empty bucket answers 429 with a Retry-After hint. Idle buckets are
// swept periodically so transient clients cannot grow the map without bound.

const bucketIdleTTL = 10 * time.Minute

type bucket struct {
	tokens float64
	seen   time.Time
}

// RateLimiter tracks one token bucket per client IP.
type RateLimiter struct {
	perSecond float64
	burst     float64

	mu      sync.Mutex
	buckets map[string]*bucket
}

// NewRateLimiter allows ratePerMin requests per minute per IP with the given
// burst capacity and starts the idle-bucket sweeper.
func NewRateLimiter(ratePerMin, burst int) *RateLimiter {
	rl := &RateLimiter{
		perSecond: float64(ratePerMin) / 60.0,
		burst:     float64(burst),
		buckets:   make(map[string]*bucket),
	}
	go rl.sweep()
	return rl
}

func (rl *RateLimiter) allow(ip string) (bool, time.Duration) {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[ip]
	if !ok {
		b = &bucket{tokens: rl.burst, seen: now}
		rl.buckets[ip] = b
	}

	b.tokens += now.Sub(b.seen).Seconds() * rl.perSecond
	if b.tokens > rl.burst {
		b.tokens = rl.burst
	}
	b.seen = now

	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	wait := time.Duration((1 - b.tokens) / rl.perSecond * float64(time.Second))
	return false, wait
}

// Middleware enforces the limit on every request passing through it.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if ok, retryAfter := rl.allow(c.ClientIP()); !ok {
			c.Header("Retry-After", retryAfter.String())
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":      "Rate limit exceeded",
				"retryAfter": retryAfter.String(),
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(bucketIdleTTL)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-bucketIdleTTL)
		rl.mu.Lock()
		for ip, b := range rl.buckets {
			if b.seen.Before(cutoff) {
				delete(rl.buckets, ip)
			}
		}
		rl.mu.Unlock()
	}
}
