package middleware

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"stroketraining/internal/service"
)

// limiterCacheSize and limiterIdleTTL bound the per-key bucket cache so the
// process does not accumulate a bucket per subject and IP it ever saw.
// An evicted caller simply starts over with a fresh burst.
const (
	limiterCacheSize = 16384
	limiterIdleTTL   = 10 * time.Minute
)

// RateLimiter enforces a token-bucket limit per caller. Authenticated
// requests are keyed by subject so users behind a shared NAT are limited
// individually; anonymous requests fall back to the client IP.
type RateLimiter struct {
	rps   float64
	burst int

	mu       sync.Mutex
	limiters *expirable.LRU[string, *rate.Limiter]
}

// NewRateLimiter creates a limiter allowing rps events per second with the
// given burst per key.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		rps:      rps,
		burst:    burst,
		limiters: expirable.NewLRU[string, *rate.Limiter](limiterCacheSize, nil, limiterIdleTTL),
	}
}

func (r *RateLimiter) limiter(key string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	lim, ok := r.limiters.Get(key)
	if !ok {
		lim = rate.NewLimiter(rate.Limit(r.rps), r.burst)
		r.limiters.Add(key, lim)
	}
	return lim
}

// Handler returns the fiber middleware handler.
func (r *RateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := "ip:" + c.IP()
		if a, ok := c.Locals(ActorLocalKey).(service.Actor); ok && a.ID != "" {
			key = "sub:" + a.ID
		}

		if !r.limiter(key).Allow() {
			c.Set(fiber.HeaderRetryAfter, "1")
			return fiber.NewError(fiber.StatusTooManyRequests, "rate limit exceeded")
		}

		return c.Next()
	}
}
