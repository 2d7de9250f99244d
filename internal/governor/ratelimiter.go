package governor

import (
	"context"
	"sync"
	"time"
)

// rateLimiter is a simple token bucket: ratePerSecond tokens refill every
// second, up to a burst of the same size. One bucket exists per switch id,
// consumed once per CLI write (§4.2's "commands-per-second token bucket per
// switch").
type rateLimiter struct {
	mu         sync.Mutex
	tokens     float64
	capacity   float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

func newRateLimiter(perSecond int) *rateLimiter {
	capacity := float64(perSecond)
	return &rateLimiter{
		tokens:     capacity,
		capacity:   capacity,
		refillRate: capacity,
		lastRefill: time.Now(),
	}
}

func (r *rateLimiter) refill() {
	now := time.Now()
	elapsed := now.Sub(r.lastRefill).Seconds()
	r.tokens = min(r.capacity, r.tokens+elapsed*r.refillRate)
	r.lastRefill = now
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// wait blocks until a token is available or ctx is done.
func (r *rateLimiter) wait(ctx context.Context) error {
	for {
		r.mu.Lock()
		r.refill()
		if r.tokens >= 1 {
			r.tokens--
			r.mu.Unlock()
			return nil
		}
		deficit := 1 - r.tokens
		wait := time.Duration(deficit / r.refillRate * float64(time.Second))
		r.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}
