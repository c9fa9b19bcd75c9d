package crawler

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter bounds the aggregate request rate against the upstream API.
// One instance is shared by every fetch path, so article-level concurrency
// does not multiply the request rate. Burst is fixed at 1: concurrent
// callers queue and are released one per interval, in arrival order.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a limiter releasing one request per interval.
// A non-positive interval disables limiting.
func NewRateLimiter(interval time.Duration) *RateLimiter {
	if interval <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Acquire blocks until the next request slot is available or the context
// is cancelled.
func (r *RateLimiter) Acquire(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
