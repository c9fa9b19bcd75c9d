package crawler

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/lysyi3m/hn-pulse/app/hn"
)

// ItemGetter is the raw API surface the fetcher decorates
type ItemGetter interface {
	GetItem(ctx context.Context, id int64) (*hn.Item, error)
}

// ItemFetcher is what the tree and article crawlers consume
type ItemFetcher interface {
	Fetch(ctx context.Context, id int64) (*hn.Item, error)
}

// Fetcher retrieves single items through the shared rate limiter, retrying
// transient failures with capped exponential backoff. NotFound is terminal
// and never retried. Retry, rate limiting, and the raw HTTP call are kept
// in separate layers so each policy can be tested on its own.
type Fetcher struct {
	client     ItemGetter
	limiter    *RateLimiter
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

var _ ItemFetcher = (*Fetcher)(nil)

func NewFetcher(client ItemGetter, limiter *RateLimiter, maxRetries int, baseDelay time.Duration) *Fetcher {
	return &Fetcher{
		client:     client,
		limiter:    limiter,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		maxDelay:   30 * time.Second,
	}
}

// Fetch returns the item, hn.ErrNotFound for missing items, or a
// *FetchError once retries are exhausted.
func (f *Fetcher) Fetch(ctx context.Context, id int64) (*hn.Item, error) {
	var lastErr error

	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if attempt > 0 {
			delay := f.backoffDelay(attempt)
			slog.Debug("Retrying item fetch", "id", id, "attempt", attempt, "delay", delay.String(), "error", lastErr)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := f.limiter.Acquire(ctx); err != nil {
			return nil, err
		}

		item, err := f.client.GetItem(ctx, id)
		if err == nil {
			return item, nil
		}
		if errors.Is(err, hn.ErrNotFound) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !isRetryable(err) {
			return nil, &FetchError{ID: id, Err: err}
		}

		lastErr = err
	}

	return nil, &FetchError{ID: id, Err: lastErr}
}

func (f *Fetcher) backoffDelay(attempt int) time.Duration {
	delay := f.baseDelay << uint(attempt-1)
	if delay > f.maxDelay || delay <= 0 {
		delay = f.maxDelay
	}
	return delay
}

// isRetryable classifies an error as transient. Server-side 5xx responses,
// timeouts, and transport failures are retried; anything the server
// answered deliberately (4xx, malformed bodies) is not.
func isRetryable(err error) bool {
	var statusErr *hn.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}

	var decodeErr *hn.DecodeError
	if errors.As(err, &decodeErr) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	// Remaining wrapped transport errors (connection reset, EOF) come
	// through as plain url.Error values without a net.Error inside
	return true
}
