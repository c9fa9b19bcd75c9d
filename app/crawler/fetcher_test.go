package crawler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lysyi3m/hn-pulse/app/hn"
)

// scriptedGetter returns one queued response per call
type scriptedGetter struct {
	mu        sync.Mutex
	responses []scriptedResponse
	calls     int
}

type scriptedResponse struct {
	item *hn.Item
	err  error
}

func (g *scriptedGetter) GetItem(ctx context.Context, id int64) (*hn.Item, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.calls >= len(g.responses) {
		return nil, errors.New("no scripted response left")
	}
	resp := g.responses[g.calls]
	g.calls++
	return resp.item, resp.err
}

func newTestFetcher(getter ItemGetter, maxRetries int) *Fetcher {
	return NewFetcher(getter, NewRateLimiter(0), maxRetries, time.Millisecond)
}

func TestFetcher_SuccessFirstTry(t *testing.T) {
	getter := &scriptedGetter{responses: []scriptedResponse{
		{item: &hn.Item{ID: 42, Type: "story"}},
	}}

	fetcher := newTestFetcher(getter, 3)

	item, err := fetcher.Fetch(context.Background(), 42)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if item.ID != 42 {
		t.Errorf("Expected item 42, got %d", item.ID)
	}
	if getter.calls != 1 {
		t.Errorf("Expected 1 call, got %d", getter.calls)
	}
}

func TestFetcher_RetriesTransientThenSucceeds(t *testing.T) {
	getter := &scriptedGetter{responses: []scriptedResponse{
		{err: &hn.StatusError{Code: 503}},
		{err: &hn.StatusError{Code: 502}},
		{item: &hn.Item{ID: 7, Type: "comment", Text: "hello"}},
	}}

	fetcher := newTestFetcher(getter, 3)

	item, err := fetcher.Fetch(context.Background(), 7)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if item.ID != 7 {
		t.Errorf("Expected item 7, got %d", item.ID)
	}
	if getter.calls != 3 {
		t.Errorf("Expected 3 calls, got %d", getter.calls)
	}
}

func TestFetcher_ExhaustsRetries(t *testing.T) {
	getter := &scriptedGetter{responses: []scriptedResponse{
		{err: &hn.StatusError{Code: 500}},
		{err: &hn.StatusError{Code: 500}},
		{err: &hn.StatusError{Code: 500}},
	}}

	fetcher := newTestFetcher(getter, 2)

	_, err := fetcher.Fetch(context.Background(), 9)

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected FetchError, got %v", err)
	}
	if fetchErr.ID != 9 {
		t.Errorf("Expected failing id 9, got %d", fetchErr.ID)
	}
	if getter.calls != 3 {
		t.Errorf("Expected 3 calls (initial + 2 retries), got %d", getter.calls)
	}
}

func TestFetcher_NotFoundNeverRetried(t *testing.T) {
	getter := &scriptedGetter{responses: []scriptedResponse{
		{err: hn.ErrNotFound},
	}}

	fetcher := newTestFetcher(getter, 3)

	_, err := fetcher.Fetch(context.Background(), 5)
	if !errors.Is(err, hn.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	if getter.calls != 1 {
		t.Errorf("NotFound must not be retried, got %d calls", getter.calls)
	}
}

func TestFetcher_ClientErrorNotRetried(t *testing.T) {
	getter := &scriptedGetter{responses: []scriptedResponse{
		{err: &hn.StatusError{Code: 403}},
	}}

	fetcher := newTestFetcher(getter, 3)

	_, err := fetcher.Fetch(context.Background(), 5)

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected FetchError, got %v", err)
	}
	if getter.calls != 1 {
		t.Errorf("4xx must not be retried, got %d calls", getter.calls)
	}
}

func TestFetcher_DecodeErrorNotRetried(t *testing.T) {
	// A malformed body decodes the same way on every attempt, so
	// retrying only burns the budget
	getter := &scriptedGetter{responses: []scriptedResponse{
		{err: &hn.DecodeError{What: "item 5", Err: errors.New("unexpected end of JSON input")}},
	}}

	fetcher := newTestFetcher(getter, 3)

	_, err := fetcher.Fetch(context.Background(), 5)

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected FetchError, got %v", err)
	}
	var decodeErr *hn.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Errorf("Expected the decode error to be preserved, got %v", err)
	}
	if getter.calls != 1 {
		t.Errorf("Decode failures must not be retried, got %d calls", getter.calls)
	}
}

func TestFetcher_CancelledContext(t *testing.T) {
	getter := &scriptedGetter{responses: []scriptedResponse{
		{err: &hn.StatusError{Code: 500}},
		{err: &hn.StatusError{Code: 500}},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := NewFetcher(getter, NewRateLimiter(0), 3, time.Minute)

	_, err := fetcher.Fetch(ctx, 5)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
}

func TestRateLimiter_EnforcesInterval(t *testing.T) {
	limiter := NewRateLimiter(20 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := limiter.Acquire(ctx); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}
	elapsed := time.Since(start)

	// First slot is immediate, the next two wait one interval each
	if elapsed < 40*time.Millisecond {
		t.Errorf("Three acquisitions finished in %v, expected at least 40ms", elapsed)
	}
}

func TestRateLimiter_ConcurrentCallers(t *testing.T) {
	limiter := NewRateLimiter(5 * time.Millisecond)
	ctx := context.Background()

	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := limiter.Acquire(ctx); err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if elapsed := time.Since(start); elapsed < 15*time.Millisecond {
		t.Errorf("Four concurrent acquisitions finished in %v, expected at least 15ms", elapsed)
	}
}

func TestRateLimiter_CancelledWait(t *testing.T) {
	limiter := NewRateLimiter(time.Hour)
	ctx := context.Background()

	// Drain the first immediate slot
	if err := limiter.Acquire(ctx); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	cancelCtx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()

	if err := limiter.Acquire(cancelCtx); err == nil {
		t.Error("Expected an error when the wait outlives the context")
	}
}
