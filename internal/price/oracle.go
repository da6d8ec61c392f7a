package price

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// maxFetchAttempts bounds the retries for a single refresh. After that the
// oracle keeps serving the last good quote — stale data beats no data.
const maxFetchAttempts = 3

// Quote is the last successfully fetched rate.
type Quote struct {
	Rate      float64
	FetchedAt time.Time
}

// Oracle caches the native-currency USD rate between refreshes. Refresh is
// expected to run on a poll.Poller; the oracle itself owns no schedule.
type Oracle struct {
	fetcher *Fetcher

	mu    sync.RWMutex
	quote *Quote
}

// NewOracle wraps a Fetcher with a stale-tolerant cache.
func NewOracle(f *Fetcher) *Oracle {
	return &Oracle{fetcher: f}
}

// Refresh fetches a new rate with bounded retry. On failure the previous
// quote is left untouched.
func (o *Oracle) Refresh(ctx context.Context) error {
	rate, err := backoff.Retry(ctx, func() (float64, error) {
		return o.fetcher.Fetch(ctx)
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(maxFetchAttempts))
	if err != nil {
		return err
	}

	o.mu.Lock()
	o.quote = &Quote{Rate: rate, FetchedAt: time.Now()}
	o.mu.Unlock()
	return nil
}

// Rate returns the cached rate. ok is false only before the first
// successful refresh — a failed refresh never invalidates the cache.
func (o *Oracle) Rate() (rate float64, ok bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.quote == nil {
		return 0, false
	}
	return o.quote.Rate, true
}

// Quote returns the full cached quote, or nil before the first success.
func (o *Oracle) Quote() *Quote {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.quote == nil {
		return nil
	}
	q := *o.quote
	return &q
}
