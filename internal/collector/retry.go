package collector

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

// RetryPolicy bounds the backoff loop around rate-limited fetches.
type RetryPolicy struct {
	MaxRetries int
	MaxBackoff time.Duration
	// Sleep waits for d or until ctx is done. Defaults to a timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy retries five times, waiting 1s, 2s, 4s, 8s and 16s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 5, MaxBackoff: 30 * time.Second}
}

// Backoff is min(2^attempt seconds, MaxBackoff).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt > 30 {
		return p.MaxBackoff
	}
	d := time.Duration(1<<uint(attempt)) * time.Second
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		return p.MaxBackoff
	}
	return d
}

func (p RetryPolicy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// withRetry calls fn until it succeeds, fails with something other than
// ErrRateLimited, or the retry budget is spent.
func withRetry[T any](ctx context.Context, p RetryPolicy, what string, fn func() (T, error)) (T, error) {
	for attempt := 0; ; attempt++ {
		v, err := fn()
		if err == nil || !errors.Is(err, ErrRateLimited) || attempt >= p.MaxRetries {
			return v, err
		}
		wait := p.Backoff(attempt)
		log.Warn().Str("fetch", what).Int("attempt", attempt+1).Int("max", p.MaxRetries).
			Dur("wait", wait).Msg("rate limited, retrying")
		if err := p.sleep(ctx, wait); err != nil {
			var zero T
			return zero, err
		}
	}
}
