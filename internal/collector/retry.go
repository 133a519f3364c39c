package collector

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
)

// RetryPolicy bounds the backoff loop around a single provider call.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// DefaultRetryPolicy absorbs provider rate limiting without hammering it.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:  3,
		BaseDelay: 500 * time.Millisecond,
		MaxDelay:  8 * time.Second,
	}
}

// withRetry runs fn up to Attempts times with exponential backoff plus
// uniform jitter between attempts. Non-retryable errors and context
// expiry stop the loop immediately. The last error is returned.
func withRetry(ctx context.Context, log zerolog.Logger, p RetryPolicy, fn func() error) error {
	if p.Attempts < 1 {
		p.Attempts = 1
	}

	var err error
	delay := p.BaseDelay
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if !retryable(err) || attempt == p.Attempts {
			return err
		}

		// Uniform jitter: sleep between 50% and 100% of the current delay.
		sleep := delay/2 + time.Duration(rand.Int63n(int64(delay/2)+1))
		log.Debug().Err(err).Int("attempt", attempt).Dur("backoff", sleep).Msg("retrying fetch")

		select {
		case <-time.After(sleep):
		case <-ctx.Done():
			return ctx.Err()
		}

		delay *= 2
		if delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
	return err
}
