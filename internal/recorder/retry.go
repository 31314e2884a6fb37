package recorder

import (
	"context"
	"fmt"
	"time"
)

// Backoff controls RetryWithBackoff.
type Backoff struct {
	Attempts     int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Rate         float64
}

// DefaultBackoff makes 3 attempts, starting at 1s and doubling up to 30s.
var DefaultBackoff = Backoff{
	Attempts:     3,
	InitialDelay: 1 * time.Second,
	MaxDelay:     30 * time.Second,
	Rate:         2.0,
}

// RetryWithBackoff runs fn until it succeeds or DefaultBackoff is exhausted.
func RetryWithBackoff(ctx context.Context, fn func(context.Context) error) error {
	return DefaultBackoff.Retry(ctx, fn)
}

// Retry runs fn up to b.Attempts times with exponential delay between tries.
//
// Context cancellation is respected before each attempt and while sleeping.
// The last error is returned wrapped with the attempt count.
func (b Backoff) Retry(ctx context.Context, fn func(context.Context) error) error {
	var lastErr error
	delay := b.InitialDelay

	for attempt := 0; attempt < b.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		// Don't sleep after last attempt
		if attempt < b.Attempts-1 {
			select {
			case <-time.After(delay):
				delay = time.Duration(float64(delay) * b.Rate)
				if delay > b.MaxDelay {
					delay = b.MaxDelay
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return fmt.Errorf("failed after %d retries: %w", b.Attempts, lastErr)
}
