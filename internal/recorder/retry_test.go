package recorder

import (
	"context"
	"errors"
	"testing"
	"time"
)

var fastBackoff = Backoff{
	Attempts:     3,
	InitialDelay: time.Millisecond,
	MaxDelay:     5 * time.Millisecond,
	Rate:         2.0,
}

func TestRetry(t *testing.T) {
	t.Run("succeeds on first try", func(t *testing.T) {
		callCount := 0
		err := fastBackoff.Retry(context.Background(), func(ctx context.Context) error {
			callCount++
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if callCount != 1 {
			t.Errorf("got %d calls, want 1", callCount)
		}
	})

	t.Run("retries on transient error", func(t *testing.T) {
		callCount := 0
		err := fastBackoff.Retry(context.Background(), func(ctx context.Context) error {
			callCount++
			if callCount < 3 {
				return errors.New("network error")
			}
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if callCount != 3 {
			t.Errorf("got %d calls, want 3", callCount)
		}
	})

	t.Run("fails after max retries", func(t *testing.T) {
		callCount := 0
		testErr := errors.New("persistent error")
		err := fastBackoff.Retry(context.Background(), func(ctx context.Context) error {
			callCount++
			return testErr
		})
		if !errors.Is(err, testErr) {
			t.Errorf("expected error to wrap testErr, got %v", err)
		}
		if callCount != 3 {
			t.Errorf("got %d calls, want 3 (max retries)", callCount)
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := RetryWithBackoff(ctx, func(ctx context.Context) error {
			return errors.New("should not retry")
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
