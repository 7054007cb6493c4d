package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy retries an operation a fixed number of times with a fixed delay
// between attempts. The zero value is not usable; construct with the limits
// you need and optionally replace Sleep in tests.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration

	// Sleep waits between attempts. When nil a context-aware timer is used.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Do runs op until it succeeds or MaxAttempts is exhausted. It returns nil on
// the first success, the context error if canceled while waiting, and the
// last operation error otherwise.
func (p Policy) Do(ctx context.Context, op func(attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = op(attempt)
		if lastErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		if err := sleep(ctx, p.Delay); err != nil {
			return err
		}
	}
	return fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
