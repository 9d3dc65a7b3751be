package translate

import (
	"context"
	"errors"
	"time"

	"subtrans/internal/services"
)

const (
	defaultRetryAttempts  = 6
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryMaxDelay  = 10 * time.Second
)

// Backoff describes the retry policy shared by context detection and chunk
// translation. Sleeper overrides how delays are performed, which keeps retry
// tests fast.
type Backoff struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Sleeper     func(time.Duration)
}

// DefaultBackoff returns the repository default retry policy.
func DefaultBackoff() Backoff {
	return Backoff{
		MaxAttempts: defaultRetryAttempts,
		BaseDelay:   defaultRetryBaseDelay,
		MaxDelay:    defaultRetryMaxDelay,
	}
}

func (b Backoff) attempts() int {
	if b.MaxAttempts <= 0 {
		return 1
	}
	return b.MaxAttempts
}

// delay computes the pause before the attempt following the given 1-based
// attempt: base, base*2, base*4, ... capped at MaxDelay.
func (b Backoff) delay(attempt int) time.Duration {
	base := b.BaseDelay
	if base < 0 {
		base = defaultRetryBaseDelay
	}
	maxDelay := b.MaxDelay
	if maxDelay <= 0 {
		maxDelay = defaultRetryMaxDelay
	}
	if base == 0 {
		return 0
	}
	if attempt < 1 {
		attempt = 1
	}
	delay := base
	for i := 1; i < attempt; i++ {
		if delay > maxDelay/2 {
			delay = maxDelay
			break
		}
		delay *= 2
	}
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

// delayAfter computes the pause before the attempt following the given
// failure. A server-suggested delay on the error wins over the exponential
// schedule, still capped at MaxDelay.
func (b Backoff) delayAfter(attempt int, err error) time.Duration {
	if hint, ok := services.RetryDelay(err); ok {
		maxDelay := b.MaxDelay
		if maxDelay <= 0 {
			maxDelay = defaultRetryMaxDelay
		}
		if hint > maxDelay {
			return maxDelay
		}
		return hint
	}
	return b.delay(attempt)
}

func (b Backoff) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if ctx == nil {
		return errors.New("translate retry: nil context")
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if b.Sleeper != nil {
		b.Sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
