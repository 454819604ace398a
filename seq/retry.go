package seq

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/Gzeu/salahor/types"
)

// RetryOptions configures Retry.
type RetryOptions struct {
	// MaxAttempts is the total number of attempts, including the first.
	// Values below 1 fall back to 3.
	MaxAttempts int
	// Backoff returns the delay before the given attempt (1-based, counting
	// the attempt that just failed). Nil uses DefaultBackoff.
	Backoff func(attempt int) time.Duration
	// RetryIf gates which errors are retried. Nil retries every error.
	RetryIf func(error) bool

	Logger *zap.Logger
}

// DefaultBackoff implements exponential backoff capped at 30 seconds:
// 1s, 2s, 4s, 8s, ...
func DefaultBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := float64(time.Second) * math.Pow(2, float64(attempt-1))
	if d > float64(30*time.Second) {
		d = float64(30 * time.Second)
	}
	return time.Duration(d)
}

// Retry re-drives the source from the start on error. Because sequences are
// non-restartable, the source is supplied as a factory invoked once per
// attempt. After the last failed attempt, a non-retryable error, or
// cancellation, the sequence fails with RETRY_EXHAUSTED carrying the attempt
// count and last cause.
func Retry[T any](factory func() Sequence[T], opts RetryOptions) Sequence[T] {
	maxAttempts := opts.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 3
	}
	backoff := opts.Backoff
	if backoff == nil {
		backoff = DefaultBackoff
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "retry"))

	attempt := 1
	cur := factory()

	exhausted := func(lastErr error) error {
		logger.Warn("retry attempts exhausted",
			zap.Int("attempts", attempt),
			zap.Error(lastErr),
		)
		return types.NewError(types.ErrRetryExhausted,
			fmt.Sprintf("giving up after %d attempts", attempt)).
			WithAttempts(attempt).
			WithCause(lastErr)
	}

	return FromFunc(func(ctx context.Context) (T, error) {
		var zero T
		for {
			v, err := cur.Next(ctx)
			if err == nil {
				return v, nil
			}
			if isEnd(err) {
				return zero, ErrEndOfSequence
			}
			if ctx.Err() != nil {
				return zero, exhausted(err)
			}
			if opts.RetryIf != nil && !opts.RetryIf(err) {
				logger.Debug("error not retryable", zap.Error(err))
				return zero, exhausted(err)
			}
			if attempt >= maxAttempts {
				return zero, exhausted(err)
			}

			delay := backoff(attempt)
			logger.Debug("retrying source",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", maxAttempts),
				zap.Duration("delay", delay),
				zap.Error(err),
			)

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, exhausted(err)
			case <-timer.C:
			}

			attempt++
			cur = factory()
		}
	})
}
