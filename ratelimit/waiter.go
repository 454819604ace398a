package ratelimit

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/Gzeu/salahor/types"
)

// Waiter is a blocking admission gate, for callers that prefer to wait out a
// denial instead of handling a Result. It sits naturally in front of stream
// emission or pool submission.
type Waiter struct {
	lim *rate.Limiter
}

// NewWaiter returns a waiter admitting perSecond events with bursts up to
// burst.
func NewWaiter(perSecond float64, burst int) *Waiter {
	if burst < 1 {
		burst = 1
	}
	return &Waiter{lim: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Wait blocks until one event may proceed or ctx is cancelled.
func (w *Waiter) Wait(ctx context.Context) error {
	if err := w.lim.Wait(ctx); err != nil {
		return types.NewError(types.ErrOperationAborted, "rate limit wait cancelled").WithCause(err)
	}
	return nil
}

// Allow reports whether one event may proceed right now, consuming it if so.
func (w *Waiter) Allow() bool {
	return w.lim.Allow()
}
