package seq

import (
	"context"
	"time"

	"github.com/Gzeu/salahor/types"
)

// DebounceTime emits a value only once d has elapsed without a newer value
// arriving; each arrival discards the previous pending value and restarts the
// timer. A still-pending value is flushed when the source ends.
func DebounceTime[T any](d time.Duration) Operator[T, T] {
	return func(src Sequence[T]) Sequence[T] {
		if d <= 0 {
			return failSeq[T](types.NewError(types.ErrValidation, "debounce duration must be positive"))
		}
		return newPump(func(ctx context.Context, emit func(T) error) error {
			srcCh := readAhead(ctx, src)

			var pending T
			hasPending := false
			var timer *time.Timer
			var timerC <-chan time.Time
			defer func() {
				if timer != nil {
					timer.Stop()
				}
			}()

			for {
				select {
				case r := <-srcCh:
					if r.err != nil {
						if isEnd(r.err) {
							if hasPending {
								return emit(pending)
							}
							return nil
						}
						return r.err
					}
					pending = r.value
					hasPending = true
					if timer == nil {
						timer = time.NewTimer(d)
						timerC = timer.C
					} else {
						if !timer.Stop() {
							<-timerC
						}
						timer.Reset(d)
					}
				case <-timerC:
					timer = nil
					timerC = nil
					if hasPending {
						hasPending = false
						if err := emit(pending); err != nil {
							return err
						}
					}
				case <-ctx.Done():
					return abortErr(ctx)
				}
			}
		})
	}
}

// ThrottleOptions selects which edge of each throttle window emits.
type ThrottleOptions struct {
	// Leading emits a value arriving outside any open window immediately.
	Leading bool
	// Trailing emits the last value held during a window when it closes.
	Trailing bool
}

// ThrottleTime rate-limits the source to at most one emission per window of
// length d. A value arriving at least d after the last emission opens a new
// window; values arriving sooner replace the window's pending value. With
// Trailing set, the pending value is emitted exactly once at window close;
// with Leading unset, the value opening a window is held instead of emitted.
func ThrottleTime[T any](d time.Duration, opts ThrottleOptions) Operator[T, T] {
	return func(src Sequence[T]) Sequence[T] {
		if d <= 0 {
			return failSeq[T](types.NewError(types.ErrValidation, "throttle duration must be positive"))
		}
		return newPump(func(ctx context.Context, emit func(T) error) error {
			srcCh := readAhead(ctx, src)

			var pending T
			hasPending := false
			var windowEnd time.Time
			var timer *time.Timer
			var timerC <-chan time.Time
			defer func() {
				if timer != nil {
					timer.Stop()
				}
			}()

			openWindow := func(now time.Time) {
				windowEnd = now.Add(d)
				if timer == nil {
					timer = time.NewTimer(d)
					timerC = timer.C
				} else {
					if !timer.Stop() {
						select {
						case <-timerC:
						default:
						}
					}
					timer.Reset(d)
				}
			}

			for {
				select {
				case r := <-srcCh:
					if r.err != nil {
						if isEnd(r.err) {
							if hasPending && opts.Trailing {
								return emit(pending)
							}
							return nil
						}
						return r.err
					}
					now := time.Now()
					if now.After(windowEnd) {
						// Outside any window: this value is the leading edge.
						openWindow(now)
						if opts.Leading {
							if err := emit(r.value); err != nil {
								return err
							}
						} else {
							pending = r.value
							hasPending = true
						}
					} else {
						pending = r.value
						hasPending = true
					}
				case <-timerC:
					// Window closed.
					if hasPending && opts.Trailing {
						hasPending = false
						openWindow(time.Now())
						if err := emit(pending); err != nil {
							return err
						}
					} else {
						hasPending = false
					}
				case <-ctx.Done():
					return abortErr(ctx)
				}
			}
		})
	}
}

// Timeout fails the sequence with OPERATOR_TIMEOUT if the source does not
// produce the next value within d.
func Timeout[T any](d time.Duration) Operator[T, T] {
	return func(src Sequence[T]) Sequence[T] {
		if d <= 0 {
			return failSeq[T](types.NewError(types.ErrValidation, "timeout duration must be positive"))
		}
		return FromFunc(func(ctx context.Context) (T, error) {
			tctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()

			v, err := src.Next(tctx)
			if err != nil && tctx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
				var zero T
				return zero, types.NewError(types.ErrOperatorTimeout, "source produced no value in time").WithCause(err)
			}
			return v, err
		})
	}
}
