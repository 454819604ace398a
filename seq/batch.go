package seq

import (
	"context"
	"time"

	"github.com/Gzeu/salahor/types"
)

// Batch groups values into slices of up to size items. With a positive
// timeout, a partial batch is flushed once timeout has elapsed since its
// first item. Remaining items are flushed when the source ends.
func Batch[T any](size int, timeout time.Duration) Operator[T, []T] {
	return func(src Sequence[T]) Sequence[[]T] {
		if size <= 0 {
			return failSeq[[]T](types.NewError(types.ErrValidation, "batch size must be positive"))
		}
		if timeout <= 0 {
			return sizedBatch(src, size)
		}
		return timedBatch(src, size, timeout)
	}
}

// sizedBatch is the pure-pull variant: no timers, no pump goroutine.
func sizedBatch[T any](src Sequence[T], size int) Sequence[[]T] {
	done := false
	return FromFunc(func(ctx context.Context) ([]T, error) {
		if done {
			return nil, ErrEndOfSequence
		}
		buf := make([]T, 0, size)
		for len(buf) < size {
			v, err := src.Next(ctx)
			if err != nil {
				if isEnd(err) {
					done = true
					if len(buf) > 0 {
						return buf, nil
					}
					return nil, ErrEndOfSequence
				}
				return nil, types.NewError(types.ErrBatchFailure, "source failed mid-batch").WithCause(err)
			}
			buf = append(buf, v)
		}
		return buf, nil
	})
}

// timedBatch pumps the source on a goroutine so the flush timer can run
// concurrently with a blocked source read.
func timedBatch[T any](src Sequence[T], size int, timeout time.Duration) Sequence[[]T] {
	return newPump(func(ctx context.Context, emit func([]T) error) error {
		srcCh := readAhead(ctx, src)

		var buf []T
		var timer *time.Timer
		var timerC <-chan time.Time
		stopTimer := func() {
			if timer != nil {
				timer.Stop()
				timer = nil
				timerC = nil
			}
		}
		defer stopTimer()

		flush := func() error {
			if len(buf) == 0 {
				return nil
			}
			out := buf
			buf = nil
			stopTimer()
			return emit(out)
		}

		for {
			select {
			case r := <-srcCh:
				if r.err != nil {
					if isEnd(r.err) {
						return flush()
					}
					return types.NewError(types.ErrBatchFailure, "source failed mid-batch").WithCause(r.err)
				}
				buf = append(buf, r.value)
				if len(buf) == 1 {
					timer = time.NewTimer(timeout)
					timerC = timer.C
				}
				if len(buf) >= size {
					if err := flush(); err != nil {
						return err
					}
				}
			case <-timerC:
				timer = nil
				timerC = nil
				if err := flush(); err != nil {
					return err
				}
			case <-ctx.Done():
				return abortErr(ctx)
			}
		}
	})
}

// Window emits complete sliding windows of length size, advancing the start
// by slide per emission. A trailing partial window shorter than size is
// discarded, never emitted.
func Window[T any](size, slide int) Operator[T, []T] {
	return func(src Sequence[T]) Sequence[[]T] {
		if size <= 0 || slide <= 0 {
			return failSeq[[]T](types.NewError(types.ErrValidation, "window size and slide must be positive"))
		}
		var buf []T
		skip := 0
		done := false
		return FromFunc(func(ctx context.Context) ([]T, error) {
			if done {
				return nil, ErrEndOfSequence
			}
			for len(buf) < size {
				v, err := src.Next(ctx)
				if err != nil {
					if isEnd(err) {
						// Partial trailing window: discarded by design.
						done = true
						return nil, ErrEndOfSequence
					}
					return nil, err
				}
				if skip > 0 {
					skip--
					continue
				}
				buf = append(buf, v)
			}
			out := make([]T, size)
			copy(out, buf[:size])
			if slide >= len(buf) {
				skip = slide - len(buf)
				buf = nil
			} else {
				buf = buf[slide:]
			}
			return out, nil
		})
	}
}

type readResult[T any] struct {
	value T
	err   error
}

// readAhead pulls src on its own goroutine so callers can select between the
// source and timers. The goroutine exits after the first source error or when
// ctx is cancelled.
func readAhead[T any](ctx context.Context, src Sequence[T]) <-chan readResult[T] {
	ch := make(chan readResult[T])
	go func() {
		for {
			v, err := src.Next(ctx)
			select {
			case ch <- readResult[T]{value: v, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()
	return ch
}
