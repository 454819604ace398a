package stream

import (
	"context"
	"sync"
	"time"
)

// Interval returns a stream emitting an incrementing counter every d. The
// ticker starts immediately and stops when the stream completes, when its
// last listener unsubscribes, or when ctx is cancelled.
func Interval(ctx context.Context, d time.Duration, opts Options) *EventStream[int64] {
	stop := make(chan struct{})
	var once sync.Once
	opts.Teardown = func() {
		once.Do(func() { close(stop) })
	}
	s := New[int64](opts)

	go func() {
		ticker := time.NewTicker(d)
		defer ticker.Stop()
		var n int64
		for {
			select {
			case <-ticker.C:
				s.Emit(n)
				n++
			case <-stop:
				s.Complete()
				return
			case <-ctx.Done():
				s.Complete()
				return
			}
		}
	}()

	return s
}

// FromChannel returns a stream pumping values from ch. The stream completes
// when ch is closed or ctx is cancelled; teardown stops the pump without
// draining the channel.
func FromChannel[T any](ctx context.Context, ch <-chan T, opts Options) *EventStream[T] {
	stop := make(chan struct{})
	var once sync.Once
	opts.Teardown = func() {
		once.Do(func() { close(stop) })
	}
	s := New[T](opts)

	go func() {
		for {
			select {
			case v, ok := <-ch:
				if !ok {
					s.Complete()
					return
				}
				s.Emit(v)
			case <-stop:
				s.Complete()
				return
			case <-ctx.Done():
				s.Complete()
				return
			}
		}
	}()

	return s
}

// FromSlice returns a stream that, once its first listener subscribes, emits
// every value in order on a separate goroutine and then completes.
func FromSlice[T any](values []T, opts Options) *EventStream[T] {
	s := New[T](opts)

	started := make(chan struct{})
	var once sync.Once

	// Replay begins on the first subscription so that no value is emitted
	// into an empty listener set.
	go func() {
		<-started
		for _, v := range values {
			s.Emit(v)
		}
		s.Complete()
	}()

	s.onSubscribe = func() {
		once.Do(func() { close(started) })
	}

	return s
}
