package stream

import (
	"fmt"
	"sync"
)

// Operator transforms a stream into a derived stream of the same element
// type. Type-changing transforms are free functions (see Map).
type Operator[T any] func(*EventStream[T]) *EventStream[T]

// Pipe composes operators left-to-right over the stream. The returned
// stream's listener lifecycle is independent of the receiver's.
func (s *EventStream[T]) Pipe(ops ...Operator[T]) *EventStream[T] {
	out := s
	for _, op := range ops {
		out = op(out)
	}
	return out
}

// derive wires a child stream to src: values flow through forward, completion
// propagates, and the child's teardown detaches it from src.
func derive[T, R any](src *EventStream[T], out *EventStream[R], forward func(T)) *EventStream[R] {
	unsubscribe := src.Subscribe(Observer[T]{
		Next: func(v T) error {
			forward(v)
			return nil
		},
		Complete: out.Complete,
	})
	out.mu.Lock()
	prev := out.teardown
	out.teardown = func() {
		unsubscribe()
		if prev != nil {
			prev()
		}
	}
	out.mu.Unlock()
	return out
}

// Map returns a stream emitting f applied to each value of src.
func Map[T, R any](src *EventStream[T], f func(T) R) *EventStream[R] {
	out := New[R](Options{Name: src.name + ".map", Logger: src.logger, Metrics: src.metrics})
	return derive(src, out, func(v T) {
		out.Emit(f(v))
	})
}

// Filter returns an operator forwarding only values matching pred.
func Filter[T any](pred func(T) bool) Operator[T] {
	return func(src *EventStream[T]) *EventStream[T] {
		out := New[T](Options{Name: src.name + ".filter", Logger: src.logger, Metrics: src.metrics})
		return derive(src, out, func(v T) {
			if pred(v) {
				out.Emit(v)
			}
		})
	}
}

// Take returns an operator forwarding the first n values, then completing.
func Take[T any](n int) Operator[T] {
	return func(src *EventStream[T]) *EventStream[T] {
		out := New[T](Options{Name: src.name + ".take", Logger: src.logger, Metrics: src.metrics})
		var mu sync.Mutex
		seen := 0
		return derive(src, out, func(v T) {
			mu.Lock()
			if seen >= n {
				mu.Unlock()
				return
			}
			seen++
			last := seen == n
			mu.Unlock()

			out.Emit(v)
			if last {
				out.Complete()
			}
		})
	}
}

// Tap returns an operator invoking fn for each value without altering flow.
func Tap[T any](fn func(T)) Operator[T] {
	return func(src *EventStream[T]) *EventStream[T] {
		out := New[T](Options{Name: src.name + ".tap", Logger: src.logger, Metrics: src.metrics})
		return derive(src, out, func(v T) {
			fn(v)
			out.Emit(v)
		})
	}
}

func recoveredError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("listener panic: %v", r)
}
