package seq

import (
	"context"
	"errors"
	"sync"

	"github.com/Gzeu/salahor/queue"
	"github.com/Gzeu/salahor/types"
)

// ErrEndOfSequence is returned by Next when a sequence is exhausted.
var ErrEndOfSequence = errors.New("end of sequence")

// Sequence is a lazy, non-restartable source of values consumed by explicit
// iteration. A sequence terminates by returning ErrEndOfSequence; any other
// error terminates iteration exceptionally.
type Sequence[T any] interface {
	Next(ctx context.Context) (T, error)
}

// Operator is a pure function from a sequence of T to a sequence of R.
// Operators are stateless except for per-application closures.
type Operator[T, R any] func(Sequence[T]) Sequence[R]

// Pipe composes same-type operators left-to-right over src.
func Pipe[T any](src Sequence[T], ops ...Operator[T, T]) Sequence[T] {
	out := src
	for _, op := range ops {
		out = op(out)
	}
	return out
}

type funcSeq[T any] struct {
	next func(ctx context.Context) (T, error)
}

func (s *funcSeq[T]) Next(ctx context.Context) (T, error) {
	return s.next(ctx)
}

// FromFunc builds a sequence from a Next function.
func FromFunc[T any](next func(ctx context.Context) (T, error)) Sequence[T] {
	return &funcSeq[T]{next: next}
}

// failSeq yields err on every Next. Used by operators to surface argument
// validation failures lazily.
func failSeq[T any](err error) Sequence[T] {
	return FromFunc(func(context.Context) (T, error) {
		var zero T
		return zero, err
	})
}

// FromSlice returns a sequence over the given values.
func FromSlice[T any](values []T) Sequence[T] {
	i := 0
	return FromFunc(func(context.Context) (T, error) {
		if i >= len(values) {
			var zero T
			return zero, ErrEndOfSequence
		}
		v := values[i]
		i++
		return v, nil
	})
}

// FromChannel returns a sequence draining ch; it ends when ch is closed.
func FromChannel[T any](ch <-chan T) Sequence[T] {
	return FromFunc(func(ctx context.Context) (T, error) {
		var zero T
		select {
		case v, ok := <-ch:
			if !ok {
				return zero, ErrEndOfSequence
			}
			return v, nil
		case <-ctx.Done():
			return zero, abortErr(ctx)
		}
	})
}

// FromQueue returns a sequence consuming a backpressure queue. The sequence
// ends when the queue ends without error.
func FromQueue[T any](q *queue.BackpressureQueue[T]) Sequence[T] {
	return FromFunc(func(ctx context.Context) (T, error) {
		v, err := q.Next(ctx)
		if errors.Is(err, queue.ErrQueueEnded) {
			var zero T
			return zero, ErrEndOfSequence
		}
		return v, err
	})
}

// Collect drains src into a slice. A sequence error other than
// ErrEndOfSequence is returned alongside the values read so far.
func Collect[T any](ctx context.Context, src Sequence[T]) ([]T, error) {
	var out []T
	for {
		v, err := src.Next(ctx)
		if err != nil {
			if errors.Is(err, ErrEndOfSequence) {
				return out, nil
			}
			return out, err
		}
		out = append(out, v)
	}
}

func abortErr(ctx context.Context) error {
	return types.NewError(types.ErrOperationAborted, "sequence cancelled").WithCause(ctx.Err())
}

// pumpSeq adapts a push-style producer into a pull sequence through an
// internal backpressure queue. The producer goroutine starts on the first
// Next call and is bound to that call's context: cancelling it tears the
// pump down and fails pending consumers.
type pumpSeq[T any] struct {
	run  func(ctx context.Context, emit func(T) error) error
	once sync.Once
	q    *queue.BackpressureQueue[T]
}

func newPump[T any](run func(ctx context.Context, emit func(T) error) error) *pumpSeq[T] {
	return &pumpSeq[T]{run: run}
}

func (p *pumpSeq[T]) Next(ctx context.Context) (T, error) {
	p.once.Do(func() {
		p.q = queue.New[T](ctx, queue.Options{Name: "seq.pump"})
		go func() {
			err := p.run(ctx, func(v T) error {
				return p.q.Enqueue(v)
			})
			p.q.End(err)
		}()
	})

	v, err := p.q.Next(ctx)
	if errors.Is(err, queue.ErrQueueEnded) {
		var zero T
		return zero, ErrEndOfSequence
	}
	return v, err
}
