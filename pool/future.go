package pool

import (
	"context"
	"sync"

	"github.com/Gzeu/salahor/types"
)

// Future is the pending result of a submitted task.
type Future[R any] struct {
	done chan struct{}
	once sync.Once

	value R
	err   error
}

func newFuture[R any]() *Future[R] {
	return &Future[R]{done: make(chan struct{})}
}

func (f *Future[R]) resolve(value R) {
	f.once.Do(func() {
		f.value = value
		close(f.done)
	})
}

func (f *Future[R]) reject(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Wait blocks until the task finishes or ctx is cancelled. Cancelling the
// wait abandons the result but does not cancel the task.
func (f *Future[R]) Wait(ctx context.Context) (R, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero R
		return zero, types.NewError(types.ErrOperationAborted, "wait cancelled").WithCause(ctx.Err())
	}
}

// Done returns a channel closed when the task has finished.
func (f *Future[R]) Done() <-chan struct{} {
	return f.done
}
