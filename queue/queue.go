// Package queue provides a bounded FIFO buffer that bridges push-style event
// producers into pull-style consumers with explicit overflow policies.
package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Gzeu/salahor/internal/metrics"
	"github.com/Gzeu/salahor/types"
)

// ErrQueueEnded is returned by Next once the queue has ended without error.
var ErrQueueEnded = errors.New("queue ended")

// OverflowPolicy defines what happens when a bounded buffer is full.
type OverflowPolicy int

const (
	// Throw fails the enqueue with a QUEUE_OVERFLOW error and closes the queue.
	Throw OverflowPolicy = iota
	// DropOld evicts the oldest buffered item to make room for the new one.
	DropOld
	// DropNew silently discards the incoming item.
	DropNew
)

// String returns the policy name used in logs and metric labels.
func (p OverflowPolicy) String() string {
	switch p {
	case DropOld:
		return "drop_old"
	case DropNew:
		return "drop_new"
	default:
		return "throw"
	}
}

// Options configures a BackpressureQueue.
type Options struct {
	// Name identifies the queue in logs and metrics.
	Name string
	// Limit bounds the buffer; 0 means unbounded.
	Limit int
	// Policy is applied when the buffer is full. Default Throw.
	Policy OverflowPolicy
	// Teardown is invoked exactly once when the queue ends, before any
	// pending consumer is resolved. Used to unregister upstream listeners.
	Teardown func()

	Logger  *zap.Logger
	Metrics *metrics.Collector
}

type result[T any] struct {
	value T
	err   error
}

type waiter[T any] struct {
	ch chan result[T]
}

// BackpressureQueue is a FIFO buffer with direct producer-to-consumer handoff.
// A pending consumer and a non-empty buffer never coexist: enqueues satisfy
// the oldest waiting consumer before anything is buffered.
type BackpressureQueue[T any] struct {
	name     string
	limit    int
	policy   OverflowPolicy
	teardown func()
	logger   *zap.Logger
	metrics  *metrics.Collector

	mu      sync.Mutex
	buf     []T
	waiters []*waiter[T]
	ended   bool
	endErr  error
	done    chan struct{}

	enqueued atomic.Int64
	dropped  atomic.Int64
	handoffs atomic.Int64
}

// New creates a queue bound to ctx: cancelling ctx ends the queue with an
// OPERATION_ABORTED error. A nil ctx leaves the queue bound only to End.
func New[T any](ctx context.Context, opts Options) *BackpressureQueue[T] {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	name := opts.Name
	if name == "" {
		name = "queue"
	}

	q := &BackpressureQueue[T]{
		name:     name,
		limit:    opts.Limit,
		policy:   opts.Policy,
		teardown: opts.Teardown,
		logger:   logger.With(zap.String("component", "queue"), zap.String("queue", name)),
		metrics:  opts.Metrics,
		done:     make(chan struct{}),
	}

	if ctx != nil && ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				q.End(types.NewError(types.ErrOperationAborted, "queue cancelled").WithCause(ctx.Err()))
			case <-q.done:
			}
		}()
	}

	return q
}

// Enqueue offers an item to the queue. After the queue has ended, Enqueue is a
// no-op. With the Throw policy a full buffer fails with QUEUE_OVERFLOW and
// closes the queue; the other policies never return an error.
func (q *BackpressureQueue[T]) Enqueue(item T) error {
	q.mu.Lock()
	if q.ended {
		q.mu.Unlock()
		return nil
	}

	// Direct handoff: a waiting consumer means the buffer is empty.
	if len(q.waiters) > 0 {
		w := q.waiters[0]
		q.waiters = q.waiters[1:]
		q.mu.Unlock()
		w.ch <- result[T]{value: item}
		q.handoffs.Add(1)
		q.enqueued.Add(1)
		q.metrics.RecordEnqueue(q.name, 0)
		return nil
	}

	if q.limit <= 0 || len(q.buf) < q.limit {
		q.buf = append(q.buf, item)
		depth := len(q.buf)
		q.mu.Unlock()
		q.enqueued.Add(1)
		q.metrics.RecordEnqueue(q.name, depth)
		return nil
	}

	switch q.policy {
	case DropOld:
		q.buf = append(q.buf[1:], item)
		depth := len(q.buf)
		q.mu.Unlock()
		q.dropped.Add(1)
		q.enqueued.Add(1)
		q.metrics.RecordDrop(q.name, DropOld.String())
		q.metrics.RecordQueueDepth(q.name, depth)
		q.logger.Debug("evicted oldest buffered item", zap.Int("limit", q.limit))
		return nil

	case DropNew:
		q.mu.Unlock()
		q.dropped.Add(1)
		q.metrics.RecordDrop(q.name, DropNew.String())
		q.logger.Debug("discarded incoming item", zap.Int("limit", q.limit))
		return nil

	default: // Throw
		q.mu.Unlock()
		err := types.NewError(types.ErrQueueOverflow, "buffer limit exceeded")
		q.metrics.RecordDrop(q.name, Throw.String())
		q.logger.Warn("queue overflow, closing", zap.Int("limit", q.limit))
		q.End(err)
		return err
	}
}

// Next returns the head of the buffer, or suspends until the next enqueue or
// until the queue ends. After End(nil) it returns ErrQueueEnded; after
// End(err) it returns err.
func (q *BackpressureQueue[T]) Next(ctx context.Context) (T, error) {
	var zero T

	q.mu.Lock()
	if len(q.buf) > 0 {
		item := q.buf[0]
		q.buf = q.buf[1:]
		depth := len(q.buf)
		q.mu.Unlock()
		q.metrics.RecordQueueDepth(q.name, depth)
		return item, nil
	}
	if q.ended {
		err := q.endErr
		q.mu.Unlock()
		if err == nil {
			err = ErrQueueEnded
		}
		return zero, err
	}

	w := &waiter[T]{ch: make(chan result[T], 1)}
	q.waiters = append(q.waiters, w)
	q.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}

	select {
	case r := <-w.ch:
		return r.value, r.err
	case <-ctx.Done():
		// Remove the waiter unless a producer already satisfied it.
		q.mu.Lock()
		removed := false
		for i, pending := range q.waiters {
			if pending == w {
				q.waiters = append(q.waiters[:i], q.waiters[i+1:]...)
				removed = true
				break
			}
		}
		q.mu.Unlock()
		if !removed {
			r := <-w.ch
			return r.value, r.err
		}
		return zero, types.NewError(types.ErrOperationAborted, "consumer cancelled").WithCause(ctx.Err())
	}
}

// End closes the queue. A nil err lets consumers drain the remaining buffer
// before seeing ErrQueueEnded; a non-nil err discards the buffer and fails
// pending and future consumers with err. End is idempotent and safe to call
// concurrently. The teardown hook runs before any pending consumer is
// resolved.
func (q *BackpressureQueue[T]) End(err error) {
	q.mu.Lock()
	if q.ended {
		q.mu.Unlock()
		return
	}
	q.ended = true
	q.endErr = err
	if err != nil {
		// Error termination is exceptional: buffered items are discarded so
		// every consumer sees the failure, not stale data.
		q.buf = nil
	}
	waiters := q.waiters
	q.waiters = nil
	teardown := q.teardown
	q.teardown = nil
	close(q.done)
	q.mu.Unlock()

	if teardown != nil {
		teardown()
	}

	resolved := err
	if resolved == nil {
		resolved = ErrQueueEnded
	}
	for _, w := range waiters {
		w.ch <- result[T]{err: resolved}
	}

	if err != nil && !errors.Is(err, ErrQueueEnded) {
		q.logger.Debug("queue ended with error", zap.Error(err))
	}
}

// Ended reports whether the queue has been closed.
func (q *BackpressureQueue[T]) Ended() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ended
}

// Len returns the current number of buffered items.
func (q *BackpressureQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)
}

// Stats contains queue counters.
type Stats struct {
	Enqueued int64 `json:"enqueued"`
	Dropped  int64 `json:"dropped"`
	Handoffs int64 `json:"handoffs"`
	Depth    int   `json:"depth"`
	Ended    bool  `json:"ended"`
}

// Stats returns a snapshot of the queue counters.
func (q *BackpressureQueue[T]) Stats() Stats {
	q.mu.Lock()
	depth := len(q.buf)
	ended := q.ended
	q.mu.Unlock()

	return Stats{
		Enqueued: q.enqueued.Load(),
		Dropped:  q.dropped.Load(),
		Handoffs: q.handoffs.Load(),
		Depth:    depth,
		Ended:    ended,
	}
}
