package queue

import (
	"context"

	"github.com/Gzeu/salahor/stream"
)

// FromStream bridges a push-model event stream into a bounded queue. Emitted
// values are enqueued under the queue's overflow policy; stream completion
// ends the queue. Ending the queue (directly or via ctx cancellation)
// unsubscribes from the stream before any pending consumer is resolved.
func FromStream[T any](ctx context.Context, src *stream.EventStream[T], opts Options) *BackpressureQueue[T] {
	var unsubscribe func()

	userTeardown := opts.Teardown
	opts.Teardown = func() {
		if unsubscribe != nil {
			unsubscribe()
		}
		if userTeardown != nil {
			userTeardown()
		}
	}

	q := New[T](ctx, opts)

	unsubscribe = src.Subscribe(stream.Observer[T]{
		Next: func(v T) error {
			return q.Enqueue(v)
		},
		Complete: func() {
			q.End(nil)
		},
	})

	// The queue may have ended between New and Subscribe (pre-cancelled ctx);
	// its teardown ran before unsubscribe existed, so detach here.
	if q.Ended() {
		unsubscribe()
	}

	return q
}
