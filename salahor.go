// Package salahor provides a top-level convenience entry point for the event
// streaming toolkit.
//
// Usage:
//
//	import "github.com/Gzeu/salahor"
//
//	s := salahor.NewStream[int](stream.Options{Name: "clicks"})
//	q := salahor.NewQueue[int](ctx, queue.Options{Limit: 64, Policy: queue.DropOld})
//	p, err := salahor.NewPool(workFn, pool.DefaultConfig())
//
// These are thin wrappers around the stream, queue, and pool packages; both
// produce identical results. Use this package when you prefer the shorter
// import path.
package salahor

import (
	"context"

	"github.com/Gzeu/salahor/pool"
	"github.com/Gzeu/salahor/queue"
	"github.com/Gzeu/salahor/ratelimit"
	"github.com/Gzeu/salahor/stream"
)

// Version is the toolkit release version.
const Version = "1.0.0"

// NewStream creates an [stream.EventStream].
func NewStream[T any](opts stream.Options) *stream.EventStream[T] {
	return stream.New[T](opts)
}

// NewQueue creates a [queue.BackpressureQueue] bound to ctx.
func NewQueue[T any](ctx context.Context, opts queue.Options) *queue.BackpressureQueue[T] {
	return queue.New[T](ctx, opts)
}

// NewPool creates a [pool.WorkerPool] executing fn for every payload.
func NewPool[P, R any](fn pool.WorkerFunc[P, R], cfg pool.Config) (*pool.WorkerPool[P, R], error) {
	return pool.New(fn, cfg)
}

// NewLimiter creates a [ratelimit.TokenBucket].
func NewLimiter(cfg ratelimit.Config) *ratelimit.TokenBucket {
	return ratelimit.New(cfg)
}
