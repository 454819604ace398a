package stream

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Gzeu/salahor/internal/metrics"
)

// Listener is the two-variant listener type accepted by Subscribe: either a
// plain Callback or a structured Observer. Dispatch is by variant, never by
// runtime shape inspection.
type Listener[T any] interface {
	isListener()
}

// Callback is the plain-function listener variant. It receives emitted values
// and nothing else; completion is not signalled to callbacks.
type Callback[T any] func(T)

func (Callback[T]) isListener() {}

// Observer is the structured listener variant. Next may return an error,
// which is forwarded to Error when present and otherwise logged. Error and
// Complete are optional. A listener doing asynchronous work should launch its
// own goroutine and report failure through its Error handler.
type Observer[T any] struct {
	Next     func(T) error
	Error    func(error)
	Complete func()
}

func (Observer[T]) isListener() {}

// Options configures an EventStream.
type Options struct {
	// Name identifies the stream in logs and metrics.
	Name string
	// Teardown is invoked when the listener set becomes empty after an
	// unsubscribe, and once on completion. Sources use it to stop upstream
	// work (tickers, channel pumps, bridge registrations).
	Teardown func()

	Logger  *zap.Logger
	Metrics *metrics.Collector
}

// EventStream is a push-model fan-out of values to zero or more listeners.
// Once completed, no further values are delivered and the listener set stays
// permanently empty.
type EventStream[T any] struct {
	name     string
	teardown func()
	logger   *zap.Logger
	metrics  *metrics.Collector

	mu        sync.Mutex
	listeners map[uuid.UUID]Listener[T]
	completed bool

	// onSubscribe, when set by a source constructor, runs after each
	// successful subscription. Used to start replay lazily.
	onSubscribe func()
}

// New creates an event stream.
func New[T any](opts Options) *EventStream[T] {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	name := opts.Name
	if name == "" {
		name = "stream"
	}
	return &EventStream[T]{
		name:      name,
		teardown:  opts.Teardown,
		logger:    logger.With(zap.String("component", "stream"), zap.String("stream", name)),
		metrics:   opts.Metrics,
		listeners: make(map[uuid.UUID]Listener[T]),
	}
}

// Subscribe registers a listener and returns its unsubscribe function, which
// is idempotent. Subscribing to a completed stream never delivers values: an
// Observer's Complete is scheduled for a later goroutine turn (never invoked
// synchronously), a Callback receives nothing, and the returned unsubscribe
// is a no-op.
func (s *EventStream[T]) Subscribe(l Listener[T]) func() {
	s.mu.Lock()
	if s.completed {
		s.mu.Unlock()
		if obs, ok := l.(Observer[T]); ok && obs.Complete != nil {
			go obs.Complete()
		}
		return func() {}
	}

	id := uuid.New()
	s.listeners[id] = l
	hook := s.onSubscribe
	s.mu.Unlock()

	if hook != nil {
		hook()
	}

	return func() {
		s.mu.Lock()
		if _, ok := s.listeners[id]; !ok {
			s.mu.Unlock()
			return
		}
		delete(s.listeners, id)
		empty := len(s.listeners) == 0 && !s.completed
		teardown := s.teardown
		s.mu.Unlock()

		if empty && teardown != nil {
			teardown()
		}
	}
}

// Emit delivers value to every listener registered at the time of the call.
// Listeners added or removed during dispatch are not affected: dispatch runs
// against an immutable snapshot. A failing listener never blocks delivery to
// the rest of the snapshot. Emit is a no-op on a completed stream.
func (s *EventStream[T]) Emit(value T) {
	s.mu.Lock()
	if s.completed {
		s.mu.Unlock()
		return
	}
	snapshot := make([]Listener[T], 0, len(s.listeners))
	for _, l := range s.listeners {
		snapshot = append(snapshot, l)
	}
	s.mu.Unlock()

	for _, l := range snapshot {
		s.dispatch(l, value)
	}
	s.metrics.RecordStreamEmit(s.name)
}

func (s *EventStream[T]) dispatch(l Listener[T], value T) {
	defer func() {
		if r := recover(); r != nil {
			s.handleListenerFailure(l, recoveredError(r))
		}
	}()

	switch lst := l.(type) {
	case Callback[T]:
		lst(value)
	case Observer[T]:
		if lst.Next == nil {
			return
		}
		if err := lst.Next(value); err != nil {
			s.handleListenerFailure(l, err)
		}
	}
}

func (s *EventStream[T]) handleListenerFailure(l Listener[T], err error) {
	s.metrics.RecordListenerError(s.name)
	if obs, ok := l.(Observer[T]); ok && obs.Error != nil {
		obs.Error(err)
		return
	}
	s.logger.Warn("listener failed, dropping error", zap.Error(err))
}

// Complete marks the stream completed, clears the listener set, and invokes
// each remaining Observer's Complete exactly once. Idempotent.
func (s *EventStream[T]) Complete() {
	s.mu.Lock()
	if s.completed {
		s.mu.Unlock()
		return
	}
	s.completed = true
	snapshot := make([]Listener[T], 0, len(s.listeners))
	for _, l := range s.listeners {
		snapshot = append(snapshot, l)
	}
	s.listeners = make(map[uuid.UUID]Listener[T])
	teardown := s.teardown
	s.teardown = nil
	s.mu.Unlock()

	for _, l := range snapshot {
		if obs, ok := l.(Observer[T]); ok && obs.Complete != nil {
			func() {
				defer func() {
					if r := recover(); r != nil {
						s.logger.Warn("completion handler failed", zap.Error(recoveredError(r)))
					}
				}()
				obs.Complete()
			}()
		}
	}

	if teardown != nil {
		teardown()
	}
}

// Completed reports whether the stream has completed.
func (s *EventStream[T]) Completed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed
}

// ListenerCount returns the number of registered listeners.
func (s *EventStream[T]) ListenerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

// Name returns the stream's name.
func (s *EventStream[T]) Name() string {
	return s.name
}
