package stream

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromSliceReplaysToFirstSubscriber(t *testing.T) {
	s := FromSlice([]int{1, 2, 3}, Options{Name: "replay"})

	var got []int
	done := make(chan struct{})
	s.Subscribe(Observer[int]{
		Next:     func(v int) error { got = append(got, v); return nil },
		Complete: func() { close(done) },
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("replay never completed")
	}

	assert.Equal(t, []int{1, 2, 3}, got)
	assert.True(t, s.Completed())
}

func TestFromChannelPumpsUntilClose(t *testing.T) {
	ch := make(chan string, 3)
	ch <- "a"
	ch <- "b"
	close(ch)

	s := FromChannel(context.Background(), ch, Options{})

	var got []string
	done := make(chan struct{})
	s.Subscribe(Observer[string]{
		Next:     func(v string) error { got = append(got, v); return nil },
		Complete: func() { close(done) },
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pump never completed")
	}

	assert.Equal(t, []string{"a", "b"}, got)
}

func TestFromChannelStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan int)

	s := FromChannel(ctx, ch, Options{})

	done := make(chan struct{})
	s.Subscribe(Observer[int]{Complete: func() { close(done) }})

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cancellation never completed the stream")
	}
}

func TestIntervalEmitsIncrementingCounter(t *testing.T) {
	s := Interval(context.Background(), 5*time.Millisecond, Options{})

	values := make(chan int64, 8)
	unsubscribe := s.Subscribe(Callback[int64](func(v int64) {
		select {
		case values <- v:
		default:
		}
	}))
	defer unsubscribe()

	var got []int64
	for len(got) < 3 {
		select {
		case v := <-values:
			got = append(got, v)
		case <-time.After(time.Second):
			t.Fatal("interval never ticked")
		}
	}

	require.GreaterOrEqual(t, len(got), 3)
	assert.Equal(t, []int64{0, 1, 2}, got[:3])
}

func TestIntervalStopsWhenLastListenerLeaves(t *testing.T) {
	s := Interval(context.Background(), time.Millisecond, Options{})

	unsubscribe := s.Subscribe(Callback[int64](func(int64) {}))
	unsubscribe()

	// Teardown stops the ticker goroutine, which completes the stream.
	assert.Eventually(t, s.Completed, time.Second, 5*time.Millisecond)
}
