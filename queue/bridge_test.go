package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gzeu/salahor/stream"
)

func TestFromStreamBuffersEmits(t *testing.T) {
	src := stream.New[int](stream.Options{Name: "events"})
	q := FromStream(context.Background(), src, Options{})

	src.Emit(1)
	src.Emit(2)

	v, err := q.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	v, err = q.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestFromStreamCompletionEndsQueue(t *testing.T) {
	src := stream.New[int](stream.Options{})
	q := FromStream(context.Background(), src, Options{})

	src.Emit(1)
	src.Complete()

	v, err := q.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v, "buffered values remain readable after completion")

	_, err = q.Next(context.Background())
	assert.ErrorIs(t, err, ErrQueueEnded)
}

func TestFromStreamAppliesOverflowPolicy(t *testing.T) {
	src := stream.New[int](stream.Options{})
	q := FromStream(context.Background(), src, Options{Limit: 2, Policy: DropOld})

	for i := 1; i <= 5; i++ {
		src.Emit(i)
	}

	v1, err := q.Next(context.Background())
	require.NoError(t, err)
	v2, err := q.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{4, 5}, []int{v1, v2})
}

func TestFromStreamEndDetachesListener(t *testing.T) {
	src := stream.New[int](stream.Options{})
	q := FromStream(context.Background(), src, Options{})

	require.Equal(t, 1, src.ListenerCount())
	q.End(nil)
	assert.Equal(t, 0, src.ListenerCount(), "ending the queue unsubscribes the bridge")
}

func TestFromStreamPreCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := stream.New[int](stream.Options{})
	q := FromStream(ctx, src, Options{})

	assert.Eventually(t, func() bool {
		return q.Ended() && src.ListenerCount() == 0
	}, time.Second, 5*time.Millisecond)
}
