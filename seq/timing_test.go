package seq

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gzeu/salahor/types"
)

func TestDebounceKeepsOnlyLastOfBurst(t *testing.T) {
	// The whole slice arrives faster than the debounce interval, so every
	// value but the last is discarded; the last flushes on end.
	out := DebounceTime[int](500 * time.Millisecond)(FromSlice([]int{1, 2, 3}))

	got, err := Collect(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, []int{3}, got)
}

func TestDebounceEmitsAfterQuietPeriod(t *testing.T) {
	ch := make(chan int)
	go func() {
		ch <- 1
		time.Sleep(120 * time.Millisecond)
		ch <- 2
		close(ch)
	}()

	out := DebounceTime[int](30 * time.Millisecond)(FromChannel(ch))

	got, err := Collect(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, got, "a quiet period lets each value through")
}

func TestDebounceRejectsNonPositiveDuration(t *testing.T) {
	_, err := DebounceTime[int](0)(FromSlice([]int{1})).Next(context.Background())
	assert.True(t, types.HasCode(err, types.ErrValidation))
}

func TestThrottleLeadingAndTrailing(t *testing.T) {
	out := ThrottleTime[int](500*time.Millisecond, ThrottleOptions{Leading: true, Trailing: true})(
		FromSlice([]int{1, 2, 3}))

	got, err := Collect(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, got, "leading edge emits 1, trailing flush emits the held 3")
}

func TestThrottleLeadingOnlyDropsHeldValue(t *testing.T) {
	out := ThrottleTime[int](500*time.Millisecond, ThrottleOptions{Leading: true})(
		FromSlice([]int{1, 2, 3}))

	got, err := Collect(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, got)
}

func TestThrottleTrailingOnly(t *testing.T) {
	out := ThrottleTime[int](500*time.Millisecond, ThrottleOptions{Trailing: true})(
		FromSlice([]int{1, 2, 3}))

	got, err := Collect(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, []int{3}, got, "nothing emits on the leading edge; the last held value flushes")
}

func TestThrottleOpensNewWindowAfterGap(t *testing.T) {
	ch := make(chan int)
	go func() {
		ch <- 1
		time.Sleep(120 * time.Millisecond)
		ch <- 2
		close(ch)
	}()

	out := ThrottleTime[int](30*time.Millisecond, ThrottleOptions{Leading: true})(FromChannel(ch))

	got, err := Collect(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, got)
}

func TestTimeoutFailsSlowSource(t *testing.T) {
	out := Timeout[int](30 * time.Millisecond)(FromChannel(make(chan int)))

	_, err := out.Next(context.Background())
	assert.True(t, types.HasCode(err, types.ErrOperatorTimeout))
}

func TestTimeoutPassesFastValues(t *testing.T) {
	out := Timeout[int](time.Second)(FromSlice([]int{1, 2}))

	got, err := Collect(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, got)
}

func TestTimeoutPreservesCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Timeout[int](time.Second)(FromChannel(make(chan int))).Next(ctx)
	assert.True(t, types.HasCode(err, types.ErrOperationAborted),
		"caller cancellation must not be misreported as a timeout")
}
