package seq

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/Gzeu/salahor/types"
)

func TestBatchGroupsAndFlushesRemainder(t *testing.T) {
	out := Batch[int](3, 0)(FromSlice([]int{1, 2, 3, 4, 5}))

	got, err := Collect(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, 2, 3}, {4, 5}}, got)
}

func TestBatchExactMultiple(t *testing.T) {
	out := Batch[int](2, 0)(FromSlice([]int{1, 2, 3, 4}))

	got, err := Collect(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, 2}, {3, 4}}, got)
}

func TestBatchEmptySource(t *testing.T) {
	out := Batch[int](3, 0)(FromSlice[int](nil))

	got, err := Collect(context.Background(), out)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBatchWrapsSourceFailure(t *testing.T) {
	boom := errors.New("boom")
	n := 0
	src := FromFunc(func(context.Context) (int, error) {
		n++
		if n > 1 {
			return 0, boom
		}
		return n, nil
	})

	_, err := Batch[int](3, 0)(src).Next(context.Background())
	assert.True(t, types.HasCode(err, types.ErrBatchFailure))
	assert.ErrorIs(t, err, boom)
}

func TestBatchRejectsNonPositiveSize(t *testing.T) {
	_, err := Batch[int](0, 0)(FromSlice([]int{1})).Next(context.Background())
	assert.True(t, types.HasCode(err, types.ErrValidation))
}

func TestTimedBatchFlushesOnTimeout(t *testing.T) {
	ch := make(chan int)
	go func() {
		ch <- 1
		time.Sleep(150 * time.Millisecond)
		ch <- 2
		ch <- 3
		close(ch)
	}()

	out := Batch[int](10, 50*time.Millisecond)(FromChannel(ch))

	first, err := out.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1}, first, "partial batch flushed by the timer")

	second, err := out.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, second, "remainder flushed when the source ends")

	_, err = out.Next(context.Background())
	assert.ErrorIs(t, err, ErrEndOfSequence)
}

func TestTimedBatchFullBatchBeatsTimer(t *testing.T) {
	out := Batch[int](2, time.Minute)(FromSlice([]int{1, 2, 3, 4}))

	got, err := Collect(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, 2}, {3, 4}}, got)
}

func TestWindowSlidesByOne(t *testing.T) {
	out := Window[int](3, 1)(FromSlice([]int{1, 2, 3, 4}))

	got, err := Collect(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, 2, 3}, {2, 3, 4}}, got)
}

func TestWindowDiscardsPartialTrailing(t *testing.T) {
	out := Window[int](3, 3)(FromSlice([]int{1, 2, 3, 4, 5}))

	got, err := Collect(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, 2, 3}}, got, "the trailing [4 5] never reaches size")
}

func TestWindowSlideLargerThanSize(t *testing.T) {
	out := Window[int](2, 3)(FromSlice([]int{1, 2, 3, 4, 5, 6, 7}))

	got, err := Collect(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, 2}, {4, 5}}, got, "one value is skipped between windows")
}

func TestWindowRejectsNonPositiveArguments(t *testing.T) {
	_, err := Window[int](0, 1)(FromSlice([]int{1})).Next(context.Background())
	assert.True(t, types.HasCode(err, types.ErrValidation))

	_, err = Window[int](2, 0)(FromSlice([]int{1})).Next(context.Background())
	assert.True(t, types.HasCode(err, types.ErrValidation))
}

// TestWindowCountProperty checks the closed-form window count: for n values,
// size s, slide d, the number of full windows is floor((n-s)/d)+1 when n >= s,
// else 0.
func TestWindowCountProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 60).Draw(t, "n")
		size := rapid.IntRange(1, 10).Draw(t, "size")
		slide := rapid.IntRange(1, 10).Draw(t, "slide")

		values := make([]int, n)
		for i := range values {
			values[i] = i
		}

		got, err := Collect(context.Background(), Window[int](size, slide)(FromSlice(values)))
		if err != nil {
			t.Fatalf("collect failed: %v", err)
		}

		want := 0
		if n >= size {
			want = (n-size)/slide + 1
		}
		if len(got) != want {
			t.Fatalf("got %d windows, want %d (n=%d size=%d slide=%d)", len(got), want, n, size, slide)
		}
		for i, w := range got {
			if len(w) != size {
				t.Fatalf("window %d has length %d, want %d", i, len(w), size)
			}
			if w[0] != i*slide {
				t.Fatalf("window %d starts at %d, want %d", i, w[0], i*slide)
			}
		}
	})
}
