package seq

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcatDrainsInOrder(t *testing.T) {
	out := Concat(FromSlice([]int{1, 2}), FromSlice[int](nil), FromSlice([]int{3}))

	got, err := Collect(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestConcatStopsOnSourceError(t *testing.T) {
	boom := errors.New("boom")
	out := Concat(FromSlice([]int{1}), failSeq[int](boom), FromSlice([]int{2}))

	got, err := Collect(context.Background(), out)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []int{1}, got)
}

func TestMergeInterleavesAllSources(t *testing.T) {
	out := Merge(FromSlice([]int{1, 2, 3}), FromSlice([]int{4, 5}))

	got, err := Collect(context.Background(), out)
	require.NoError(t, err)

	sort.Ints(got)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, got, "all values arrive exactly once, order unspecified")
}

func TestMergeFailsOnSourceError(t *testing.T) {
	boom := errors.New("boom")
	out := Merge(FromSlice([]int{1, 2, 3}), failSeq[int](boom))

	_, err := Collect(context.Background(), out)
	assert.ErrorIs(t, err, boom)
}

func TestZipCombinesRounds(t *testing.T) {
	out := Zip(FromSlice([]int{1, 2, 3}), FromSlice([]int{4, 5}))

	got, err := Collect(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, 4}, {2, 5}}, got, "the zip ends when the shortest source ends")
}

func TestZipNoSources(t *testing.T) {
	got, err := Collect(context.Background(), Zip[int]())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRaceForwardsFirstProducer(t *testing.T) {
	slow := FromFunc(func(ctx context.Context) (int, error) {
		select {
		case <-time.After(200 * time.Millisecond):
			return 99, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	})

	out := Race(slow, FromSlice([]int{1, 2}))

	got, err := Collect(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, got, "the loser is never consumed again")
}

func TestRaceWinnerDecidedByError(t *testing.T) {
	boom := errors.New("boom")
	slow := FromFunc(func(ctx context.Context) (int, error) {
		<-time.After(200 * time.Millisecond)
		return 1, nil
	})

	_, err := Race(slow, failSeq[int](boom)).Next(context.Background())
	assert.ErrorIs(t, err, boom, "a first value that is an error still wins the race")
}

func TestRaceNoSources(t *testing.T) {
	_, err := Race[int]().Next(context.Background())
	assert.ErrorIs(t, err, ErrEndOfSequence)
}
