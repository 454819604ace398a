package seq

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Concat fully drains each source before starting the next, in argument
// order.
func Concat[T any](sources ...Sequence[T]) Sequence[T] {
	i := 0
	return FromFunc(func(ctx context.Context) (T, error) {
		var zero T
		for i < len(sources) {
			v, err := sources[i].Next(ctx)
			if err == nil {
				return v, nil
			}
			if !isEnd(err) {
				return zero, err
			}
			i++
		}
		return zero, ErrEndOfSequence
	})
}

// Merge interleaves values from all sources by arrival order and ends only
// once every source has ended. A source error fails the merged sequence.
func Merge[T any](sources ...Sequence[T]) Sequence[T] {
	return newPump(func(ctx context.Context, emit func(T) error) error {
		g, gctx := errgroup.WithContext(ctx)
		for _, src := range sources {
			src := src
			g.Go(func() error {
				for {
					v, err := src.Next(gctx)
					if err != nil {
						if isEnd(err) {
							return nil
						}
						return err
					}
					if err := emit(v); err != nil {
						return err
					}
				}
			})
		}
		return g.Wait()
	})
}

// Zip emits a slice combining the i-th value of every source, pulling all
// sources concurrently per round. The zipped sequence ends as soon as any
// source ends.
func Zip[T any](sources ...Sequence[T]) Sequence[[]T] {
	done := false
	return FromFunc(func(ctx context.Context) ([]T, error) {
		if done || len(sources) == 0 {
			return nil, ErrEndOfSequence
		}

		round := make([]T, len(sources))
		g, gctx := errgroup.WithContext(ctx)
		for i, src := range sources {
			i, src := i, src
			g.Go(func() error {
				v, err := src.Next(gctx)
				if err != nil {
					return err
				}
				round[i] = v
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			done = true
			if isEnd(err) {
				return nil, ErrEndOfSequence
			}
			return nil, err
		}
		return round, nil
	})
}

// raceEntry is a racing source's opening result.
type raceEntry[T any] struct {
	idx   int
	value T
	err   error
}

// Race forwards the first source to produce a value and ignores all others
// from then on; a racing source's first value decides the winner even if it
// arrives as an error.
func Race[T any](sources ...Sequence[T]) Sequence[T] {
	var once sync.Once
	var winner Sequence[T]
	var opening *raceEntry[T]

	return FromFunc(func(ctx context.Context) (T, error) {
		var zero T
		once.Do(func() {
			if len(sources) == 0 {
				opening = &raceEntry[T]{err: ErrEndOfSequence}
				return
			}
			ch := make(chan raceEntry[T], len(sources))
			for i, src := range sources {
				i, src := i, src
				go func() {
					v, err := src.Next(ctx)
					ch <- raceEntry[T]{idx: i, value: v, err: err}
				}()
			}
			f := <-ch
			winner = sources[f.idx]
			opening = &f
		})

		if opening != nil {
			f := *opening
			opening = nil
			return f.value, f.err
		}
		if winner == nil {
			return zero, ErrEndOfSequence
		}
		return winner.Next(ctx)
	})
}
