package seq

import (
	"context"
	"errors"

	"github.com/Gzeu/salahor/types"
)

// Map transforms each value of the source with f.
func Map[T, R any](f func(T) R) Operator[T, R] {
	return func(src Sequence[T]) Sequence[R] {
		return FromFunc(func(ctx context.Context) (R, error) {
			v, err := src.Next(ctx)
			if err != nil {
				var zero R
				return zero, err
			}
			return f(v), nil
		})
	}
}

// Filter forwards only values matching pred.
func Filter[T any](pred func(T) bool) Operator[T, T] {
	return func(src Sequence[T]) Sequence[T] {
		return FromFunc(func(ctx context.Context) (T, error) {
			for {
				v, err := src.Next(ctx)
				if err != nil {
					var zero T
					return zero, err
				}
				if pred(v) {
					return v, nil
				}
			}
		})
	}
}

// Take forwards the first n values, then ends the sequence without pulling
// the source further.
func Take[T any](n int) Operator[T, T] {
	return func(src Sequence[T]) Sequence[T] {
		if n <= 0 {
			return failSeq[T](types.NewError(types.ErrValidation, "take count must be positive"))
		}
		taken := 0
		return FromFunc(func(ctx context.Context) (T, error) {
			var zero T
			if taken >= n {
				return zero, ErrEndOfSequence
			}
			v, err := src.Next(ctx)
			if err != nil {
				return zero, err
			}
			taken++
			return v, nil
		})
	}
}

// Scan emits the running accumulation of f over the source, starting from
// seed. The seed itself is not emitted.
func Scan[T, R any](seed R, f func(R, T) R) Operator[T, R] {
	return func(src Sequence[T]) Sequence[R] {
		acc := seed
		return FromFunc(func(ctx context.Context) (R, error) {
			v, err := src.Next(ctx)
			if err != nil {
				var zero R
				return zero, err
			}
			acc = f(acc, v)
			return acc, nil
		})
	}
}

// Distinct suppresses values that have already been emitted.
func Distinct[T comparable]() Operator[T, T] {
	return func(src Sequence[T]) Sequence[T] {
		seen := make(map[T]struct{})
		return FromFunc(func(ctx context.Context) (T, error) {
			for {
				v, err := src.Next(ctx)
				if err != nil {
					var zero T
					return zero, err
				}
				if _, dup := seen[v]; dup {
					continue
				}
				seen[v] = struct{}{}
				return v, nil
			}
		})
	}
}

// DistinctUntilChanged suppresses consecutive duplicate values.
func DistinctUntilChanged[T comparable]() Operator[T, T] {
	return func(src Sequence[T]) Sequence[T] {
		var last T
		first := true
		return FromFunc(func(ctx context.Context) (T, error) {
			for {
				v, err := src.Next(ctx)
				if err != nil {
					var zero T
					return zero, err
				}
				if !first && v == last {
					continue
				}
				first = false
				last = v
				return v, nil
			}
		})
	}
}

// isEnd reports whether err marks normal sequence exhaustion.
func isEnd(err error) bool {
	return errors.Is(err, ErrEndOfSequence)
}
