package pipeline

import "context"

// Iterator provides pull-based sequential access to a stream of values.
// Iterators are single-pass and not restartable: once Next reports
// exhaustion, it keeps doing so. An error from Next reports the failing
// item; whether later items remain reachable afterwards is up to the
// adapter. Close must be safe to call twice.
type Iterator[T any] interface {
	// Next returns the next value. Returns (zero, false, nil) when exhausted.
	Next(ctx context.Context) (T, bool, error)
	// Close releases any resources held by the iterator.
	Close() error
}

// FromSlice returns an Iterator over a fixed slice.
func FromSlice[T any](items []T) Iterator[T] {
	return &sliceIter[T]{items: items}
}

// FromFunc wraps next and close functions as an Iterator. close may be nil.
func FromFunc[T any](next func(ctx context.Context) (T, bool, error), close func() error) Iterator[T] {
	return &funcIter[T]{next: next, close: close}
}

// Collect pulls all remaining values from it and closes it. On error the
// values pulled so far are returned together with the error.
func Collect[T any](ctx context.Context, it Iterator[T]) ([]T, error) {
	defer it.Close()
	var result []T
	for {
		val, ok, err := it.Next(ctx)
		if err != nil {
			return result, err
		}
		if !ok {
			return result, nil
		}
		result = append(result, val)
	}
}

// Drain pulls all remaining values from it, sending each to fn, and
// closes the iterator. The first error from the iterator or fn stops the
// drain.
func Drain[T any](ctx context.Context, it Iterator[T], fn func(context.Context, T) error) error {
	defer it.Close()
	for {
		val, ok, err := it.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := fn(ctx, val); err != nil {
			return err
		}
	}
}

// --- Internal iterators ---

type sliceIter[T any] struct {
	items []T
	index int
}

func (it *sliceIter[T]) Next(_ context.Context) (T, bool, error) {
	if it.index >= len(it.items) {
		var zero T
		return zero, false, nil
	}
	val := it.items[it.index]
	it.index++
	return val, true, nil
}

func (it *sliceIter[T]) Close() error { return nil }

type funcIter[T any] struct {
	next  func(ctx context.Context) (T, bool, error)
	close func() error
}

func (it *funcIter[T]) Next(ctx context.Context) (T, bool, error) {
	return it.next(ctx)
}

func (it *funcIter[T]) Close() error {
	if it.close != nil {
		return it.close()
	}
	return nil
}
