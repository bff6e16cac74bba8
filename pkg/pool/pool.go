package pool

import (
	"context"
	"sync"
)

// WorkerFunc processes one item.
type WorkerFunc[T any] func(ctx context.Context, item T) error

// Result is the outcome for one item.
type Result[T any] struct {
	Item T
	Err  error
}

// Run processes items on numWorkers goroutines (clamped to [1, len(items)])
// and returns one Result per item in input order. Items never started
// because ctx was cancelled carry ctx.Err(). onDone, when non-nil, is called
// from the worker goroutines after each item.
func Run[T any](ctx context.Context, items []T, numWorkers int, fn WorkerFunc[T], onDone func()) []Result[T] {
	results := make([]Result[T], len(items))
	for i, item := range items {
		results[i].Item = item
	}
	if len(items) == 0 {
		return results
	}
	numWorkers = max(1, min(numWorkers, len(items)))

	indexes := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				if err := ctx.Err(); err != nil {
					results[i].Err = err
				} else {
					results[i].Err = fn(ctx, items[i])
				}
				if onDone != nil {
					onDone()
				}
			}
		}()
	}

feed:
	for i := range items {
		select {
		case indexes <- i:
		case <-ctx.Done():
			for j := i; j < len(items); j++ {
				results[j].Err = ctx.Err()
			}
			break feed
		}
	}
	close(indexes)
	wg.Wait()
	return results
}

// Errors returns the non-nil errors of results in order.
func Errors[T any](results []Result[T]) []error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errs
}
