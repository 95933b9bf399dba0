// Package utils provides the small concurrency helpers shared by the
// pipeline: a bounded worker pool with order-preserving results and panic
// recovery.
package utils

import (
	"context"
	"runtime"
	"sync"
)

// Worker processes one item and returns its result.
type Worker[T any, R any] func(ctx context.Context, item T) (R, error)

// WorkerPool fans items out over a fixed number of goroutines. Results and
// errors come back indexed by input position, so callers keep stable row order
// without sorting. Panics in workers are recovered and surfaced as PanicError
// for that item only.
type WorkerPool[T any, R any] struct {
	numWorkers int
	worker     Worker[T, R]
}

// NewWorkerPool creates a pool. numWorkers <= 0 selects GOMAXPROCS.
func NewWorkerPool[T any, R any](numWorkers int, worker Worker[T, R]) *WorkerPool[T, R] {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	return &WorkerPool[T, R]{numWorkers: numWorkers, worker: worker}
}

// ProcessItems runs the worker over every item and blocks until all workers
// finish. errors[i] holds the failure for items[i], or nil; a failed item
// never aborts the rest of the batch. Context cancellation stops workers from
// picking up further items.
func (wp *WorkerPool[T, R]) ProcessItems(ctx context.Context, items []T) ([]R, []error) {
	if len(items) == 0 {
		return nil, nil
	}

	type indexed struct {
		item  T
		index int
	}

	queue := make(chan indexed, len(items))
	for i, item := range items {
		queue <- indexed{item: item, index: i}
	}
	close(queue)

	results := make([]R, len(items))
	errs := make([]error, len(items))

	var wg sync.WaitGroup
	for w := 0; w < wp.numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case next, ok := <-queue:
					if !ok {
						return
					}
					func() {
						defer RecoverWithCallback(func(err error) {
							errs[next.index] = err
						})
						results[next.index], errs[next.index] = wp.worker(ctx, next.item)
					}()
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	wg.Wait()

	return results, errs
}
