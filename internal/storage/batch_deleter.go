package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/semaphore"
)

// BatchDeleter removes groups of objects from storage in parallel. The
// retention daemon uses it to clear every archived export under a dataset's
// prefix without waiting on one object at a time.
type BatchDeleter struct {
	storage     ObjectStorage
	concurrency int
}

// BatchDeleteResult contains the outcome of a batch delete operation.
type BatchDeleteResult struct {
	Deleted []string
	Errors  map[string]error
}

// NewBatchDeleter creates a new batch deleter.
// storage: the ObjectStorage implementation to delete from
// concurrency: maximum number of parallel deletes
func NewBatchDeleter(storage ObjectStorage, concurrency int) *BatchDeleter {
	if concurrency < 1 {
		concurrency = 1
	}
	return &BatchDeleter{
		storage:     storage,
		concurrency: concurrency,
	}
}

// DeletePrefix removes every object under the given prefix. Failures are
// collected per object; one failed delete does not stop the others.
func (b *BatchDeleter) DeletePrefix(ctx context.Context, prefix string) (*BatchDeleteResult, error) {
	paths, err := b.storage.ListObjects(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list objects under %s: %w", prefix, err)
	}
	return b.DeleteObjects(ctx, paths), nil
}

// DeleteObjects removes the given objects with bounded parallelism.
func (b *BatchDeleter) DeleteObjects(ctx context.Context, objectPaths []string) *BatchDeleteResult {
	result := &BatchDeleteResult{
		Errors: make(map[string]error),
	}
	if len(objectPaths) == 0 {
		return result
	}

	sem := semaphore.NewWeighted(int64(b.concurrency))
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, p := range objectPaths {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Context cancelled or semaphore failed
			mu.Lock()
			result.Errors[p] = fmt.Errorf("semaphore acquire failed: %w", err)
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func(path string) {
			defer sem.Release(1)
			defer wg.Done()

			if err := b.storage.Delete(ctx, path); err != nil {
				mu.Lock()
				result.Errors[path] = err
				mu.Unlock()
				return
			}

			mu.Lock()
			result.Deleted = append(result.Deleted, path)
			mu.Unlock()
		}(p)
	}

	wg.Wait()

	sort.Strings(result.Deleted)
	return result
}
