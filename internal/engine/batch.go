package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sqlite-ai/rembed/pkg/types"
)

// Worker produces the vector for the item at index i. It is called from
// the runtime's worker goroutines and must honor ctx.
type Worker func(ctx context.Context, i int) ([]float32, error)

// RunBatch executes n independent work items under the runtime's
// concurrency bound and blocks until every item has finished.
//
// Each outcome is recorded against the item's original index: the returned
// vectors are the surviving results in input order no matter which network
// calls finished first. A failing item is counted in the statistics and
// excluded from the output; it never aborts its siblings. A batch where
// every item fails returns zero vectors and the statistics, not an error.
func (r *Runtime) RunBatch(n int, worker Worker) ([][]float32, types.Stats, error) {
	if n == 0 {
		return nil, types.Stats{}, fmt.Errorf("%w: input array cannot be empty", types.ErrEmptyInput)
	}

	start := time.Now()
	results := make([][]float32, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = r.do(context.Background(), func(ctx context.Context) error {
				vec, err := worker(ctx, i)
				if err != nil {
					return err
				}
				results[i] = vec
				return nil
			})
		}(i)
	}
	wg.Wait()

	stats := types.Stats{
		Processed:     n,
		TotalDuration: time.Since(start),
	}
	stats.AvgPerItem = stats.TotalDuration / time.Duration(n)

	vecs := make([][]float32, 0, n)
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			stats.Failed++
			slog.Warn("batch item failed", "index", i, "error", errs[i])
			continue
		}
		stats.Succeeded++
		vecs = append(vecs, results[i])
	}
	return vecs, stats, nil
}

// RunBatch executes n work items using the process-wide runtime.
func RunBatch(n int, worker Worker) ([][]float32, types.Stats, error) {
	return Default().RunBatch(n, worker)
}
