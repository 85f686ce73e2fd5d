package optimizer

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/aristath/lotto/internal/domain"
	"github.com/aristath/lotto/internal/modules/scoring"
)

// WorkerPool scores a generation in parallel
type WorkerPool struct {
	numWorkers int
}

// NewWorkerPool creates a new worker pool with the specified number of workers
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = DefaultWorkers
	}
	return &WorkerPool{
		numWorkers: numWorkers,
	}
}

// ScoreBatch scores every combination of a population.
//
// Scoring has no shared mutable state, so individuals are fanned out over at
// most numWorkers goroutines. Results are stored by index and keep the input
// order. The first scoring error cancels the remaining work and is returned.
func (wp *WorkerPool) ScoreBatch(ctx context.Context, scorer *scoring.Scorer, population []domain.Combination) ([]scoring.Result, error) {
	results := make([]scoring.Result, len(population))
	if len(population) == 0 {
		return results, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(wp.numWorkers)

	for idx, c := range population {
		idx, c := idx, c
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := scorer.Score(c)
			if err != nil {
				return err
			}
			results[idx] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
