package sim

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Job is one independent run of an Ensemble.
type Job[T World[T]] struct {
	Name   string
	World  T
	Config Config
}

// Ensemble runs independent worlds concurrently. Metrics carry state, so
// every job gets its own Simulator from build.
type Ensemble[T World[T]] struct {
	build func() *Simulator[T]
	limit int
}

// NewEnsemble returns an ensemble that runs at most limit jobs at a time.
// A limit <= 0 means no limit.
func NewEnsemble[T World[T]](build func() *Simulator[T], limit int) *Ensemble[T] {
	return &Ensemble[T]{build: build, limit: limit}
}

// Run returns results in job order. The first failing job cancels the rest.
func (e *Ensemble[T]) Run(ctx context.Context, jobs []Job[T]) ([]*Result, error) {
	results := make([]*Result, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}
	for i, job := range jobs {
		g.Go(func() error {
			res, err := e.build().Run(ctx, job.World, job.Config)
			if err != nil {
				return fmt.Errorf("job %q: %w", job.Name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
