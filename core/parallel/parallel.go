// Package parallel runs independent tasks on a bounded worker pool and
// collects their results by task index.
package parallel

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/YuminosukeSato/gaussrank/pkg/errors"
)

// ResolveWorkers converts a joblib-style n_jobs value into a worker count:
// 0 and 1 mean sequential, -1 means one worker per CPU, -k means
// NumCPU+1-k. The result is never below 1.
func ResolveWorkers(nJobs int) int {
	numCPU := runtime.NumCPU()
	workers := nJobs
	switch {
	case nJobs == 0:
		workers = 1
	case nJobs < 0:
		workers = numCPU + 1 + nJobs
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}

// Map calls fn(i) for every i in [0, n) using at most ResolveWorkers(nJobs)
// goroutines and returns the results in index order, independent of
// completion order. The first error (or recovered panic) is returned and
// the partial results are discarded.
func Map[T any](n, nJobs int, fn func(i int) (T, error)) ([]T, error) {
	results := make([]T, n)
	if n == 0 {
		return results, nil
	}

	workers := ResolveWorkers(nJobs)
	if workers > n {
		workers = n // No need for more workers than tasks
	}

	run := func(i int) error {
		v, err := errors.SafeValue(fmt.Sprintf("task %d", i), func() (T, error) {
			return fn(i)
		})
		if err != nil {
			return err
		}
		results[i] = v
		return nil
	}

	if workers == 1 {
		for i := 0; i < n; i++ {
			if err := run(i); err != nil {
				return nil, err
			}
		}
		return results, nil
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			return run(i)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// For is Map for tasks without a result.
func For(n, nJobs int, fn func(i int) error) error {
	_, err := Map(n, nJobs, func(i int) (struct{}, error) {
		return struct{}{}, fn(i)
	})
	return err
}
