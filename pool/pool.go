// Package pool provides a bounded worker pool for independent tasks.
//
// The same abstraction is instantiated at both fan-out levels: once for
// videos and once per video for comment batches. Tasks are independent;
// a task failing or panicking never cancels its siblings.
package pool

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Task is one unit of work executed by the pool.
type Task func(ctx context.Context) error

// Run executes tasks under at most limit concurrent workers and blocks
// until all tasks finish. The limit is clamped to the number of tasks.
// Panics inside a task are recovered and reported as that task's error.
// The returned error is the first task error observed; remaining tasks
// still run to completion.
func Run(ctx context.Context, limit int, tasks []Task) error {
	if len(tasks) == 0 {
		return nil
	}
	if limit < 1 {
		limit = 1
	}
	if limit > len(tasks) {
		limit = len(tasks)
	}

	g := new(errgroup.Group)
	g.SetLimit(limit)

	for _, task := range tasks {
		task := task
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("task panicked: %v", r)
				}
			}()
			return task(ctx)
		})
	}

	return g.Wait()
}
