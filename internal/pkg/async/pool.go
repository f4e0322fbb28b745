// Package async provides a small worker pool for fanning out independent
// per-site queries, used by the overview endpoints.
package async

import (
	"context"
	"sync"
)

// Task is a named unit of work.
type Task[T any] struct {
	Name    string
	Execute func() (T, error)
}

// Result pairs a task name with its outcome.
type Result[T any] struct {
	Name string
	Data T
	Err  error
}

// Pool runs tasks across a fixed number of workers.
type Pool[T any] struct {
	workerCount int
}

// NewPool creates a pool with the given worker count.
func NewPool[T any](workerCount int) *Pool[T] {
	if workerCount < 1 {
		workerCount = 1
	}
	return &Pool[T]{workerCount: workerCount}
}

// Execute runs all tasks and returns the results keyed by task name.
// Cancellation of ctx stops dispatching further tasks; results collected so
// far are returned.
func (p *Pool[T]) Execute(ctx context.Context, tasks []Task[T]) map[string]Result[T] {
	taskCh := make(chan Task[T])
	resultCh := make(chan Result[T], len(tasks))

	var wg sync.WaitGroup
	for i := 0; i < p.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range taskCh {
				data, err := task.Execute()
				resultCh <- Result[T]{Name: task.Name, Data: data, Err: err}
			}
		}()
	}

	go func() {
		defer close(taskCh)
		for _, task := range tasks {
			select {
			case taskCh <- task:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make(map[string]Result[T], len(tasks))
	for result := range resultCh {
		results[result.Name] = result
	}
	return results
}
