package pipeline

import (
	"context"
	"sync"
	"time"
)

// sectionTask is one queued unit of work for a Group.
type sectionTask struct {
	title    string
	expected time.Duration
	fn       func(context.Context) error
}

// Group runs independent sections under a fixed-size worker pool with
// first-failure-wins semantics: after any section fails, queued tasks that
// have not started are skipped, while sections already in flight run to
// completion. Nothing is hard-killed.
type Group struct {
	runner      *Runner
	maxParallel int
	tasks       []sectionTask
}

// NewGroup creates a worker-pool group over this runner.
func (r *Runner) NewGroup(maxParallel int) *Group {
	if maxParallel <= 0 {
		maxParallel = 10 // Default to 10 concurrent workers
	}
	return &Group{
		runner:      r,
		maxParallel: maxParallel,
	}
}

// Go queues a section for execution. Tasks do not start until Wait.
func (g *Group) Go(title string, expected time.Duration, fn func(context.Context) error) {
	g.tasks = append(g.tasks, sectionTask{title: title, expected: expected, fn: fn})
}

// Wait executes the queued sections and returns the first failure, if any.
// Tasks skipped after the first failure never begin and are not counted in
// the run summary.
func (g *Group) Wait(ctx context.Context) error {
	if len(g.tasks) == 0 {
		return nil
	}

	workerCount := g.maxParallel
	if len(g.tasks) < workerCount {
		workerCount = len(g.tasks)
	}

	workQueue := make(chan sectionTask, len(g.tasks))
	for _, t := range g.tasks {
		workQueue <- t
	}
	close(workQueue)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	failed := func() bool {
		mu.Lock()
		defer mu.Unlock()
		return firstErr != nil
	}

	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for task := range workQueue {
				if failed() || ctx.Err() != nil {
					g.runner.log.Debugf("Skipping section %q: earlier failure", task.title)
					continue
				}

				if err := g.runner.Run(ctx, task.title, task.expected, task.fn); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
				}
			}
		}()
	}

	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}
