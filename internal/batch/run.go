package batch

import (
	"context"
	"sync"
)

// Result is the outcome of running a job against one PID.
type Result struct {
	PID int
	Err error
}

// Job is the per-PID work Run fans out.
type Job func(ctx context.Context, pid int) error

// Run applies job to every pid with at most concurrency jobs in flight.
// Results stream to the returned channel as they complete; the channel is
// closed once every pid has reported. A pid whose job never started because
// ctx was cancelled reports ctx.Err().
func Run(ctx context.Context, pids []int, concurrency int, job Job) <-chan Result {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make(chan Result, len(pids))
	semaphore := make(chan struct{}, concurrency) // Limit concurrent workers
	var wg sync.WaitGroup

	for _, pid := range pids {
		wg.Add(1)
		go func(pid int) {
			defer wg.Done()

			select {
			case semaphore <- struct{}{}: // Acquire
			case <-ctx.Done():
				results <- Result{PID: pid, Err: ctx.Err()}
				return
			}
			defer func() { <-semaphore }() // Release

			results <- Result{PID: pid, Err: job(ctx, pid)}
		}(pid)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// Collect drains results into a map keyed by PID.
func Collect(results <-chan Result) map[int]error {
	out := make(map[int]error)
	for r := range results {
		out[r.PID] = r.Err
	}
	return out
}
