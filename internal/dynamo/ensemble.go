package dynamo

import (
	"context"
	"sync"
	"time"
)

// Job is one independent run. Each job must own its Simulator: integrators
// keep scratch buffers and are not safe to share.
type Job struct {
	Name   string
	Sim    *Simulator
	X0     State
	Config Config
}

type JobResult struct {
	Name    string
	Trace   *Trace
	Err     error
	Elapsed time.Duration
}

// RunEnsemble runs jobs on at most workers goroutines. Results keep the job
// order. onDone, if set, is called once per finished job; calls are
// serialized.
func RunEnsemble(ctx context.Context, jobs []Job, workers int, onDone func(JobResult)) []JobResult {
	if workers < 1 {
		workers = 1
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	results := make([]JobResult, len(jobs))
	next := make(chan int)

	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(workers)

	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for idx := range next {
				job := jobs[idx]
				start := time.Now()
				trace, err := job.Sim.Run(ctx, job.X0, job.Config)
				res := JobResult{Name: job.Name, Trace: trace, Err: err, Elapsed: time.Since(start)}
				results[idx] = res

				if onDone != nil {
					mu.Lock()
					onDone(res)
					mu.Unlock()
				}
			}
		}()
	}

	for i := range jobs {
		next <- i
	}
	close(next)
	wg.Wait()

	return results
}
