package concurrent

import (
	"context"
	"sync"

	"github.com/pathviz/pathviz/pkg/util"
)

type JobFunc[T any, G any] func(job T) G

// WorkerPool runs jobFunc on numWorkers goroutines. The results channel holds
// queueSize values, so callers adding more jobs than that must drain
// CollectResults concurrently.
type WorkerPool[T any, G any] struct {
	numWorkers int
	jobQueue   chan T
	results    chan G
	wg         sync.WaitGroup
}

func NewWorkerPool[T any, G any](numWorkers, jobQueueSize int) *WorkerPool[T, G] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &WorkerPool[T, G]{
		numWorkers: numWorkers,
		jobQueue:   make(chan T, jobQueueSize),
		results:    make(chan G, jobQueueSize),
	}
}

func (wp *WorkerPool[T, G]) worker(jobFunc JobFunc[T, G]) {
	defer wp.wg.Done()
	for job := range wp.jobQueue {
		wp.results <- jobFunc(job)
	}
}

func (wp *WorkerPool[T, G]) Start(jobFunc JobFunc[T, G]) {
	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(jobFunc)
	}
}

// Wait blocks until every worker returned, then closes the results channel.
func (wp *WorkerPool[T, G]) Wait() {
	wp.wg.Wait()
	close(wp.results)
}

func (wp *WorkerPool[T, G]) AddJob(job T) {
	wp.jobQueue <- job
}

func (wp *WorkerPool[T, G]) CollectResults() <-chan G {
	return wp.results
}

// Close stops accepting jobs. Workers finish what is queued.
func (wp *WorkerPool[T, G]) Close() {
	close(wp.jobQueue)
}

// Map applies jobFunc to every job on numWorkers goroutines and returns the
// results in job order. Jobs not yet queued when ctx is done are skipped and
// ctx.Err() is returned alongside the partial results.
func Map[T any, G any](ctx context.Context, numWorkers int, jobs []T, jobFunc JobFunc[T, G]) ([]G, error) {
	results := make([]G, len(jobs))
	wp := NewWorkerPool[int, struct{}](numWorkers, numWorkers)
	wp.Start(func(i int) struct{} {
		results[i] = jobFunc(jobs[i])
		return struct{}{}
	})

	go func() {
		defer wp.Close()
		for i := range jobs {
			if util.StopConcurrentOperation(ctx) {
				return
			}
			wp.AddJob(i)
		}
	}()
	go wp.Wait()

	for range wp.CollectResults() {
	}
	return results, ctx.Err()
}
