// Package worker provides the concurrency primitives for fact-checking:
// a bounded job pool for fanning out independent claim verifications and
// batch requests, and a per-domain rate limiter for outbound search calls.
package worker

import (
	"context"
	"sync"
)

// Job is one unit of work submitted to the pool. Implementations fold their
// own failures into the Result; Execute never panics the worker.
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is the outcome of one job.
type Result interface {
	GetError() error
}

// Pool fans jobs out over a fixed number of workers. A collector goroutine
// drains results for the pool's whole lifetime, so Submit blocks only on
// worker availability, never on an undrained results buffer, no matter how
// many jobs are queued before Wait. Use it once: Start, Submit everything,
// then Wait. A pool is not reusable after Wait or Shutdown.
type Pool struct {
	workers    int
	jobs       chan Job
	results    chan Result
	collected  []Result
	done       chan struct{}
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	closeOnce  sync.Once
}

// NewPool creates a pool with the given worker count (minimum one).
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(context.Background())

	p := &Pool{
		workers:    workers,
		jobs:       make(chan Job, workers*2),
		results:    make(chan Result, workers*2),
		done:       make(chan struct{}),
		ctx:        ctx,
		cancelFunc: cancel,
	}
	go p.collect()
	return p
}

// Start launches the workers.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// collect accumulates results until the results channel closes. It owns
// p.collected until done is closed.
func (p *Pool) collect() {
	defer close(p.done)
	for result := range p.results {
		p.collected = append(p.collected, result)
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			result := job.Execute(p.ctx)
			// The collector drains continuously, so this send cannot
			// block indefinitely.
			p.results <- result
		}
	}
}

// Submit queues a job. After Shutdown it returns without queueing.
func (p *Pool) Submit(job Job) {
	select {
	case <-p.ctx.Done():
		return
	case p.jobs <- job:
	}
}

// Wait closes the queue, waits for in-flight jobs, and returns every result
// in completion order.
func (p *Pool) Wait() []Result {
	close(p.jobs)
	p.wg.Wait()
	p.closeResults()
	<-p.done
	return p.collected
}

// Shutdown cancels in-flight work and releases the workers. Queued jobs that
// never ran produce no results.
func (p *Pool) Shutdown() {
	p.cancelFunc()
	p.wg.Wait()
	p.closeResults()
	<-p.done
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}
