// Package worker provides a bounded goroutine pool for per-page work.
package worker

import (
	"runtime"
	"sync"
)

// PageJob is one unit of page work submitted to the pool.
type PageJob struct {
	PageNumber int
	Run        func() (string, error)
}

// PageResult pairs a page number with its recognized text or failure.
type PageResult struct {
	PageNumber int
	Text       string
	Err        error
}

// Pool fans page jobs out across a fixed number of workers. Results arrive
// in completion order; callers reorder by page number.
type Pool struct {
	numWorkers int
	jobs       chan PageJob
	results    chan PageResult
	wg         *sync.WaitGroup
}

// NewPool sizes the pool to min(limit, NumCPU); limit <= 0 means NumCPU.
func NewPool(limit int) *Pool {
	n := runtime.NumCPU()
	if limit > 0 && limit < n {
		n = limit
	}
	return &Pool{
		numWorkers: n,
		jobs:       make(chan PageJob, n*2),
		results:    make(chan PageResult, n*2),
		wg:         &sync.WaitGroup{},
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Submit queues one page job. Blocks when all workers are busy and the
// buffer is full, which bounds memory on large documents.
func (p *Pool) Submit(job PageJob) {
	p.jobs <- job
}

// Results exposes the completion channel. It is closed by Stop.
func (p *Pool) Results() <-chan PageResult {
	return p.results
}

// Stop signals no more jobs, waits for in-flight pages and closes the
// results channel.
func (p *Pool) Stop() {
	close(p.jobs)
	p.wg.Wait()
	close(p.results)
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for job := range p.jobs {
		text, err := job.Run()
		p.results <- PageResult{PageNumber: job.PageNumber, Text: text, Err: err}
	}
}
