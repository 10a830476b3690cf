// Package parallel runs independent work items across a fixed set of worker
// goroutines. It backs the distance-field build dispatch: items never block
// on each other, so a plain shared queue is enough to keep all cores busy.
package parallel

import (
	"runtime"
	"sync"
)

// Pool is a fixed-size worker pool. Safe for concurrent use.
type Pool struct {
	workers int
	queue   chan func()
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// NewPool creates a pool with the given number of workers; 0 or negative
// means GOMAXPROCS. Workers start immediately.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	p := &Pool{
		workers: workers,
		queue:   make(chan func(), workers*4),
		done:    make(chan struct{}),
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case fn := <-p.queue:
			if fn != nil {
				fn()
			}
		}
	}
}

// Workers returns the worker count.
func (p *Pool) Workers() int { return p.workers }

// ExecuteAll submits every item and blocks until all have completed.
func (p *Pool) ExecuteAll(work []func()) {
	if len(work) == 0 {
		return
	}
	var wg sync.WaitGroup
	wg.Add(len(work))
	for _, fn := range work {
		fn := fn
		p.queue <- func() {
			defer wg.Done()
			fn()
		}
	}
	wg.Wait()
}

// ForRanges splits [0, total) into chunks of at most grain and calls
// fn(start, end) for each chunk in parallel, returning when all are done.
func (p *Pool) ForRanges(total, grain int, fn func(start, end int)) {
	if total <= 0 {
		return
	}
	if grain < 1 {
		grain = 1
	}
	n := (total + grain - 1) / grain
	work := make([]func(), 0, n)
	for start := 0; start < total; start += grain {
		start := start
		end := start + grain
		if end > total {
			end = total
		}
		work = append(work, func() { fn(start, end) })
	}
	p.ExecuteAll(work)
}

// Close stops the workers. Queued work that has not started is dropped;
// ExecuteAll callers must not race with Close. Safe to call multiple times.
func (p *Pool) Close() {
	p.once.Do(func() {
		close(p.done)
		p.wg.Wait()
	})
}
