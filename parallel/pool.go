// Package parallel provides a fixed-size worker pool for fan-out work such
// as building the opacity masks of a sprite sheet.
package parallel

import (
	"runtime"
	"sync"
)

// Pool runs submitted tasks on a fixed set of workers. With fewer than two
// workers it degrades to running each task synchronously in Do.
type Pool struct {
	tasks chan func()
	wg    sync.WaitGroup
	once  sync.Once
}

// Start launches numWorkers workers. A non-positive count uses all CPUs.
func Start(numWorkers int) *Pool {
	if numWorkers < 1 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	p := &Pool{}
	if numWorkers < 2 {
		return p
	}

	p.tasks = make(chan func(), numWorkers)
	for i := 0; i < numWorkers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for f := range p.tasks {
				f()
			}
		}()
	}
	return p
}

// Do submits a task. It blocks when all workers are busy and the queue is
// full.
func (p *Pool) Do(f func()) {
	if p.tasks == nil {
		f()
		return
	}
	p.tasks <- f
}

// Wait stops accepting tasks and blocks until every submitted task has
// finished. The pool cannot be reused afterwards.
func (p *Pool) Wait() {
	if p.tasks == nil {
		return
	}
	p.once.Do(func() { close(p.tasks) })
	p.wg.Wait()
}
