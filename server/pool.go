package server

import "sync"

// Pool runs decode/store/encode work on a fixed number of workers fed by a
// bounded queue. Submission blocks once the queue is full, so a flooded
// server pushes back on connection pumps instead of growing without bound.
type Pool struct {
	tasks chan func()
	wg    sync.WaitGroup
}

func NewPool(workers, depth int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if depth < 1 {
		depth = 1
	}
	p := &Pool{tasks: make(chan func(), depth)}
	for n := 0; n < workers; n++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for task := range p.tasks {
				task()
			}
		}()
	}
	return p
}

func (p *Pool) Submit(task func()) {
	p.tasks <- task
}

// Stop drains queued tasks and waits for the workers. No Submit may race
// with or follow Stop.
func (p *Pool) Stop() {
	close(p.tasks)
	p.wg.Wait()
}
