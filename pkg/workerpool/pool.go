// Package workerpool runs queued jobs on a fixed number of goroutines.
//
// The queue worker uses one Pool per process so that a burst of order
// notifications cannot spawn an unbounded number of SMTP connections.
package workerpool

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cherrydine/cherrydine/pkg/logger"
)

var (
	// ErrPoolFull is returned by TrySubmit when every worker is busy and the
	// buffer is at capacity.
	ErrPoolFull = errors.New("workerpool: pool is full")

	ErrPoolClosed = errors.New("workerpool: pool is closed")
)

type Pool struct {
	mu     sync.RWMutex
	closed bool
	tasks  chan func()
	wg     sync.WaitGroup
}

// New starts size workers. The buffer holds two tasks per worker.
func New(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	p := &Pool{
		tasks: make(chan func(), size*2),
	}
	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.worker()
	}
	return p
}

// TrySubmit never blocks.
func (p *Pool) TrySubmit(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrPoolFull
	}
}

// Submit blocks until a slot frees up. A pending Submit delays Shutdown
// until the workers make room for it.
func (p *Pool) Submit(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	p.tasks <- task
	return nil
}

// Shutdown rejects new tasks, runs everything already buffered and waits for
// the workers to exit. Calling it twice is a no-op.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	// Senders hold the read lock, so nobody is mid-send here.
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		run(task)
	}
}

func run(task func()) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("workerpool: task panicked", "panic", fmt.Sprint(rec))
		}
	}()
	task()
}
