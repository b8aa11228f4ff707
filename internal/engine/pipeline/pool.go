package pipeline

import (
	"context"
	"sync"

	"go.trai.ch/tgraph/internal/core/domain"
	"golang.org/x/sync/semaphore"
)

// Pool bounds how many pipeline computations run at once.
//
// Jobs run on their own goroutines and only hold a slot while doing local
// work (Do), never while awaiting other jobs, so stages can depend on each
// other without exhausting the pool.
type Pool struct {
	sem *semaphore.Weighted

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewPool creates a pool allowing parallelism concurrent computations.
func NewPool(parallelism int) *Pool {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(parallelism))}
}

// Go starts fn on a tracked goroutine. It returns domain.ErrCancelled once
// the pool is shutting down.
func (p *Pool) Go(fn func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return domain.ErrCancelled
	}
	p.wg.Go(fn)
	return nil
}

// Do runs fn while holding one slot of the pool.
func (p *Pool) Do(ctx context.Context, fn func() error) error {
	if p.ShuttingDown() {
		return domain.ErrCancelled
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return domain.Cancelled(err)
	}
	defer p.sem.Release(1)
	return fn()
}

// ShuttingDown reports whether Close has been called.
func (p *Pool) ShuttingDown() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Close rejects new work. Computations already running are left to finish.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

// Wait blocks until every goroutine started by Go has returned.
func (p *Pool) Wait() {
	p.wg.Wait()
}
