// Package pipeline implements the memoized node computation stages that turn
// build files into manifests, unconfigured nodes and configured target nodes.
package pipeline

import (
	"context"
	"sync"

	"go.trai.ch/tgraph/internal/core/domain"
)

// Job is a shared future. It completes exactly once, with a value or an error,
// and any number of callers may wait on it.
type Job[T any] struct {
	done  chan struct{}
	once  sync.Once
	value T
	err   error
}

func newJob[T any]() *Job[T] {
	return &Job[T]{done: make(chan struct{})}
}

// Completed returns a job that already holds v.
func Completed[T any](v T) *Job[T] {
	j := newJob[T]()
	j.complete(v, nil)
	return j
}

// Failed returns a job that already holds err.
func Failed[T any](err error) *Job[T] {
	j := newJob[T]()
	var zero T
	j.complete(zero, err)
	return j
}

func (j *Job[T]) complete(v T, err error) {
	j.once.Do(func() {
		j.value = v
		j.err = err
		close(j.done)
	})
}

// Done is closed once the job has completed.
func (j *Job[T]) Done() <-chan struct{} {
	return j.done
}

// Await blocks until the job completes or ctx is done. An abandoned wait
// returns domain.ErrCancelled; the job itself keeps running for other waiters.
func (j *Job[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-j.done:
		return j.value, j.err
	default:
	}

	select {
	case <-j.done:
		return j.value, j.err
	case <-ctx.Done():
		var zero T
		return zero, domain.Cancelled(ctx.Err())
	}
}
