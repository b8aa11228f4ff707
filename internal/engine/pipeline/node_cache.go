package pipeline

import (
	"context"
	"sync"

	"go.trai.ch/tgraph/internal/core/domain"
)

// entry is either pending, holding the in-flight job, or ready, holding the
// value. Both record the validation token they were started under.
type entry[V any] struct {
	job   *Job[V]
	ready bool
	value V
	token domain.ValidationToken
}

// Loader computes values for a NodeCache.
type Loader[V any] struct {
	// Lookup consults a longer-lived cache before anything is computed. Optional.
	Lookup func(token domain.ValidationToken) (V, bool)
	// Compute produces the value. It is responsible for writing it through
	// under token and returns the winning value.
	Compute func(ctx context.Context, token domain.ValidationToken) (V, error)
}

// NodeCache memoizes one pipeline stage. Concurrent requests for a key share a
// single computation; failures are delivered to every waiter and never cached.
type NodeCache[K comparable, V any] struct {
	pool  *Pool
	token func() domain.ValidationToken

	mu      sync.Mutex
	entries map[K]*entry[V]
}

// NewNodeCache creates a cache running computations on pool. token reports the
// current validation token; ready entries from an older token are recomputed.
func NewNodeCache[K comparable, V any](pool *Pool, token func() domain.ValidationToken) *NodeCache[K, V] {
	return &NodeCache[K, V]{
		pool:    pool,
		token:   token,
		entries: make(map[K]*entry[V]),
	}
}

// GetJob returns the job for key, starting a computation only if no valid
// entry exists.
func (c *NodeCache[K, V]) GetJob(ctx context.Context, key K, load Loader[V]) *Job[V] {
	token := c.token()

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		switch {
		case e.token != token:
			// A stale pending job keeps running but can no longer settle the key.
			delete(c.entries, key)
		case !e.ready:
			c.mu.Unlock()
			return e.job
		default:
			c.mu.Unlock()
			return Completed(e.value)
		}
	}

	if load.Lookup != nil {
		if v, ok := load.Lookup(token); ok {
			c.entries[key] = &entry[V]{ready: true, value: v, token: token}
			c.mu.Unlock()
			return Completed(v)
		}
	}

	pending := &entry[V]{job: newJob[V](), token: token}
	c.entries[key] = pending
	c.mu.Unlock()

	// The computation is shared, so it must not die with the first caller.
	runCtx := context.WithoutCancel(ctx)
	err := c.pool.Go(func() {
		v, err := load.Compute(runCtx, token)
		c.settle(key, pending, v, err, token)
	})
	if err != nil {
		var zero V
		c.settle(key, pending, zero, err, token)
	}
	return pending.job
}

// settle completes a pending entry, replacing it with a ready one on success
// and dropping it on failure.
func (c *NodeCache[K, V]) settle(key K, pending *entry[V], v V, err error, token domain.ValidationToken) {
	c.mu.Lock()
	if c.entries[key] == pending {
		if err != nil {
			delete(c.entries, key)
		} else {
			c.entries[key] = &entry[V]{ready: true, value: v, token: token}
		}
	}
	c.mu.Unlock()
	pending.job.complete(v, err)
}

// Len returns the number of entries, pending or ready.
func (c *NodeCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
