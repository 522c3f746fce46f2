// Package pool provides reusable-object arenas for the hot ledger entities.
// One pool exists per entity kind for the lifetime of a session; pools are
// constructor-injected rather than process-wide singletons.
package pool

import (
	"sync"
	"sync/atomic"

	"github.com/abacus/ledger/internal/domain/ledger"
)

// Stats represents counters about a pool's activity.
type Stats struct {
	// Allocated is the number of instances constructed fresh
	Allocated int64

	// Reused is the number of Allocate calls served from the free list
	Reused int64

	// Recycled is the total number of instances returned to the pool
	Recycled int64

	// Free is the current size of the free list
	Free int
}

// Pool is a typed free-list arena. Allocate hands out a default-valued
// instance, reusing a recycled one when available. After Recycle the caller
// must not touch the instance again.
type Pool[T any] struct {
	mu        sync.Mutex
	free      []*T
	construct func() *T
	reset     func(*T)

	allocated atomic.Int64
	reused    atomic.Int64
	recycled  atomic.Int64
}

// New creates a pool for one entity kind. construct builds a fresh
// instance; reset restores a recycled instance to its default field values
// before it is handed out again.
func New[T any](construct func() *T, reset func(*T)) *Pool[T] {
	return &Pool[T]{
		construct: construct,
		reset:     reset,
	}
}

// Allocate returns a default-valued instance.
func (p *Pool[T]) Allocate() *T {
	p.mu.Lock()
	if n := len(p.free); n > 0 {
		v := p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
		p.mu.Unlock()

		p.reused.Add(1)
		p.reset(v)
		return v
	}
	p.mu.Unlock()

	p.allocated.Add(1)
	return p.construct()
}

// Recycle returns ownership of v to the pool. Recycling nil is a no-op.
func (p *Pool[T]) Recycle(v *T) {
	if v == nil {
		return
	}

	p.recycled.Add(1)
	p.mu.Lock()
	p.free = append(p.free, v)
	p.mu.Unlock()
}

// Stats returns counters about the pool's activity.
func (p *Pool[T]) Stats() Stats {
	p.mu.Lock()
	free := len(p.free)
	p.mu.Unlock()

	return Stats{
		Allocated: p.allocated.Load(),
		Reused:    p.reused.Load(),
		Recycled:  p.recycled.Load(),
		Free:      free,
	}
}

// Pools bundles the arenas for the three hot entity kinds. A Trans must
// only be recycled after every TransShadow bound to it; recycling the Trans
// first leaves shadows dangling.
type Pools struct {
	Node   *Pool[ledger.Node]
	Trans  *Pool[ledger.Trans]
	Shadow *Pool[ledger.TransShadow]
}

// NewPools creates the per-session pool bundle.
func NewPools() *Pools {
	return &Pools{
		Node:   New(func() *ledger.Node { return &ledger.Node{ID: ledger.RootID} }, (*ledger.Node).Reset),
		Trans:  New(func() *ledger.Trans { return &ledger.Trans{} }, (*ledger.Trans).Reset),
		Shadow: New(func() *ledger.TransShadow { return &ledger.TransShadow{} }, (*ledger.TransShadow).Reset),
	}
}
