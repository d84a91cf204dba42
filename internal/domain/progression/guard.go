package progression

import (
	"context"
	"sync"
	"sync/atomic"
)

// Guard tracks which race results have already been applied, enforcing
// exactly-once career progression per race id.
type Guard interface {
	// MarkApplied atomically checks whether raceID was already applied
	// and marks it if not. Returns true if it was already applied.
	MarkApplied(ctx context.Context, raceID string) bool

	// Forget removes a race id from the applied set. Used only when a
	// result was marked but its persistence ultimately failed, so the
	// apply can be retried.
	Forget(ctx context.Context, raceID string)

	Size() int64
}

type entry struct {
	raceID string
	next   *entry
}

func (e *entry) reset() {
	e.raceID = ""
	e.next = nil
}

// memoryGuard is a bounded in-memory Guard. It keeps race ids in a map
// plus a linked list ordered by insertion so the oldest mark can be
// evicted when the bound is hit. Entries are pooled.
type memoryGuard struct {
	mu      sync.Mutex
	applied map[string]*entry
	head    *entry
	maxSize int
	size    atomic.Int64
	pool    sync.Pool
}

// defaultGuardSize bounds the applied set; a season is far smaller, the
// headroom covers long-running processes replaying many seasons.
const defaultGuardSize = 50_000

// GuardOption configures the in-memory guard.
type GuardOption func(*memoryGuard)

// WithGuardSize bounds the number of race ids remembered. Zero or
// negative means unbounded.
func WithGuardSize(n int) GuardOption {
	return func(g *memoryGuard) { g.maxSize = n }
}

// NewMemoryGuard returns a bounded in-memory Guard.
func NewMemoryGuard(opts ...GuardOption) Guard {
	g := &memoryGuard{maxSize: defaultGuardSize}
	for _, opt := range opts {
		opt(g)
	}
	g.applied = make(map[string]*entry)
	if g.maxSize > 0 {
		g.pool = sync.Pool{New: func() any { return &entry{} }}
	}
	return g
}

func (g *memoryGuard) MarkApplied(_ context.Context, raceID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.applied[raceID]; ok {
		return true
	}

	if g.maxSize > 0 {
		if len(g.applied) >= g.maxSize {
			g.evictOldest()
		}
		e := g.pool.Get().(*entry)
		e.raceID = raceID
		e.next = g.head
		g.head = e
		g.applied[raceID] = e
	} else {
		g.applied[raceID] = nil
	}
	g.size.Add(1)
	return false
}

func (g *memoryGuard) Forget(_ context.Context, raceID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	e, ok := g.applied[raceID]
	if !ok {
		return
	}
	delete(g.applied, raceID)
	g.size.Add(-1)

	if g.maxSize <= 0 {
		return
	}
	if g.head == e {
		g.head = e.next
	} else {
		cur := g.head
		for cur != nil && cur.next != e {
			cur = cur.next
		}
		if cur != nil {
			cur.next = e.next
		}
	}
	e.reset()
	g.pool.Put(e)
}

// evictOldest drops the tail of the insertion list. Caller holds g.mu.
func (g *memoryGuard) evictOldest() {
	if g.head == nil {
		return
	}
	if g.head.next == nil {
		delete(g.applied, g.head.raceID)
		g.head.reset()
		g.pool.Put(g.head)
		g.head = nil
		g.size.Add(-1)
		return
	}
	prev := g.head
	cur := g.head.next
	for cur.next != nil {
		prev = cur
		cur = cur.next
	}
	prev.next = nil
	delete(g.applied, cur.raceID)
	cur.reset()
	g.pool.Put(cur)
	g.size.Add(-1)
}

func (g *memoryGuard) Size() int64 {
	return g.size.Load()
}
