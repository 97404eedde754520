// Package dedupe tracks idempotency keys of run submissions.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

const defaultMaxSize = 10_000

// Deduper maps idempotency keys to the run they first produced.
type Deduper interface {
	// Claim atomically records key for runID unless key is already known.
	// It returns the run recorded for key and whether the key was already present.
	Claim(ctx context.Context, key, runID string) (string, bool)

	// Release forgets key so the submission can be retried, e.g. after the
	// run queue refused it.
	Release(ctx context.Context, key string)

	Size() int64
}

// entry is a node of the insertion-ordered list, newest at head.
type entry struct {
	key   string
	runID string
	prev  *entry
	next  *entry
}

func (e *entry) reset() {
	*e = entry{}
}

// inMemoryDeduper keeps keys in a map plus a doubly linked list so the oldest
// key is evicted in O(1) once maxSize is reached. maxSize <= 0 is unbounded.
type inMemoryDeduper struct {
	mu      sync.Mutex
	byKey   map[string]*entry
	head    *entry
	tail    *entry
	maxSize int
	size    atomic.Int64
	pool    sync.Pool
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.byKey = make(map[string]*entry)
	d.pool = sync.Pool{New: func() any { return &entry{} }}
	return d
}

func (d *inMemoryDeduper) Claim(_ context.Context, key, runID string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if e, ok := d.byKey[key]; ok {
		return e.runID, true
	}
	if d.maxSize > 0 && len(d.byKey) >= d.maxSize {
		d.remove(d.tail)
	}

	e := d.pool.Get().(*entry) //nolint:forcetypeassert // pool only holds *entry
	e.key, e.runID = key, runID
	e.next = d.head
	if d.head != nil {
		d.head.prev = e
	}
	d.head = e
	if d.tail == nil {
		d.tail = e
	}
	d.byKey[key] = e
	d.size.Add(1)
	return runID, false
}

func (d *inMemoryDeduper) Release(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if e, ok := d.byKey[key]; ok {
		d.remove(e)
	}
}

// remove unlinks e. Caller holds d.mu.
func (d *inMemoryDeduper) remove(e *entry) {
	if e == nil {
		return
	}
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		d.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		d.tail = e.prev
	}
	delete(d.byKey, e.key)
	e.reset()
	d.pool.Put(e)
	d.size.Add(-1)
}

func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
