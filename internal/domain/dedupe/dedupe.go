// Package dedupe remembers idempotency keys so repeated uploads resolve to
// the session created by the first one.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Deduper binds idempotency keys to the value produced by their first use.
type Deduper interface {
	// Claim atomically binds key to value unless key is already bound.
	// It returns the bound value and whether key had been seen before.
	Claim(ctx context.Context, key, value string) (bound string, seen bool)

	// Release forgets key so a later request can claim it again. It is used
	// when the work behind a claim failed.
	Release(ctx context.Context, key string)

	Size() int64
}

// node is one entry of the insertion-ordered list; head is the newest.
type node struct {
	key   string
	value string
	next  *node
}

func (n *node) reset() {
	n.key, n.value, n.next = "", "", nil
}

// inMemoryDeduper keeps keys in a map plus a singly linked list so the
// oldest key is evicted once maxSize is reached. maxSize <= 0 never evicts.
type inMemoryDeduper struct {
	mu       sync.Mutex
	seen     map[string]*node
	head     *node
	maxSize  int
	size     atomic.Int64
	nodePool sync.Pool
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 10000,
		seen:    make(map[string]*node),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.nodePool = sync.Pool{New: func() interface{} { return &node{} }}
	return d
}

func (d *inMemoryDeduper) Claim(_ context.Context, key, value string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if n, ok := d.seen[key]; ok {
		return n.value, true
	}
	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.evictOldest()
	}

	n := d.nodePool.Get().(*node)
	n.key, n.value, n.next = key, value, d.head
	d.head = n
	d.seen[key] = n
	d.size.Add(1)
	return value, false
}

func (d *inMemoryDeduper) Release(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n, ok := d.seen[key]
	if !ok {
		return
	}
	delete(d.seen, key)
	if d.head == n {
		d.head = n.next
	} else {
		for cur := d.head; cur != nil; cur = cur.next {
			if cur.next == n {
				cur.next = n.next
				break
			}
		}
	}
	n.reset()
	d.nodePool.Put(n)
	d.size.Add(-1)
}

// evictOldest drops the tail of the list. Must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	if d.head == nil {
		return
	}
	var prev *node
	cur := d.head
	for cur.next != nil {
		prev, cur = cur, cur.next
	}
	if prev == nil {
		d.head = nil
	} else {
		prev.next = nil
	}
	delete(d.seen, cur.key)
	cur.reset()
	d.nodePool.Put(cur)
	d.size.Add(-1)
}

func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
