// Package dedupe remembers recently seen request ids so retried writes can be
// acknowledged without being applied twice.
package dedupe

import (
	"container/list"
	"context"
	"sync"
)

// Deduper records seen request ids.
type Deduper interface {
	// SeenAndRecord reports whether id was already seen and records it if not.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so the request can be retried, used when the
	// request was recorded but then rejected.
	Unrecord(ctx context.Context, id string)

	// Reset forgets every id.
	Reset(ctx context.Context)

	Size() int
}

// inMemoryDeduper keeps at most maxSize ids and evicts the oldest first.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List
	maxSize int
}

// NewInMemoryDeduper creates a bounded in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 10000,
		seen:    make(map[string]*list.Element),
		order:   list.New(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}
	if d.maxSize > 0 {
		for d.order.Len() >= d.maxSize {
			oldest := d.order.Front()
			delete(d.seen, oldest.Value.(string))
			d.order.Remove(oldest)
		}
	}
	d.seen[id] = d.order.PushBack(id)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[id]; ok {
		d.order.Remove(el)
		delete(d.seen, id)
	}
}

func (d *inMemoryDeduper) Reset(_ context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seen = make(map[string]*list.Element)
	d.order.Init()
}

func (d *inMemoryDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.order.Len()
}
