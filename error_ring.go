package sharenv

import "sync"

// ring is a thread-safe fixed-capacity buffer keeping the most recent items.
// A nil ring is valid and discards everything.
type ring[T any] struct {
	mu    sync.RWMutex
	items []T
	head  int
	count int
}

// newRing creates a ring holding up to size items. It returns nil for size <= 0.
func newRing[T any](size int) *ring[T] {
	if size <= 0 {
		return nil
	}
	return &ring[T]{items: make([]T, size)}
}

func (r *ring[T]) push(item T) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[r.head] = item
	r.head = (r.head + 1) % len(r.items)
	if r.count < len(r.items) {
		r.count++
	}
}

func (r *ring[T]) clear() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var zero T
	for i := range r.items {
		r.items[i] = zero
	}
	r.head = 0
	r.count = 0
}

// all returns the buffered items, oldest first.
func (r *ring[T]) all() []T {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.count == 0 {
		return nil
	}
	size := len(r.items)
	out := make([]T, r.count)
	start := (r.head - r.count + size) % size
	for i := range out {
		out[i] = r.items[(start+i)%size]
	}
	return out
}
