package client

import (
	"sync"
	"time"
)

// Coalescer debounces writes: it keeps only the latest value per key and
// hands it to the flush function once the key has been idle for the
// configured window. Rapid edits to the same field therefore produce a
// single write instead of one per keystroke. Close cancels everything still
// pending, so teardown never races a stale flush.
type Coalescer[K comparable, V any] struct {
	window time.Duration
	flush  func(key K, value V)

	mu      sync.Mutex
	pending map[K]*pendingWrite[V]
	closed  bool
}

type pendingWrite[V any] struct {
	value V
	timer *time.Timer
}

// NewCoalescer creates a Coalescer with the given idle window. flush is
// called from a timer goroutine, one key at a time.
func NewCoalescer[K comparable, V any](window time.Duration, flush func(key K, value V)) *Coalescer[K, V] {
	return &Coalescer[K, V]{
		window:  window,
		flush:   flush,
		pending: make(map[K]*pendingWrite[V]),
	}
}

// Put records the latest value for key and restarts its idle window.
func (c *Coalescer[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if entry, ok := c.pending[key]; ok {
		entry.value = value
		entry.timer.Reset(c.window)
		return
	}
	entry := &pendingWrite[V]{value: value}
	entry.timer = time.AfterFunc(c.window, func() { c.fire(key) })
	c.pending[key] = entry
}

// Flush immediately writes out every pending value.
func (c *Coalescer[K, V]) Flush() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	flushed := make(map[K]V, len(c.pending))
	for key, entry := range c.pending {
		entry.timer.Stop()
		flushed[key] = entry.value
		delete(c.pending, key)
	}
	c.mu.Unlock()

	for key, value := range flushed {
		c.flush(key, value)
	}
}

// Close cancels all pending writes without flushing them. Put becomes a
// no-op afterwards.
func (c *Coalescer[K, V]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for key, entry := range c.pending {
		entry.timer.Stop()
		delete(c.pending, key)
	}
}

func (c *Coalescer[K, V]) fire(key K) {
	c.mu.Lock()
	entry, ok := c.pending[key]
	if !ok || c.closed {
		c.mu.Unlock()
		return
	}
	delete(c.pending, key)
	value := entry.value
	c.mu.Unlock()

	c.flush(key, value)
}
