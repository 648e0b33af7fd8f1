package inference

import (
	"container/list"
	"sync"
)

// lruCache is a thread-safe LRU. Every delete bumps the key's generation so a
// value read from storage before the delete cannot be stored after it.
type lruCache[K comparable, V any] struct {
	mu         sync.Mutex
	maxEntries int
	order      *list.List // front is most recently used
	items      map[K]*list.Element
	gens       map[K]uint64
}

type cacheItem[K comparable, V any] struct {
	key   K
	value V
}

func newLRUCache[K comparable, V any](maxEntries int) *lruCache[K, V] {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &lruCache[K, V]{
		maxEntries: maxEntries,
		order:      list.New(),
		items:      make(map[K]*list.Element),
		gens:       make(map[K]uint64),
	}
}

func (c *lruCache[K, V]) get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheItem[K, V]).value, true
}

// generation returns the key's current generation. Read it before fetching a
// value and hand it to putAt.
func (c *lruCache[K, V]) generation(key K) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[key]
}

// putAt stores value only if key was not deleted since gen was read, and
// returns the key evicted to make room. stored reports whether it stored.
func (c *lruCache[K, V]) putAt(key K, value V, gen uint64) (evicted K, ok, stored bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gens[key] != gen {
		return evicted, false, false
	}
	evicted, ok = c.store(key, value)
	return evicted, ok, true
}

func (c *lruCache[K, V]) store(key K, value V) (evicted K, ok bool) {
	if el, found := c.items[key]; found {
		el.Value.(*cacheItem[K, V]).value = value
		c.order.MoveToFront(el)
		return evicted, false
	}

	c.items[key] = c.order.PushFront(&cacheItem[K, V]{key: key, value: value})
	if c.order.Len() <= c.maxEntries {
		return evicted, false
	}
	oldest := c.order.Back()
	c.order.Remove(oldest)
	evicted = oldest.Value.(*cacheItem[K, V]).key
	delete(c.items, evicted)
	return evicted, true
}

// delete drops key and invalidates values fetched before this call. It
// reports whether key was cached.
func (c *lruCache[K, V]) delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gens[key]++
	el, ok := c.items[key]
	if !ok {
		return false
	}
	c.order.Remove(el)
	delete(c.items, key)
	return true
}

func (c *lruCache[K, V]) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
