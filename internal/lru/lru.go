package lru

import "sync"

// DefaultCapacity is used when New is given a non-positive capacity.
const DefaultCapacity = 128

// Stats are cumulative counters since creation or the last ResetStats.
type Stats struct {
	Len       int
	Capacity  int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// HitRate returns hits / (hits + misses), or 0 without lookups.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Cache is a bounded LRU map. It must not be copied after creation.
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	entries  map[K]*node[K, V]
	order    list[K, V]
	capacity int
	onEvict  func(K, V)

	hits, misses, evictions uint64
}

// New creates a cache holding at most capacity entries. onEvict, if not nil,
// runs for every entry dropped by capacity pressure, Delete or Clear.
func New[K comparable, V any](capacity int, onEvict func(K, V)) *Cache[K, V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache[K, V]{
		entries:  make(map[K]*node[K, V]),
		capacity: capacity,
		onEvict:  onEvict,
	}
}

// Get returns the value for key and marks it most recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.entries[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	c.order.moveToFront(n)
	return n.value, true
}

// Set stores value under key, evicting the least recently used entries
// beyond capacity.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	var evicted []*node[K, V]
	if n, ok := c.entries[key]; ok {
		n.value = value
		c.order.moveToFront(n)
	} else {
		n := &node[K, V]{key: key, value: value}
		c.entries[key] = n
		c.order.pushFront(n)
		for c.order.len > c.capacity {
			old := c.order.tail
			c.order.unlink(old)
			delete(c.entries, old.key)
			c.evictions++
			evicted = append(evicted, old)
		}
	}
	c.mu.Unlock()
	c.notify(evicted)
}

// GetOrCreate returns the cached value for key or stores the result of
// create. A create error is returned as is and nothing is stored.
func (c *Cache[K, V]) GetOrCreate(key K, create func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := create()
	if err != nil {
		return v, err
	}
	c.Set(key, v)
	return v, nil
}

// Delete removes key and reports whether it was present.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	n, ok := c.entries[key]
	if ok {
		c.order.unlink(n)
		delete(c.entries, key)
	}
	c.mu.Unlock()
	if ok {
		c.notify([]*node[K, V]{n})
	}
	return ok
}

// Clear removes every entry.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	var all []*node[K, V]
	for n := c.order.head; n != nil; n = n.next {
		all = append(all, n)
	}
	c.entries = make(map[K]*node[K, V])
	c.order = list[K, V]{}
	c.mu.Unlock()
	c.notify(all)
}

// Forget removes every entry without running the eviction callback. Owners
// use it when the values are already invalid, as after a lost device.
func (c *Cache[K, V]) Forget() {
	c.mu.Lock()
	c.entries = make(map[K]*node[K, V])
	c.order = list[K, V]{}
	c.mu.Unlock()
}

// Len returns the number of entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns the current counters.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Len:       len(c.entries),
		Capacity:  c.capacity,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}

// ResetStats zeroes the hit, miss and eviction counters.
func (c *Cache[K, V]) ResetStats() {
	c.mu.Lock()
	c.hits, c.misses, c.evictions = 0, 0, 0
	c.mu.Unlock()
}

// notify runs onEvict outside the lock so callbacks may use the cache.
func (c *Cache[K, V]) notify(nodes []*node[K, V]) {
	if c.onEvict == nil {
		return
	}
	for _, n := range nodes {
		c.onEvict(n.key, n.value)
	}
}
