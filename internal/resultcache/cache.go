// Package resultcache is a TTL plus capacity bounded cache for formatted
// processing results, keyed by job id. Capacity eviction drops the
// oldest-inserted entry first.
package resultcache

import (
	"container/list"
	"sync"
	"time"
)

type entry struct {
	key       string
	value     any
	expiresAt time.Time
}

// Cache is safe for concurrent use.
type Cache struct {
	ttl        time.Duration
	maxEntries int

	mu    sync.Mutex
	items map[string]*list.Element
	order *list.List

	// now is swappable for tests.
	now func() time.Time
}

// New constructs a cache. A non-positive maxEntries disables the capacity
// bound; a non-positive ttl makes entries immortal until evicted.
func New(ttl time.Duration, maxEntries int) *Cache {
	return &Cache{
		ttl:        ttl,
		maxEntries: maxEntries,
		items:      make(map[string]*list.Element),
		order:      list.New(),
		now:        time.Now,
	}
}

// Put stores a value, evicting the oldest entry when at capacity.
// Re-inserting a key refreshes its value and expiry but not its insertion
// position.
func (c *Cache) Put(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := time.Time{}
	if c.ttl > 0 {
		expiresAt = c.now().Add(c.ttl)
	}
	if elem, ok := c.items[key]; ok {
		ent := elem.Value.(*entry)
		ent.value = value
		ent.expiresAt = expiresAt
		return
	}
	if c.maxEntries > 0 && c.order.Len() >= c.maxEntries {
		c.evictOldestLocked()
	}
	elem := c.order.PushBack(&entry{key: key, value: value, expiresAt: expiresAt})
	c.items[key] = elem
}

// Get returns the cached value. Expired entries are dropped and reported
// as misses.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return nil, false
	}
	ent := elem.Value.(*entry)
	if !ent.expiresAt.IsZero() && !c.now().Before(ent.expiresAt) {
		c.removeLocked(elem)
		return nil, false
	}
	return ent.value, true
}

// Delete removes a key if present.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[key]; ok {
		c.removeLocked(elem)
	}
}

// EvictExpired drops every expired entry and reports how many went.
func (c *Cache) EvictExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	evicted := 0
	for elem := c.order.Front(); elem != nil; {
		next := elem.Next()
		ent := elem.Value.(*entry)
		if !ent.expiresAt.IsZero() && !now.Before(ent.expiresAt) {
			c.removeLocked(elem)
			evicted++
		}
		elem = next
	}
	return evicted
}

// Clear drops every entry. Used by memory-pressure cleanup.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element)
	c.order.Init()
}

// Len reports the current entry count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *Cache) evictOldestLocked() {
	if elem := c.order.Front(); elem != nil {
		c.removeLocked(elem)
	}
}

func (c *Cache) removeLocked(elem *list.Element) {
	ent := elem.Value.(*entry)
	delete(c.items, ent.key)
	c.order.Remove(elem)
}
