package cache

import (
	"sync"
	"time"
)

// Cache is a small in-process TTL cache, used to absorb the read load on the
// public catalogue endpoints (courses, coaches, skills, packages). Writes go
// straight to Postgres; readers tolerate entries up to one TTL stale.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]entry
	writes  int
}

type entry struct {
	val       any
	expiresAt int64
}

// sweep the whole map every this many writes; keys here are a handful of
// fixed list names, so this is about hygiene, not memory pressure
const sweepEvery = 64

func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Cache{
		ttl:     ttl,
		entries: make(map[string]entry),
	}
}

func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || time.Now().UnixNano() > e.expiresAt {
		return nil, false
	}

	return e.val, true
}

func (c *Cache) Set(key string, val any) {
	exp := time.Now().Add(c.ttl).UnixNano()

	c.mu.Lock()

	c.entries[key] = entry{val: val, expiresAt: exp}
	c.writes++

	if c.writes%sweepEvery == 0 {
		now := time.Now().UnixNano()

		for k, e := range c.entries {
			if now > e.expiresAt {
				delete(c.entries, k)
			}
		}
	}

	c.mu.Unlock()
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}
