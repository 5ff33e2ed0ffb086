package cache

import (
	"sort"
	"sync"
	"time"
)

// Cache is a key-value store whose entries may expire.
type Cache[K comparable, V any] interface {
	// Get returns the value and whether it was present and not expired.
	Get(key K) (V, bool)

	// Set stores the value; ttl <= 0 means it never expires.
	Set(key K, value V, ttl time.Duration)

	Delete(key K)

	// Values returns the live values in insertion order.
	Values() []V

	Len() int

	Clear()

	// PurgeExpired removes expired entries.
	PurgeExpired()
}

type entry[V any] struct {
	value     V
	expiresAt time.Time // zero means no expiration
	seq       uint64
}

func (e entry[V]) expired(at time.Time) bool {
	return !e.expiresAt.IsZero() && !at.Before(e.expiresAt)
}

// TTL is a mutex-guarded map cache with per-entry expiry. Expired entries are
// hidden on read and only dropped by PurgeExpired or an overwrite.
type TTL[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]entry[V]
	seq   uint64
	now   func() time.Time
}

// NewTTL constructs an empty cache. A nil clock means time.Now.
func NewTTL[K comparable, V any](clock func() time.Time) *TTL[K, V] {
	if clock == nil {
		clock = time.Now
	}
	return &TTL[K, V]{
		items: make(map[K]entry[V]),
		now:   clock,
	}
}

// Get implements Cache.Get.
func (c *TTL[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var zero V
	e, ok := c.items[key]
	if !ok || e.expired(c.now()) {
		return zero, false
	}
	return e.value, true
}

// Set implements Cache.Set.
func (c *TTL[K, V]) Set(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var exp time.Time
	if ttl > 0 {
		exp = c.now().Add(ttl)
	}
	c.seq++
	c.items[key] = entry[V]{value: value, expiresAt: exp, seq: c.seq}
}

// Delete implements Cache.Delete.
func (c *TTL[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Values implements Cache.Values.
func (c *TTL[K, V]) Values() []V {
	c.mu.RLock()
	defer c.mu.RUnlock()

	at := c.now()
	live := make([]entry[V], 0, len(c.items))
	for _, e := range c.items {
		if !e.expired(at) {
			live = append(live, e)
		}
	}
	sort.Slice(live, func(i, j int) bool { return live[i].seq < live[j].seq })

	out := make([]V, len(live))
	for i, e := range live {
		out[i] = e.value
	}
	return out
}

// Len implements Cache.Len. Only live entries are counted.
func (c *TTL[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	at := c.now()
	count := 0
	for _, e := range c.items {
		if !e.expired(at) {
			count++
		}
	}
	return count
}

// Clear implements Cache.Clear.
func (c *TTL[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]entry[V])
}

// PurgeExpired implements Cache.PurgeExpired.
func (c *TTL[K, V]) PurgeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	at := c.now()
	for k, e := range c.items {
		if e.expired(at) {
			delete(c.items, k)
		}
	}
}

var _ Cache[string, int] = (*TTL[string, int])(nil)
