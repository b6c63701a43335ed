package geocache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/couchcryptid/safety-check-service/internal/domain"
	"github.com/couchcryptid/safety-check-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// CachedResolver wraps a LocationResolver with an in-memory LRU cache whose
// entries expire after a fixed TTL.
type CachedResolver struct {
	inner   domain.LocationResolver
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedResolver creates a cache decorator around a resolver. A nil clock
// uses real time.
func NewCachedResolver(inner domain.LocationResolver, maxEntries int, ttl time.Duration, clock clockwork.Clock, metrics *observability.Metrics) *CachedResolver {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &CachedResolver{
		inner:   inner,
		cache:   newLRUCache(maxEntries, ttl, clock),
		metrics: metrics,
	}
}

// Resolve returns a cached location for the normalized query or delegates to
// the wrapped resolver.
func (c *CachedResolver) Resolve(ctx context.Context, text string) (domain.ResolvedLocation, error) {
	key := cacheKey(text)
	if key == "" {
		return c.inner.Resolve(ctx, text)
	}
	if loc, ok := c.cache.get(key); ok {
		c.observe("hit")
		return loc, nil
	}
	c.observe("miss")

	loc, err := c.inner.Resolve(ctx, text)
	if err != nil {
		// Failures are not cached so a flaky upstream or a later-indexed place can be retried.
		return loc, err
	}
	c.cache.put(key, loc)
	return loc, nil
}

// Len returns the number of cached entries, expired ones included.
func (c *CachedResolver) Len() int {
	return c.cache.len()
}

func (c *CachedResolver) observe(result string) {
	if c.metrics == nil {
		return
	}
	c.metrics.GeocodeCache.WithLabelValues(result).Inc()
}

func cacheKey(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

// lruCache is a thread-safe LRU cache for resolved locations.
type lruCache struct {
	maxEntries int
	ttl        time.Duration
	clock      clockwork.Clock
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key       string
	value     domain.ResolvedLocation
	expiresAt time.Time
	prev      *entry
	next      *entry
}

func newLRUCache(maxEntries int, ttl time.Duration, clock clockwork.Clock) *lruCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &lruCache{
		maxEntries: maxEntries,
		ttl:        ttl,
		clock:      clock,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (domain.ResolvedLocation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.ResolvedLocation{}, false
	}
	if c.ttl > 0 && !c.clock.Now().Before(e.expiresAt) {
		delete(c.entries, key)
		c.remove(e)
		return domain.ResolvedLocation{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value domain.ResolvedLocation) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.clock.Now().Add(c.ttl)
	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value, expiresAt: expiresAt}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
