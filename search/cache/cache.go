// Package cache memoizes ranked search results for a short time.
package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/noelzubin/notes_search/search"
)

const (
	DefaultTTL     = 30 * time.Second
	DefaultMaxSize = 100
)

// Key identifies a result set. The same query truncated to a different
// limit is a different result set.
type Key struct {
	Query string
	Limit int
}

// Entry is a cached result set and when it was stored.
type Entry struct {
	Results   []search.SearchResult
	Timestamp time.Time
}

// Cache is a TTL cache evicting in insertion order (FIFO): overwriting a
// key doesn't move it to the back. Safe for concurrent use.
type Cache struct {
	ttl     time.Duration
	maxSize int
	now     func() time.Time

	mu      sync.Mutex
	order   *list.List // of *item, oldest first
	entries map[Key]*list.Element
}

type item struct {
	key   Key
	entry Entry
}

func New(ttl time.Duration, maxSize int, now func() time.Time) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if now == nil {
		now = time.Now
	}
	return &Cache{
		ttl:     ttl,
		maxSize: maxSize,
		now:     now,
		order:   list.New(),
		entries: make(map[Key]*list.Element),
	}
}

// Get returns the entry for key unless it is missing or expired. The
// returned results are a copy.
func (c *Cache) Get(key Key) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return Entry{}, false
	}
	it, ok := el.Value.(*item)
	if !ok || it.entry.Results == nil {
		return Entry{}, false
	}
	if c.now().Sub(it.entry.Timestamp) >= c.ttl {
		return Entry{}, false
	}
	return Entry{Results: clone(it.entry.Results), Timestamp: it.entry.Timestamp}, true
}

// Put stores results under key, then evicts the oldest inserted key if
// the cache is over capacity.
func (c *Cache) Put(key Key, results []search.SearchResult) {
	entry := Entry{Results: clone(results), Timestamp: c.now()}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value = &item{key: key, entry: entry}
		return
	}
	c.entries[key] = c.order.PushBack(&item{key: key, entry: entry})

	if c.order.Len() > c.maxSize {
		oldest := c.order.Front()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*item).key)
	}
}

func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.entries = make(map[Key]*list.Element)
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func clone(results []search.SearchResult) []search.SearchResult {
	out := make([]search.SearchResult, len(results))
	copy(out, results)
	return out
}
