// Package cache provides LRU caching with disk persistence.
package cache

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrKeyNotFound is returned when a key is not found in the cache.
var ErrKeyNotFound = errors.New("key not found")

// Entry represents a cache entry with metadata.
type Entry[V any] struct {
	Key        string    `msgpack:"key"`
	Value      V         `msgpack:"value"`
	AccessedAt time.Time `msgpack:"accessed_at"`
	CreatedAt  time.Time `msgpack:"created_at"`
}

// LRU is an in-memory LRU cache with optional disk persistence.
// It is safe for concurrent use.
type LRU[V any] struct {
	mu      sync.Mutex
	items   map[string]*listItem[V]
	lru     list[V] // most recent at front
	maxSize int
	onEvict func(key string, value V)
	stats   Stats
}

// listItem is an item in the doubly-linked list.
type listItem[V any] struct {
	Entry[V]
	prev *listItem[V]
	next *listItem[V]
}

// list represents a doubly-linked list.
type list[V any] struct {
	head *listItem[V] // most recently accessed
	tail *listItem[V] // least recently accessed
	len  int
}

func (l *list[V]) pushFront(item *listItem[V]) {
	item.next = l.head
	item.prev = nil
	if l.head != nil {
		l.head.prev = item
	}
	l.head = item
	if l.tail == nil {
		l.tail = item
	}
	l.len++
}

func (l *list[V]) remove(item *listItem[V]) {
	if item.prev != nil {
		item.prev.next = item.next
	} else {
		l.head = item.next
	}
	if item.next != nil {
		item.next.prev = item.prev
	} else {
		l.tail = item.prev
	}
	item.prev, item.next = nil, nil
	l.len--
}

func (l *list[V]) moveToFront(item *listItem[V]) {
	if item == l.head {
		return
	}
	l.remove(item)
	l.pushFront(item)
}

// Options configures the LRU cache.
type Options[V any] struct {
	// MaxSize is the maximum number of entries.
	// 0 means unlimited.
	MaxSize int

	// OnEvict is called when an entry is evicted or deleted.
	OnEvict func(key string, value V)
}

// Stats counts lookups since creation or the last ResetStats.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
}

// HitRate returns hits divided by lookups, 0 without lookups.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// New creates a new LRU cache with the given options.
func New[V any](opts Options[V]) *LRU[V] {
	return &LRU[V]{
		items:   make(map[string]*listItem[V]),
		maxSize: opts.MaxSize,
		onEvict: opts.OnEvict,
	}
}

// Get retrieves a value from the cache.
func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, found := c.items[key]
	if !found {
		c.stats.Misses++
		var zero V
		return zero, false
	}
	c.stats.Hits++
	item.AccessedAt = time.Now()
	c.lru.moveToFront(item)
	return item.Value, true
}

// Lookup is Get with an error for missing keys.
func (c *LRU[V]) Lookup(key string) (V, error) {
	v, ok := c.Get(key)
	if !ok {
		return v, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	return v, nil
}

// Set stores a value in the cache, evicting the least recently used entries
// when the cache is full.
func (c *LRU[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if item, exists := c.items[key]; exists {
		item.Value = value
		item.AccessedAt = now
		c.lru.moveToFront(item)
		return
	}

	item := &listItem[V]{
		Entry: Entry[V]{
			Key:        key,
			Value:      value,
			AccessedAt: now,
			CreatedAt:  now,
		},
	}
	c.items[key] = item
	c.lru.pushFront(item)
	c.evictIfNeeded()
}

// Delete removes a key from the cache.
func (c *LRU[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, found := c.items[key]
	if !found {
		return
	}
	c.lru.remove(item)
	delete(c.items, key)
	if c.onEvict != nil {
		c.onEvict(key, item.Value)
	}
}

// Clear removes all entries from the cache.
func (c *LRU[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*listItem[V])
	c.lru = list[V]{}
}

// Len returns the number of entries in the cache.
func (c *LRU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Keys returns all keys from most to least recently used.
func (c *LRU[V]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.items))
	for item := c.lru.head; item != nil; item = item.next {
		keys = append(keys, item.Key)
	}
	return keys
}

// Stats returns the current cache statistics.
func (c *LRU[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// ResetStats resets the statistics counters.
func (c *LRU[V]) ResetStats() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats = Stats{}
}

func (c *LRU[V]) evictIfNeeded() {
	for c.maxSize > 0 && c.lru.len > c.maxSize {
		item := c.lru.tail
		c.lru.remove(item)
		delete(c.items, item.Key)
		c.stats.Evictions++
		if c.onEvict != nil {
			c.onEvict(item.Key, item.Value)
		}
	}
}

// Save persists the cache to a writer using msgpack, most recently used first.
func (c *LRU[V]) Save(w io.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := make([]Entry[V], 0, len(c.items))
	for item := c.lru.head; item != nil; item = item.next {
		entries = append(entries, item.Entry)
	}
	if err := msgpack.NewEncoder(w).Encode(entries); err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}
	return nil
}

// Load replaces the cache contents with entries read from r using msgpack.
// Entries beyond MaxSize are dropped, least recently used first.
func (c *LRU[V]) Load(r io.Reader) error {
	var entries []Entry[V]
	if err := msgpack.NewDecoder(r).Decode(&entries); err != nil {
		return fmt.Errorf("failed to decode cache: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*listItem[V])
	c.lru = list[V]{}
	for i := len(entries) - 1; i >= 0; i-- {
		item := &listItem[V]{Entry: entries[i]}
		if old, ok := c.items[item.Key]; ok {
			c.lru.remove(old)
		}
		c.items[item.Key] = item
		c.lru.pushFront(item)
	}
	c.evictIfNeeded()
	return nil
}

// PersistToFile saves the cache to a file, creating parent directories.
func PersistToFile[V any](c *LRU[V], path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	if err := c.Save(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadFromFile loads the cache from a file. A missing file leaves the cache empty.
func LoadFromFile[V any](c *LRU[V], path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // No cache file is not an error
		}
		return fmt.Errorf("failed to open cache file: %w", err)
	}
	defer f.Close()

	return c.Load(f)
}
