package cache

import (
	"context"
	"sync"

	"github.com/Siddarth2230/url-mapping-service/pkg/metrics"
)

const lruLayer = "lru"

// node is an entry in the recency list.
type node struct {
	key   string
	value string
	prev  *node
	next  *node
}

// LRUCache is a thread-safe, fixed capacity, in-process Cache.
type LRUCache struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*node
	head     *node // sentinel; head.next is most recently used
	tail     *node // sentinel; tail.prev is least recently used
}

// NewLRUCache creates an LRU cache with given capacity
func NewLRUCache(capacity int) *LRUCache {
	if capacity <= 0 {
		capacity = 1000 // default
	}

	c := &LRUCache{
		capacity: capacity,
		items:    make(map[string]*node, capacity),
		head:     &node{},
		tail:     &node{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// Get retrieves value and marks as recently used
func (c *LRUCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.items[key]
	if !ok {
		return "", false
	}
	c.unlink(n)
	c.pushFront(n)
	return n.value, true
}

// Put adds or updates a key-value pair, evicting the least recently used
// entry when full.
func (c *LRUCache) Put(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.items[key]; ok {
		n.value = value
		c.unlink(n)
		c.pushFront(n)
		return
	}
	if len(c.items) >= c.capacity {
		c.evictOldest()
	}
	n := &node{key: key, value: value}
	c.pushFront(n)
	c.items[key] = n
	metrics.CacheSize.WithLabelValues(lruLayer).Set(float64(len(c.items)))
}

// Peek retrieves value WITHOUT marking as recently used.
func (c *LRUCache) Peek(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.items[key]
	if !ok {
		return "", false
	}
	return n.value, true
}

func (c *LRUCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *LRUCache) Lookup(_ context.Context, shortURL string) (string, error) {
	if v, ok := c.Get(shortURL); ok {
		return v, nil
	}
	return "", ErrCacheMiss
}

func (c *LRUCache) Store(_ context.Context, shortURL, fullURL string) error {
	c.Put(shortURL, fullURL)
	return nil
}

func (c *LRUCache) Layer() string { return lruLayer }

func (c *LRUCache) unlink(n *node) {
	n.prev.next = n.next
	n.next.prev = n.prev
}

func (c *LRUCache) pushFront(n *node) {
	first := c.head.next
	n.prev = c.head
	n.next = first
	c.head.next = n
	first.prev = n
}

func (c *LRUCache) evictOldest() {
	oldest := c.tail.prev
	if oldest == c.head {
		return
	}
	c.unlink(oldest)
	delete(c.items, oldest.key)
}
