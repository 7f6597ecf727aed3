package cache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LRU is a thread-safe in-memory Store that evicts the least recently used
// response once maxEntries is exceeded.
type LRU struct {
	entries *lru.Cache[string, []byte]
}

// NewLRU creates an LRU holding at most maxEntries responses. Sizes below
// one are raised to one.
func NewLRU(maxEntries int) *LRU {
	// lru.New only fails on a non-positive size.
	entries, _ := lru.New[string, []byte](max(maxEntries, 1))
	return &LRU{entries: entries}
}

func (c *LRU) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, ok := c.entries.Get(key)
	return value, ok, nil
}

func (c *LRU) Put(_ context.Context, key string, value []byte) error {
	c.entries.Add(key, value)
	return nil
}

// Len returns the number of cached responses.
func (c *LRU) Len() int {
	return c.entries.Len()
}
