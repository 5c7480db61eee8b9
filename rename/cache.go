package rename

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of rewrites kept by [NewDefaultCache].
const DefaultCacheSize = 256

// Cache memoizes [Rewrite] results keyed by prefix and source. A nil *Cache
// is valid and calls Rewrite directly. Cache is safe for concurrent use.
type Cache struct {
	lru *lru.Cache[cacheKey, Result]
}

type cacheKey struct {
	prefix, code string
}

// NewCache returns a cache holding at most size rewrites.
func NewCache(size int) (*Cache, error) {
	c, err := lru.New[cacheKey, Result](size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: c}, nil
}

func NewDefaultCache() *Cache {
	c, err := NewCache(DefaultCacheSize)
	if err != nil {
		panic(err)
	}
	return c
}

// Rewrite is [Rewrite] with memoization. The returned Map must not be modified.
func (c *Cache) Rewrite(code, prefix string) Result {
	if c == nil {
		return Rewrite(code, prefix)
	}
	key := cacheKey{prefix: prefix, code: code}
	if res, ok := c.lru.Get(key); ok {
		return res
	}
	res := Rewrite(code, prefix)
	c.lru.Add(key, res)
	return res
}

// Len returns the number of cached rewrites.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}

// Purge drops all cached rewrites.
func (c *Cache) Purge() {
	if c != nil {
		c.lru.Purge()
	}
}
