package api

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// ListCache keeps recently fetched lists for a short time. Any mutation
// flushes it so the next render reflects the change.
type ListCache struct {
	items *gocache.Cache // nil when disabled
	ttl   time.Duration
}

// NewListCache returns a cache whose entries live for ttl. A ttl of zero or
// less disables caching.
func NewListCache(ttl time.Duration) *ListCache {
	if ttl <= 0 {
		return &ListCache{}
	}
	return &ListCache{items: gocache.New(ttl, 2*ttl), ttl: ttl}
}

// Invalidate drops every entry.
func (c *ListCache) Invalidate() {
	if c.items != nil {
		c.items.Flush()
	}
}

// Len returns the number of live entries.
func (c *ListCache) Len() int {
	if c.items == nil {
		return 0
	}
	return c.items.ItemCount()
}

// cachedList returns the list under key, loading and storing it on a miss.
// Failed loads are not cached.
func cachedList[T any](c *ListCache, key string, load func() ([]T, error)) ([]T, error) {
	if c.items != nil {
		if v, ok := c.items.Get(key); ok {
			if list, ok := v.([]T); ok {
				return list, nil
			}
		}
	}

	list, err := load()
	if err != nil {
		return nil, err
	}
	if c.items != nil {
		c.items.Set(key, list, c.ttl)
	}
	return list, nil
}
