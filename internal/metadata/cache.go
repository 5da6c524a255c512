package metadata

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// Cached memoizes lookups of a slower backend for ttl
type Cached struct {
	next  Lookup
	cache *cache.Cache
}

// NewCached wraps next with a TTL cache
func NewCached(next Lookup, ttl time.Duration) *Cached {
	return &Cached{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

// Lookup returns the cached entry or queries the backend
func (c *Cached) Lookup(icao string) Info {
	key := normalizeICAO(icao)
	if v, found := c.cache.Get(key); found {
		return v.(Info)
	}
	info := c.next.Lookup(key)
	c.cache.SetDefault(key, info)
	return info
}

// Len returns the number of cached entries
func (c *Cached) Len() int {
	return c.cache.ItemCount()
}
