package inference

import (
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

// CachedAnswer is a cleaned provider answer
type CachedAnswer struct {
	Text     string
	Provider string
	CachedAt time.Time
}

// ResponseCache provides TTL-based caching of provider answers per normalized input
type ResponseCache struct {
	cache *cache.Cache
}

// NewResponseCache creates a cache with the given TTL. A non-positive TTL disables caching.
func NewResponseCache(ttl time.Duration) *ResponseCache {
	if ttl <= 0 {
		return nil
	}
	return &ResponseCache{
		cache: cache.New(ttl, 2*ttl),
	}
}

// Get retrieves a cached answer
func (c *ResponseCache) Get(input, topic string) (*CachedAnswer, bool) {
	if c == nil {
		return nil, false
	}
	if v, ok := c.cache.Get(cacheKey(input, topic)); ok {
		return v.(*CachedAnswer), true
	}
	return nil, false
}

// Set stores an answer
func (c *ResponseCache) Set(input, topic string, answer *CachedAnswer) {
	if c == nil {
		return
	}
	c.cache.SetDefault(cacheKey(input, topic), answer)
}

// Len returns the number of unexpired entries
func (c *ResponseCache) Len() int {
	if c == nil {
		return 0
	}
	return c.cache.ItemCount()
}

// cacheKey creates a cache key from the input and topic hint
func cacheKey(input, topic string) string {
	return topic + "\x00" + strings.ToLower(strings.TrimSpace(input))
}
