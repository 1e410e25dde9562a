// Package memory implements cachestore.Cache with an in-process sync.Map,
// with TTL enforced lazily on read rather than by a background sweeper.
package memory

import (
	"sync"
	"time"

	"github.com/nickheyer/crawlkit/internal/cachestore"
	"github.com/nickheyer/crawlkit/internal/value"
)

type entry struct {
	value   value.Value
	expires time.Time // zero means no expiry
}

// Cache is a process-local cachestore.Cache backed by sync.Map.
type Cache struct {
	data sync.Map // map[string]entry, keyed by scope+":"+key
}

// New returns an empty in-memory cache.
func New() *Cache {
	return &Cache{}
}

func cacheKey(scope cachestore.Scope, key string) string {
	return string(scope) + ":" + key
}

func (c *Cache) Get(scope cachestore.Scope, key string) (value.Value, bool) {
	raw, ok := c.data.Load(cacheKey(scope, key))
	if !ok {
		return value.Null, false
	}
	e := raw.(entry)
	if !e.expires.IsZero() && time.Now().After(e.expires) {
		c.data.Delete(cacheKey(scope, key))
		return value.Null, false
	}
	return e.value, true
}

func (c *Cache) Set(scope cachestore.Scope, key string, v value.Value, ttl time.Duration) {
	e := entry{value: v}
	if ttl > 0 {
		e.expires = time.Now().Add(ttl)
	}
	c.data.Store(cacheKey(scope, key), e)
}

var _ cachestore.Cache = (*Cache)(nil)
