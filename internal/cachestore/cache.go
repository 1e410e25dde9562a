// Package cachestore defines the Cache collaborator contract pipeline steps
// and the flow engine use to memoize extraction results across invocations.
package cachestore

import (
	"time"

	"github.com/nickheyer/crawlkit/internal/rule"
	"github.com/nickheyer/crawlkit/internal/value"
)

// Scope bounds a cached entry's lifetime. Flow-scoped entries are cleared
// when the owning flow invocation exits; rule-scoped entries live as long
// as the rule stays loaded in the host.
type Scope = rule.CacheScope

const (
	ScopeFlow = rule.CacheScopeFlow
	ScopeRule = rule.CacheScopeRule
)

// Cache gets and sets Values keyed by (scope, key). Get/Set are atomic per
// key; a ttl of zero means "no expiry".
type Cache interface {
	Get(scope Scope, key string) (value.Value, bool)
	Set(scope Scope, key string, v value.Value, ttl time.Duration)
}
