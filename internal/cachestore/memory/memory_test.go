package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nickheyer/crawlkit/internal/cachestore"
	"github.com/nickheyer/crawlkit/internal/value"
)

func TestGetSetRoundTrip(t *testing.T) {
	c := New()
	c.Set(cachestore.ScopeFlow, "k", value.String("v"), 0)

	got, ok := c.Get(cachestore.ScopeFlow, "k")
	assert.True(t, ok)
	s, _ := got.AsStr()
	assert.Equal(t, "v", s)
}

func TestScopesAreIndependent(t *testing.T) {
	c := New()
	c.Set(cachestore.ScopeFlow, "k", value.String("flow-value"), 0)
	c.Set(cachestore.ScopeRule, "k", value.String("rule-value"), 0)

	flowVal, _ := c.Get(cachestore.ScopeFlow, "k")
	ruleVal, _ := c.Get(cachestore.ScopeRule, "k")

	fs, _ := flowVal.AsStr()
	rs, _ := ruleVal.AsStr()
	assert.Equal(t, "flow-value", fs)
	assert.Equal(t, "rule-value", rs)
}

func TestExpiryIsLazilyEnforced(t *testing.T) {
	c := New()
	c.Set(cachestore.ScopeFlow, "k", value.String("v"), time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get(cachestore.ScopeFlow, "k")
	assert.False(t, ok)
}

func TestMissReturnsFalse(t *testing.T) {
	c := New()
	_, ok := c.Get(cachestore.ScopeFlow, "missing")
	assert.False(t, ok)
}
