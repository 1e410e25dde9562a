package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nickheyer/crawlkit/internal/cachestore"
	"github.com/nickheyer/crawlkit/internal/value"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestGetSetRoundTrip(t *testing.T) {
	c := openTestCache(t)
	c.Set(cachestore.ScopeRule, "k", value.String("v"), 0)

	got, ok := c.Get(cachestore.ScopeRule, "k")
	require.True(t, ok)
	s, _ := got.AsStr()
	assert.Equal(t, "v", s)
}

func TestUpsertOverwritesExistingValue(t *testing.T) {
	c := openTestCache(t)
	c.Set(cachestore.ScopeRule, "k", value.String("first"), 0)
	c.Set(cachestore.ScopeRule, "k", value.String("second"), 0)

	got, ok := c.Get(cachestore.ScopeRule, "k")
	require.True(t, ok)
	s, _ := got.AsStr()
	assert.Equal(t, "second", s)
}

func TestExpiredEntryIsDeletedOnRead(t *testing.T) {
	c := openTestCache(t)
	c.Set(cachestore.ScopeFlow, "k", value.String("v"), time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get(cachestore.ScopeFlow, "k")
	assert.False(t, ok)
}

func TestMissReturnsFalse(t *testing.T) {
	c := openTestCache(t)
	_, ok := c.Get(cachestore.ScopeRule, "missing")
	assert.False(t, ok)
}
