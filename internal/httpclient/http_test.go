package httpclient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nickheyer/crawlkit/internal/rule"
)

func TestNewAppliesDocumentedDefaults(t *testing.T) {
	c, err := New(nil)
	require.NoError(t, err)
	assert.Equal(t, rule.DefaultUserAgent, c.config.UserAgent)
	assert.Equal(t, 30*time.Second, c.config.Timeout)
	assert.True(t, c.config.FollowRedirects)
	assert.Equal(t, rule.DefaultMaxRedirects, c.config.MaxRedirects)
}

func TestNewRejectsInvalidProxy(t *testing.T) {
	bogus := "://not-a-url"
	_, err := New(&rule.HTTPConfig{Proxy: &bogus})
	require.Error(t, err)
}
