package limits

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nickheyer/crawlkit/internal/rule"
)

func TestNilLimitsNeverViolate(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)
	assert.Nil(t, m.Check())
}

func TestUnconfiguredFieldsNeverViolate(t *testing.T) {
	m, err := New(&rule.Limits{})
	require.NoError(t, err)
	assert.Nil(t, m.Check())
}

func TestDeadlineElapsedReportsTimeout(t *testing.T) {
	m, err := New(&rule.Limits{MaxPipelineSecs: 1})
	require.NoError(t, err)
	m.deadline = time.Now().Add(-time.Millisecond)

	cerr := m.Check()
	require.NotNil(t, cerr)
}
