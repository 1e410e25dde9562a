package schedule

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nickheyer/crawlkit/internal/rule"
)

func TestAddRegistersJob(t *testing.T) {
	s := New()
	r := &rule.Rule{}

	err := s.Add(&Job{
		ID:       "t1",
		CronExpr: "@every 1h",
		Rule:     r,
		Run:      func(_ context.Context, _ *rule.Rule) error { return nil },
	})
	assert.NoError(t, err)
	assert.Contains(t, s.jobs, "t1")
	s.Stop()
}

func TestRemoveIsIdempotent(t *testing.T) {
	s := New()
	s.Remove("nonexistent")
	assert.Empty(t, s.jobs)
}

func TestAddThenRemove(t *testing.T) {
	s := New()
	r := &rule.Rule{}

	err := s.Add(&Job{
		ID:       "removable",
		CronExpr: "@every 1h",
		Rule:     r,
		Run:      func(_ context.Context, _ *rule.Rule) error { return nil },
	})
	assert.NoError(t, err)

	s.Remove("removable")
	assert.NotContains(t, s.jobs, "removable")
	s.Stop()
}
