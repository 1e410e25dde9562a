package workerpool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nickheyer/crawlkit/internal/crawlerr"
)

func TestErrorGroupCollectsAllErrors(t *testing.T) {
	g, _ := NewErrorGroup(context.Background(), nil)
	g.Go(func() error { return crawlerr.HTTPRequest("timeout") })
	g.Go(func() error { return crawlerr.Extraction("missing field") })
	g.Go(func() error { return nil })

	_ = g.Wait()
	assert.Len(t, g.Errors(), 2)
}

func TestErrorGroupTemporaryErrorDoesNotBecomeFirstErr(t *testing.T) {
	g, _ := NewErrorGroup(context.Background(), nil)
	g.Go(func() error { return crawlerr.HTTPRequest("timeout") })
	assert.NoError(t, g.Wait())
}

func TestErrorGroupNonTemporaryErrorBecomesFirstErr(t *testing.T) {
	g, _ := NewErrorGroup(context.Background(), nil)
	g.Go(func() error { return crawlerr.Extraction("bad field") })
	err := g.Wait()
	require.Error(t, err)
}

func TestErrorGroupPlainErrorAlwaysCancels(t *testing.T) {
	g, gctx := NewErrorGroup(context.Background(), nil)
	g.Go(func() error { return errors.New("boom") })
	err := g.Wait()
	require.Error(t, err)
	assert.Error(t, gctx.Err())
}
