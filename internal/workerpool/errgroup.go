package workerpool

import (
	"context"
	"sync"

	"github.com/nickheyer/crawlkit/internal/crawlerr"
	"github.com/nickheyer/crawlkit/internal/logging"
)

// ErrorGroup runs a set of functions concurrently, logging every failure and
// canceling the group's context as soon as one produces a non-temporary
// *crawlerr.Error. Temporary errors (resource limits, timeouts) are recorded
// but do not cancel the group, so retriable work can keep running alongside
// a recoverable failure.
type ErrorGroup struct {
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	once     sync.Once
	firstErr error
	logger   *logging.Logger
	mu       sync.Mutex
	errs     []*crawlerr.Error
}

// NewErrorGroup derives a cancelable context from parent and returns a group
// bound to it.
func NewErrorGroup(parent context.Context, logger *logging.Logger) (*ErrorGroup, context.Context) {
	ctx, cancel := context.WithCancel(parent)
	return &ErrorGroup{ctx: ctx, cancel: cancel, logger: logger}, ctx
}

// Go runs f in a new goroutine tracked by the group.
func (g *ErrorGroup) Go(f func() error) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		err := f()
		if err == nil {
			return
		}
		if ce, ok := err.(*crawlerr.Error); ok {
			g.mu.Lock()
			g.errs = append(g.errs, ce)
			g.mu.Unlock()
			if g.logger != nil {
				g.logger.LogExtractionFailure(logging.NewExtractionFailure(ce, "", "", "", ""))
			}
			if !ce.Temporary() {
				g.once.Do(func() {
					g.firstErr = err
					g.cancel()
				})
			}
			return
		}
		if g.logger != nil {
			g.logger.Error(err.Error(), nil)
		}
		g.once.Do(func() {
			g.firstErr = err
			g.cancel()
		})
	}()
}

// Wait blocks until every goroutine finishes and returns the first
// cancellation-triggering error, if any.
func (g *ErrorGroup) Wait() error {
	g.wg.Wait()
	g.cancel()
	return g.firstErr
}

// Errors returns every *crawlerr.Error collected so far.
func (g *ErrorGroup) Errors() []*crawlerr.Error {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*crawlerr.Error, len(g.errs))
	copy(out, g.errs)
	return out
}
