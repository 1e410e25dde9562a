package workerpool

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPoolRunsSubmittedTasks(t *testing.T) {
	p := New(3)
	defer p.Stop()

	var done int32
	for i := 0; i < 20; i++ {
		_ = p.Submit(func() error {
			atomic.AddInt32(&done, 1)
			return nil
		})
	}
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&done) == 20 }, time.Second, time.Millisecond)
}

func TestPoolTracksFailedTasks(t *testing.T) {
	p := New(2)
	defer p.Stop()

	_ = p.Submit(func() error { return assert.AnError })
	assert.Eventually(t, func() bool { return p.Stats().Failed == 1 }, time.Second, time.Millisecond)
}

func TestPoolRecoversFromPanic(t *testing.T) {
	p := New(1)
	defer p.Stop()

	_ = p.Submit(func() error { panic("boom") })
	assert.Eventually(t, func() bool { return p.Stats().Failed == 1 }, time.Second, time.Millisecond)
}

func TestPoolSubmitAfterStopReturnsErrShutdown(t *testing.T) {
	p := New(1)
	p.Stop()
	p.Wait()
	assert.Equal(t, ErrShutdown, p.Submit(func() error { return nil }))
}

func TestPoolDefaultsSizeWhenNonPositive(t *testing.T) {
	p := New(0)
	defer p.Stop()
	assert.Equal(t, 5, p.Stats().Size)
}
