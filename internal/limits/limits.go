// Package limits implements the resource watchdog a flow invocation
// consults against its rule's declared Limits (§5): a process memory sample
// checked against MaxMemoryMB, and a wall-clock deadline checked against
// MaxPipelineSecs. Adapted from this stack's own disk-usage-via-gopsutil
// pattern, generalized from disk space to process memory since that is what
// a single flow invocation can actually exceed.
package limits

import (
	"context"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"

	"github.com/nickheyer/crawlkit/internal/crawlerr"
	"github.com/nickheyer/crawlkit/internal/rule"
)

// Monitor samples this process's own resident memory against a configured
// ceiling. A zero-value Monitor (nil, or built from a nil/zero Limits) never
// reports a violation.
type Monitor struct {
	maxMemoryMB int
	maxSecs     int
	proc        *process.Process
	started     time.Time
	deadline    time.Time
}

// New builds a Monitor from a rule's (possibly nil) Limits, recording the
// wall-clock deadline MaxPipelineSecs implies from now.
func New(l *rule.Limits) (*Monitor, error) {
	m := &Monitor{started: time.Now()}
	if l == nil {
		return m, nil
	}
	m.maxMemoryMB = l.MaxMemoryMB
	m.maxSecs = l.MaxPipelineSecs
	if l.MaxPipelineSecs > 0 {
		m.deadline = m.started.Add(time.Duration(l.MaxPipelineSecs) * time.Second)
	}
	if m.maxMemoryMB > 0 {
		p, err := process.NewProcess(int32(os.Getpid()))
		if err != nil {
			return nil, crawlerr.IO(err.Error())
		}
		m.proc = p
	}
	return m, nil
}

// Check samples current resident memory (if a ceiling is configured) and
// the wall-clock deadline (if one is configured), returning the first
// violation found.
func (m *Monitor) Check() *crawlerr.Error {
	if m == nil {
		return nil
	}
	if !m.deadline.IsZero() && time.Now().After(m.deadline) {
		elapsedMs := time.Since(m.started).Milliseconds()
		return crawlerr.ExecutionTimeout("pipeline", elapsedMs, int64(m.maxSecs)*1000)
	}
	if m.proc == nil {
		return nil
	}
	info, err := m.proc.MemoryInfo()
	if err != nil {
		return crawlerr.IO(err.Error())
	}
	usedMB := int64(info.RSS / (1024 * 1024))
	if usedMB > int64(m.maxMemoryMB) {
		return crawlerr.ResourceLimitExceeded("memory", usedMB, int64(m.maxMemoryMB))
	}
	return nil
}

// WatchContext derives a context.Context bounded by the deadline this
// Monitor was built with, for callers that want cancellation propagated
// through exec/flow calls rather than polled via Check.
func (m *Monitor) WatchContext(parent context.Context) (context.Context, context.CancelFunc) {
	if m == nil || m.deadline.IsZero() {
		return context.WithCancel(parent)
	}
	return context.WithDeadline(parent, m.deadline)
}
