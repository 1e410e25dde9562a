// Package schedule wraps gocron to re-run a rule's flows on a cron
// expression, the way this stack's own scheduler re-runs a scraping job.
package schedule

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/nickheyer/crawlkit/internal/rule"
)

// Job is one scheduled unit of work: run fn whenever cronExpr fires, unless
// a previous run of the same job is still in flight.
type Job struct {
	ID       string
	CronExpr string
	Run      func(ctx context.Context, r *rule.Rule) error
	Rule     *rule.Rule

	mu      sync.Mutex
	running bool
}

// Scheduler owns one gocron instance and the set of jobs registered on it.
type Scheduler struct {
	cron *gocron.Scheduler
	mu   sync.Mutex
	jobs map[string]*Job
}

// New builds a stopped Scheduler ticking in UTC.
func New() *Scheduler {
	return &Scheduler{
		cron: gocron.NewScheduler(time.UTC),
		jobs: make(map[string]*Job),
	}
}

// Start begins running any jobs already registered via Add, and accepts
// further Add calls afterward.
func (s *Scheduler) Start() {
	s.cron.StartAsync()
}

// Stop halts the scheduler; in-flight runs are not interrupted.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// Add registers job on s's cron expression. A job already running when its
// next tick fires is skipped rather than overlapped, matching this stack's
// own mutex-guarded skip-if-running pattern.
func (s *Scheduler) Add(job *Job) error {
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	_, err := s.cron.Cron(job.CronExpr).Tag(job.ID).Do(func() {
		job.mu.Lock()
		if job.running {
			job.mu.Unlock()
			return
		}
		job.running = true
		job.mu.Unlock()

		defer func() {
			job.mu.Lock()
			job.running = false
			job.mu.Unlock()
		}()

		if err := job.Run(context.Background(), job.Rule); err != nil {
			log.Printf("schedule: job %s failed: %v", job.ID, err)
		}
	})
	return err
}

// Remove unregisters job by ID; it has no effect on a run already in flight.
func (s *Scheduler) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[id]; !ok {
		return
	}
	delete(s.jobs, id)
	s.cron.RemoveByTag(id)
}
