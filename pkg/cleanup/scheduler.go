// Package cleanup provides a generic ticker-driven periodic-sweep
// scheduler, generalized from the teacher's pkg/cleanup/service.go
// (a single Service hardcoded to two retention jobs sharing one
// interval) to an arbitrary set of independently-intervalled named
// jobs. Used by the Cache Manager's expiry sweep and the Background
// Processor's task-registry pruning.
package cleanup

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job is one periodic sweep: Run fires immediately on Scheduler.Start
// and then every Interval until the scheduler stops.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context)
}

// Scheduler runs a fixed set of Jobs concurrently, each on its own
// ticker, with clean Start/Stop semantics (teacher's
// Service.Start/Stop/run shape, one goroutine per job instead of one
// goroutine running every job in lockstep).
type Scheduler struct {
	jobs []Job

	cancel context.CancelFunc
	wg     sync.WaitGroup

	startOnce sync.Once
	stopOnce  sync.Once
}

// NewScheduler builds a Scheduler from its jobs. Jobs with a
// non-positive Interval are skipped with a logged warning rather than
// spinning a zero-duration ticker.
func NewScheduler(jobs ...Job) *Scheduler {
	return &Scheduler{jobs: jobs}
}

// Start launches one goroutine per job. Safe to call once; subsequent
// calls are a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		ctx, s.cancel = context.WithCancel(ctx)
		for _, job := range s.jobs {
			if job.Interval <= 0 {
				slog.Warn("cleanup job skipped: non-positive interval", "job", job.Name)
				continue
			}
			s.wg.Add(1)
			go s.runJob(ctx, job)
		}
	})
}

// Stop cancels every job goroutine and waits for them to exit.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		if s.cancel == nil {
			return
		}
		s.cancel()
		s.wg.Wait()
	})
}

func (s *Scheduler) runJob(ctx context.Context, job Job) {
	defer s.wg.Done()

	s.runOnce(ctx, job)

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, job)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, job Job) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("cleanup job panicked", "job", job.Name, "recovered", r)
		}
	}()
	job.Run(ctx)
}
