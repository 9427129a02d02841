package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Job string

const (
	JobDailyBoard    Job = "daily-board"
	JobNotifications Job = "notifications"
)

type JobFunc func(ctx context.Context, now time.Time) error

type schedule struct {
	every time.Duration
	fn    JobFunc
	kick  bool
}

// Runner drives periodic jobs off the engine. Jobs run on their own
// goroutines, one run in flight per job, so a slow run delays only itself.
type Runner struct {
	engine *Engine
	clock  Clock
	logger *slog.Logger

	mu   sync.Mutex
	jobs map[Job]*schedule
}

func NewRunner(engine *Engine, clock Clock, logger *slog.Logger) *Runner {
	if clock == nil {
		clock = RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		engine: engine,
		clock:  clock,
		logger: logger,
		jobs:   make(map[Job]*schedule),
	}
}

// Every runs fn on each boundary of every, e.g. at the top of each minute.
// With runNow the first run happens as soon as Run starts.
func (r *Runner) Every(job Job, every time.Duration, runNow bool, fn JobFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job] = &schedule{every: every, fn: fn, kick: runNow}
}

// NextBoundary is the first multiple of every strictly after now.
func NextBoundary(now time.Time, every time.Duration) time.Time {
	return now.Truncate(every).Add(every)
}

// Run blocks until ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	r.mu.Lock()
	jobs := make(map[Job]*schedule, len(r.jobs))
	for name, s := range r.jobs {
		if s.every <= 0 {
			r.mu.Unlock()
			return fmt.Errorf("scheduler: job %s has non-positive interval", name)
		}
		jobs[name] = s
	}
	r.mu.Unlock()
	if r.engine.Capacity() < len(jobs) {
		return fmt.Errorf("scheduler: buffer %d is smaller than %d jobs", r.engine.Capacity(), len(jobs))
	}

	r.engine.Start()
	defer r.engine.Stop()

	var wg sync.WaitGroup
	defer wg.Wait()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	now := r.clock.Now()
	for name, s := range jobs {
		first := NextBoundary(now, s.every)
		if s.kick {
			first = now
		}
		if err := r.schedule(name, first); err != nil {
			return err
		}
	}

	errCh := make(chan error, len(jobs))
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			return err
		case tr, ok := <-r.engine.C():
			if !ok {
				return nil
			}
			s, known := jobs[tr.Job]
			if !known {
				r.logger.Warn("trigger for unknown job", "job", tr.Job, "trigger_id", tr.ID)
				continue
			}
			// The next trigger is queued only after this run returns, so a job
			// never overlaps itself and never holds up the others.
			wg.Add(1)
			go func() {
				defer wg.Done()
				r.runJob(ctx, tr, s.fn)
				if ctx.Err() != nil {
					return
				}
				if err := r.schedule(tr.Job, NextBoundary(r.clock.Now(), s.every)); err != nil {
					errCh <- err
				}
			}()
		}
	}
}

func (r *Runner) schedule(job Job, at time.Time) error {
	return r.engine.Schedule(Trigger{ID: uuid.NewString(), Job: job, At: at})
}

func (r *Runner) runJob(ctx context.Context, tr Trigger, fn JobFunc) {
	log := r.logger.With("job", tr.Job, "trigger_id", tr.ID)
	defer func() {
		if p := recover(); p != nil {
			log.Error("job panicked", "panic", p)
		}
	}()

	started := time.Now()
	if err := fn(ctx, r.clock.Now()); err != nil {
		log.Error("job failed", "err", err, "elapsed", time.Since(started))
		return
	}
	log.Debug("job finished", "elapsed", time.Since(started))
}
