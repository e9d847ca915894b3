package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/riskibarqy/waiver-wire/internal/platform/logging"
	"github.com/sourcegraph/conc"
)

// Job is one periodic task. Run is invoked at every interval tick while
// the job is enabled, and again after a Kick.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// RetryPolicy bounds in-tick retries. Only errors Transient reports true
// for are retried; anything else aborts the tick and waits for the next
// scheduled run.
type RetryPolicy struct {
	Attempts  int
	Delay     time.Duration
	Transient func(error) bool
}

type jobState struct {
	job    Job
	paused bool
	kick   chan time.Duration
}

// Scheduler owns the periodic jobs and their enabled state. Pausing is
// checked at tick boundaries; an in-flight run is never preempted. Kick
// re-enqueues one extra run after a delay, which the clearing process
// uses to drain multiple eligible players one winner per round.
type Scheduler struct {
	mu     sync.Mutex
	jobs   map[string]*jobState
	order  []string
	retry  RetryPolicy
	logger *logging.Logger
	wg     conc.WaitGroup
}

func New(retry RetryPolicy, logger *logging.Logger) *Scheduler {
	if retry.Attempts < 1 {
		retry.Attempts = 1
	}
	if retry.Transient == nil {
		retry.Transient = func(error) bool { return false }
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &Scheduler{
		jobs:   make(map[string]*jobState),
		retry:  retry,
		logger: logger,
	}
}

func (s *Scheduler) Register(job Job) error {
	if job.Name == "" {
		return fmt.Errorf("job name is required")
	}
	if job.Interval <= 0 {
		return fmt.Errorf("job %s interval must be > 0", job.Name)
	}
	if job.Run == nil {
		return fmt.Errorf("job %s run func is required", job.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.Name]; ok {
		return fmt.Errorf("job %s already registered", job.Name)
	}
	s.jobs[job.Name] = &jobState{job: job, kick: make(chan time.Duration, 1)}
	s.order = append(s.order, job.Name)

	return nil
}

// Start launches one loop per registered job. It returns immediately;
// loops stop when ctx is cancelled. Wait blocks until they are done.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range s.order {
		st := s.jobs[name]
		s.wg.Go(func() { s.runLoop(ctx, st) })
	}
}

func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) runLoop(ctx context.Context, st *jobState) {
	ticker := time.NewTicker(st.job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx, st.job.Name)
		case delay := <-st.kick:
			if !sleepCtx(ctx, delay) {
				return
			}
			s.RunOnce(ctx, st.job.Name)
		}
	}
}

// RunOnce executes one tick of the named job, applying the retry policy.
// Job errors never propagate; a paused job is a no-op.
func (s *Scheduler) RunOnce(ctx context.Context, name string) {
	s.mu.Lock()
	st, ok := s.jobs[name]
	paused := ok && st.paused
	s.mu.Unlock()
	if !ok {
		s.logger.WarnContext(ctx, "tick for unknown job", "job", name)
		return
	}
	if paused {
		s.logger.DebugContext(ctx, "job paused, skipping tick", "job", name)
		return
	}

	for attempt := 1; attempt <= s.retry.Attempts; attempt++ {
		err := s.safeRun(ctx, st.job)
		if err == nil {
			return
		}
		if !s.retry.Transient(err) {
			s.logger.ErrorContext(ctx, "job tick failed", "job", name, "error", err)
			return
		}
		if attempt == s.retry.Attempts {
			s.logger.ErrorContext(ctx, "job retries exhausted", "job", name, "attempts", attempt, "error", err)
			return
		}
		s.logger.WarnContext(ctx, "transient job failure, retrying",
			"job", name, "attempt", attempt, "max_attempts", s.retry.Attempts, "error", err)
		if !sleepCtx(ctx, s.retry.Delay) {
			return
		}
	}
}

func (s *Scheduler) safeRun(ctx context.Context, job Job) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name, rec)
		}
	}()

	return job.Run(ctx)
}

// Kick schedules one extra run of the job after delay. A kick already
// pending is enough; extras are dropped.
func (s *Scheduler) Kick(name string, delay time.Duration) {
	s.mu.Lock()
	st, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return
	}

	select {
	case st.kick <- delay:
	default:
	}
}

func (s *Scheduler) Pause(name string) error {
	return s.setPaused(name, true)
}

func (s *Scheduler) Resume(name string) error {
	return s.setPaused(name, false)
}

func (s *Scheduler) PauseAll() {
	s.setAllPaused(true)
}

func (s *Scheduler) ResumeAll() {
	s.setAllPaused(false)
}

func (s *Scheduler) Paused(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.jobs[name]
	return ok && st.paused
}

// Jobs returns registered job names in registration order.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.order))
	copy(out, s.order)

	return out
}

func (s *Scheduler) setPaused(name string, paused bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("unknown job %s", name)
	}
	st.paused = paused

	return nil
}

func (s *Scheduler) setAllPaused(paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, st := range s.jobs {
		st.paused = paused
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
