package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduler_Register_Validation(t *testing.T) {
	s := New(RetryPolicy{}, nil)

	run := func(context.Context) error { return nil }

	if err := s.Register(Job{Name: "", Interval: time.Second, Run: run}); err == nil {
		t.Fatal("expected error for empty name")
	}
	if err := s.Register(Job{Name: "clearing", Interval: 0, Run: run}); err == nil {
		t.Fatal("expected error for zero interval")
	}
	if err := s.Register(Job{Name: "clearing", Interval: time.Second}); err == nil {
		t.Fatal("expected error for nil run func")
	}

	if err := s.Register(Job{Name: "clearing", Interval: time.Second, Run: run}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := s.Register(Job{Name: "clearing", Interval: time.Second, Run: run}); err == nil {
		t.Fatal("expected error for duplicate name")
	}
}

func TestScheduler_RunOnce_RespectsPause(t *testing.T) {
	var runs atomic.Int64
	s := New(RetryPolicy{}, nil)
	if err := s.Register(Job{
		Name:     "announce",
		Interval: time.Hour,
		Run: func(context.Context) error {
			runs.Add(1)
			return nil
		},
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	s.RunOnce(t.Context(), "announce")
	if runs.Load() != 1 {
		t.Fatalf("expected one run, got %d", runs.Load())
	}

	if err := s.Pause("announce"); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if !s.Paused("announce") {
		t.Fatal("job not reported paused")
	}
	s.RunOnce(t.Context(), "announce")
	if runs.Load() != 1 {
		t.Fatalf("paused job ran, total %d", runs.Load())
	}

	if err := s.Resume("announce"); err != nil {
		t.Fatalf("resume: %v", err)
	}
	s.RunOnce(t.Context(), "announce")
	if runs.Load() != 2 {
		t.Fatalf("resumed job did not run, total %d", runs.Load())
	}
}

func TestScheduler_RunOnce_RetriesTransientOnly(t *testing.T) {
	transient := errors.New("dependency flaked")
	permanent := errors.New("bad input")

	var transientRuns, permanentRuns atomic.Int64
	s := New(RetryPolicy{
		Attempts:  3,
		Delay:     time.Millisecond,
		Transient: func(err error) bool { return errors.Is(err, transient) },
	}, nil)

	if err := s.Register(Job{Name: "flaky", Interval: time.Hour, Run: func(context.Context) error {
		transientRuns.Add(1)
		return transient
	}}); err != nil {
		t.Fatalf("register flaky: %v", err)
	}
	if err := s.Register(Job{Name: "broken", Interval: time.Hour, Run: func(context.Context) error {
		permanentRuns.Add(1)
		return permanent
	}}); err != nil {
		t.Fatalf("register broken: %v", err)
	}

	s.RunOnce(t.Context(), "flaky")
	if transientRuns.Load() != 3 {
		t.Fatalf("expected 3 attempts for transient failure, got %d", transientRuns.Load())
	}

	s.RunOnce(t.Context(), "broken")
	if permanentRuns.Load() != 1 {
		t.Fatalf("expected 1 attempt for permanent failure, got %d", permanentRuns.Load())
	}
}

func TestScheduler_RunOnce_RecoversPanic(t *testing.T) {
	s := New(RetryPolicy{}, nil)
	if err := s.Register(Job{Name: "panicky", Interval: time.Hour, Run: func(context.Context) error {
		panic("kaboom")
	}}); err != nil {
		t.Fatalf("register: %v", err)
	}

	// Must not propagate the panic.
	s.RunOnce(t.Context(), "panicky")
}

func TestScheduler_Kick_SchedulesExtraRun(t *testing.T) {
	runs := make(chan struct{}, 8)
	s := New(RetryPolicy{}, nil)
	if err := s.Register(Job{
		Name:     "clearing",
		Interval: time.Hour,
		Run: func(context.Context) error {
			runs <- struct{}{}
			return nil
		},
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	s.Start(ctx)

	s.Kick("clearing", 0)

	select {
	case <-runs:
	case <-time.After(2 * time.Second):
		t.Fatal("kicked job never ran")
	}

	cancel()
	s.Wait()
}

func TestScheduler_Jobs_Order(t *testing.T) {
	s := New(RetryPolicy{}, nil)
	run := func(context.Context) error { return nil }

	for _, name := range []string{"announce", "clearing"} {
		if err := s.Register(Job{Name: name, Interval: time.Hour, Run: run}); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}

	got := s.Jobs()
	if len(got) != 2 || got[0] != "announce" || got[1] != "clearing" {
		t.Fatalf("unexpected job order: %v", got)
	}

	s.PauseAll()
	if !s.Paused("announce") || !s.Paused("clearing") {
		t.Fatal("pause all did not pause every job")
	}
	s.ResumeAll()
	if s.Paused("announce") || s.Paused("clearing") {
		t.Fatal("resume all did not resume every job")
	}
}
