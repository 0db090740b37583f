package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()

	s, err := New(zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { s.Stop() })
	return s
}

func TestScheduler_RegisterTask(t *testing.T) {
	s := newTestScheduler(t)

	cfg := &TaskConfig{
		ID:   "demo",
		Name: "Demo",
		Cron: "0 * * * *",
		Func: func(ctx context.Context) error { return nil },
	}
	if err := s.RegisterTask(cfg); err != nil {
		t.Fatalf("RegisterTask() error = %v", err)
	}
	if err := s.RegisterTask(cfg); err == nil {
		t.Error("duplicate RegisterTask should fail")
	}
}

func TestScheduler_RunTaskNow(t *testing.T) {
	s := newTestScheduler(t)

	ran := make(chan struct{})
	err := s.RegisterTask(&TaskConfig{
		ID:   "run-now",
		Name: "Run Now",
		Cron: "0 0 * * *",
		Func: func(ctx context.Context) error {
			close(ran)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("RegisterTask() error = %v", err)
	}

	if err := s.RunTaskNow("run-now"); err != nil {
		t.Fatalf("RunTaskNow() error = %v", err)
	}

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("task never ran")
	}
}

func TestScheduler_RunTaskNow_Unknown(t *testing.T) {
	s := newTestScheduler(t)

	if err := s.RunTaskNow("missing"); err == nil {
		t.Error("RunTaskNow of unknown task should fail")
	}
}

func TestScheduler_ListTasks(t *testing.T) {
	s := newTestScheduler(t)

	err := s.RegisterTask(&TaskConfig{
		ID:          "listed",
		Name:        "Listed",
		Description: "A listed task",
		Cron:        "*/5 * * * *",
		Func:        func(ctx context.Context) error { return nil },
	})
	if err != nil {
		t.Fatalf("RegisterTask() error = %v", err)
	}

	infos := s.ListTasks()
	if len(infos) != 1 {
		t.Fatalf("ListTasks() returned %d tasks, want 1", len(infos))
	}
	if infos[0].ID != "listed" || infos[0].Cron != "*/5 * * * *" {
		t.Errorf("info = %+v, want the registered task", infos[0])
	}
	if infos[0].LastRun != nil {
		t.Error("LastRun should be nil before any run")
	}
}

func TestScheduler_FailedTaskRecordsLastRun(t *testing.T) {
	s := newTestScheduler(t)

	ran := make(chan struct{})
	err := s.RegisterTask(&TaskConfig{
		ID:   "failing",
		Name: "Failing",
		Cron: "0 0 * * *",
		Func: func(ctx context.Context) error {
			defer close(ran)
			return errors.New("task error")
		},
	})
	if err != nil {
		t.Fatalf("RegisterTask() error = %v", err)
	}

	if err := s.RunTaskNow("failing"); err != nil {
		t.Fatalf("RunTaskNow() error = %v", err)
	}
	<-ran

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		infos := s.ListTasks()
		if len(infos) == 1 && infos[0].LastRun != nil {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Error("LastRun was never recorded after a failed run")
}
