package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunnerImmediateRunAndSkip(t *testing.T) {
	r := New(nil)
	var runs atomic.Int32
	started := make(chan struct{}, 4)

	// the first run holds the slot until Stop cancels the context,
	// so every tick in between is skipped
	if _, err := r.Every("refresh", time.Second, true, func(ctx context.Context) {
		runs.Add(1)
		started <- struct{}{}
		<-ctx.Done()
	}); err != nil {
		t.Fatalf("every: %v", err)
	}
	r.Start()

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatalf("immediate run did not start")
	}
	time.Sleep(2200 * time.Millisecond)
	r.Stop()

	if got := runs.Load(); got != 1 {
		t.Fatalf("expected overlapping ticks to be skipped, ran %d times", got)
	}
}

func TestRunnerTicks(t *testing.T) {
	r := New(nil)
	done := make(chan struct{}, 1)
	if _, err := r.Add("tick", "@every 1s", false, func(context.Context) {
		select {
		case done <- struct{}{}:
		default:
		}
	}); err != nil {
		t.Fatalf("add: %v", err)
	}
	r.Start()
	defer r.Stop()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatalf("job never ran")
	}
}

func TestRunnerRecoversPanics(t *testing.T) {
	r := New(nil)
	ran := make(chan struct{}, 1)
	_, _ = r.Every("panics", time.Second, true, func(context.Context) {
		defer func() { ran <- struct{}{} }()
		panic("boom")
	})
	r.Start()
	defer r.Stop()
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatalf("job did not run")
	}
}

func TestRunnerRejectsBadSpecs(t *testing.T) {
	r := New(nil)
	if _, err := r.Add("bad", "not a spec", false, func(context.Context) {}); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := r.Every("fast", 10*time.Millisecond, false, func(context.Context) {}); err == nil {
		t.Fatalf("expected sub-second interval to be rejected")
	}
	id, err := r.Add("six-field", "*/5 * * * * *", false, func(context.Context) {})
	if err != nil {
		t.Fatalf("seconds spec: %v", err)
	}
	if r.Next(id).IsZero() {
		// next is only computed once the cron is running
		r.Start()
		defer r.Stop()
		time.Sleep(10 * time.Millisecond)
		if r.Next(id).IsZero() {
			t.Fatalf("expected a next activation")
		}
	}
}
