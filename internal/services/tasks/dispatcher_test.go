package tasks

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"doorcam/internal/config"
	"doorcam/internal/logger"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestDispatcher_RunsTasks(t *testing.T) {
	d := NewDispatcher(config.TaskConfig{Workers: 2, QueueSize: 10}, newTestLogger(t))

	var count atomic.Int32
	for i := 0; i < 5; i++ {
		if !d.Submit("count", func(ctx context.Context) { count.Add(1) }) {
			t.Fatalf("Submit %d rejected", i)
		}
	}

	d.Close()
	d.Wait()

	if count.Load() != 5 {
		t.Errorf("Expected 5 tasks to run, got %d", count.Load())
	}
}

func TestDispatcher_SubmitDoesNotBlock(t *testing.T) {
	d := NewDispatcher(config.TaskConfig{Workers: 1, QueueSize: 1}, newTestLogger(t))

	release := make(chan struct{})
	started := make(chan struct{})
	d.Submit("slow", func(ctx context.Context) {
		close(started)
		<-release
	})
	<-started

	// worker busy, this one fills the queue
	if !d.Submit("queued", func(ctx context.Context) {}) {
		t.Fatal("Second task should fit in the queue")
	}

	begin := time.Now()
	if d.Submit("dropped", func(ctx context.Context) {}) {
		t.Error("Third task should be dropped while the queue is full")
	}
	if elapsed := time.Since(begin); elapsed > 100*time.Millisecond {
		t.Errorf("Submit blocked for %v", elapsed)
	}

	close(release)
	d.Close()
	d.Wait()
}

func TestDispatcher_RejectsAfterClose(t *testing.T) {
	d := NewDispatcher(config.TaskConfig{Workers: 1, QueueSize: 4}, newTestLogger(t))
	d.Close()
	d.Close()

	if d.Submit("late", func(ctx context.Context) {}) {
		t.Error("Submit after Close should be rejected")
	}
	d.Wait()
}

func TestDispatcher_RecoversFromPanic(t *testing.T) {
	d := NewDispatcher(config.TaskConfig{Workers: 1, QueueSize: 4}, newTestLogger(t))

	var ran atomic.Bool
	d.Submit("boom", func(ctx context.Context) { panic("boom") })
	d.Submit("after", func(ctx context.Context) { ran.Store(true) })

	d.Close()
	d.Wait()

	if !ran.Load() {
		t.Error("Worker should survive a panicking task")
	}
}

func TestInline_RunsSynchronously(t *testing.T) {
	ran := false
	Inline{}.Submit("now", func(ctx context.Context) { ran = true })
	if !ran {
		t.Error("Inline should run the task before returning")
	}
}
