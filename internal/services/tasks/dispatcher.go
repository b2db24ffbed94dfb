package tasks

import (
	"context"
	"sync"
	"time"

	"doorcam/internal/config"
	"doorcam/internal/logger"

	"github.com/google/uuid"
)

// Func is a best-effort background job. The context is never cancelled by
// the dispatcher; jobs bound their own network calls with timeouts.
type Func func(ctx context.Context)

// Runner accepts background jobs without blocking the caller.
type Runner interface {
	Submit(name string, fn Func) bool
}

type task struct {
	id     string
	name   string
	fn     Func
	queued time.Time
}

// Dispatcher runs submitted jobs on a fixed pool of workers fed by a bounded
// queue. Jobs are fire-and-forget: nothing retries them and shutdown does not
// cancel them.
type Dispatcher struct {
	queue  chan task
	logger *logger.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(cfg config.TaskConfig, logger *logger.Logger) *Dispatcher {
	d := &Dispatcher{
		queue:  make(chan task, cfg.QueueSize),
		logger: logger,
	}

	for i := 0; i < cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}

	d.logger.Info("🎬 Task dispatcher started - %d worker(s), queue of %d", cfg.Workers, cfg.QueueSize)
	return d
}

// Submit queues fn and returns immediately. It reports false when the queue is
// full or the dispatcher is closed; the job is then dropped.
func (d *Dispatcher) Submit(name string, fn Func) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warning("Dispatcher closed - dropping task %s", name)
		return false
	}

	t := task{id: uuid.NewString(), name: name, fn: fn, queued: time.Now()}
	select {
	case d.queue <- t:
		return true
	default:
		d.logger.Warning("⚠️  Task queue full - dropping task %s", name)
		return false
	}
}

func (d *Dispatcher) worker(workerID int) {
	defer d.wg.Done()

	for t := range d.queue {
		d.run(workerID, t)
	}
}

func (d *Dispatcher) run(workerID int, t task) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Task %s (%s) panicked on worker %d: %v", t.name, t.id, workerID, r)
		}
	}()

	start := time.Now()
	t.fn(context.Background())
	d.logger.Info("🔧 Task %s (%s) done on worker %d in %v (queued %v)",
		t.name, t.id, workerID, time.Since(start).Round(time.Millisecond), start.Sub(t.queued).Round(time.Millisecond))
}

// Close stops accepting jobs. Queued and running jobs still complete; Close
// does not wait for them.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	d.closed = true
	close(d.queue)
}

// Wait blocks until every worker has exited. Only meaningful after Close.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Inline runs jobs synchronously on the caller's goroutine.
type Inline struct{}

func (Inline) Submit(_ string, fn Func) bool {
	fn(context.Background())
	return true
}
