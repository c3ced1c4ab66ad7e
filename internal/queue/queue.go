// Package queue provides a single-lane delay queue for network side effects
// that must respect a provider rate policy: at most one task starts per
// fixed interval, in enqueue order.
package queue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Queue executes enqueued tasks strictly one at a time, spacing task starts
// by at least the configured interval. Enqueue never blocks and the backlog
// is unbounded. A task that panics is logged and swallowed; the queue keeps
// draining. Enqueued tasks cannot be withdrawn.
type Queue struct {
	log     *slog.Logger
	limiter *rate.Limiter
	ctx     context.Context
	cancel  context.CancelFunc

	mu       sync.Mutex
	tasks    []func()
	draining bool
	closed   bool
}

// New creates a queue that starts at most one task per interval.
func New(interval time.Duration, log *slog.Logger) *Queue {
	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		log:     log,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Enqueue appends a task to the backlog and makes sure a drain loop is
// running. It returns immediately; the task runs on the drain goroutine.
func (q *Queue) Enqueue(task func()) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.tasks = append(q.tasks, task)
	if q.draining {
		q.mu.Unlock()
		return
	}
	q.draining = true
	q.mu.Unlock()

	go q.drain()
}

// Depth returns the number of tasks waiting to run.
func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Close tears the queue down: pending tasks are dropped and a drain loop
// blocked on pacing is released. Late Enqueue calls become no-ops.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.tasks = nil
	q.mu.Unlock()
	q.cancel()
}

// drain pops and runs tasks until the backlog is empty, then exits. The
// pacing token is taken before each task so consecutive starts are spaced
// by the interval even across drain restarts.
func (q *Queue) drain() {
	for {
		q.mu.Lock()
		if q.closed || len(q.tasks) == 0 {
			q.draining = false
			q.mu.Unlock()
			return
		}
		q.mu.Unlock()

		if err := q.limiter.Wait(q.ctx); err != nil {
			q.mu.Lock()
			q.draining = false
			q.mu.Unlock()
			return
		}

		q.mu.Lock()
		if q.closed || len(q.tasks) == 0 {
			q.draining = false
			q.mu.Unlock()
			return
		}
		task := q.tasks[0]
		q.tasks = q.tasks[1:]
		q.mu.Unlock()

		q.run(task)
	}
}

func (q *Queue) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			q.log.Error("Queued task panicked", "panic", r)
		}
	}()
	task()
}
