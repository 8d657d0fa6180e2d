package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/despensa-app/despensa/internal/pipeline"
)

// ProcessorQueue runs queued submissions on a single worker. The pipeline
// rejects concurrent runs via its busy flag, so one worker means a retried
// submission never races its predecessor.
type ProcessorQueue struct {
	proc    *pipeline.Processor
	logger  *slog.Logger
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu      sync.Mutex
	closed  bool
	senders sync.WaitGroup
}

type Option func(*ProcessorQueue)

func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewProcessorQueue(proc *pipeline.Processor, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:    proc,
		logger:  logger,
		timeout: 2 * time.Minute,
		ch:      make(chan Job, 64),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			q.logger.Info("worker started")

			for job := range q.ch {
				ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
				summary, err := q.proc.Run(ctx, job.Request)
				cancel()

				if err != nil {
					q.logger.Error("submission failed", "job_id", job.ID, "state", summary.State, "error", err)
				} else {
					q.logger.Info("submission processed", "job_id", job.ID, "success", summary.SuccessCount)
				}
				if job.OnDone != nil {
					job.OnDone(summary, err)
				}
			}

			q.logger.Info("worker stopped")
		}()
	})
}

// Enqueue hands a job to the worker. A full channel blocks the caller, but
// not other callers: the mutex only guards the closed check, never the send.
// After Shutdown every Enqueue returns ErrQueueClosed so callers waiting on
// OnDone are never left hanging.
func (q *ProcessorQueue) Enqueue(_ context.Context, job Job) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.logger.Warn("cannot enqueue: queue is shutting down", "job_id", job.ID)
		return ErrQueueClosed
	}
	q.senders.Add(1)
	q.mu.Unlock()
	defer q.senders.Done()

	select {
	case q.ch <- job:
		q.logger.Info("queued submission", "job_id", job.ID, "user", job.Request.User)
	default:
		q.logger.Warn("queue full, applying backpressure", "job_id", job.ID)
		q.ch <- job
	}
	return nil
}

func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// In-flight sends finish before the channel closes; new ones are
		// already refused by the closed flag.
		q.senders.Wait()
		close(q.ch)
		q.wg.Wait()
	}()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
