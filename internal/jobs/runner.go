package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Runner tracks the worker goroutine for each active job. A job has at
// most one writer at a time; Start rejects a second start for the same
// job id. An optional concurrency cap bounds how many jobs run at once.
type Runner struct {
	mu      sync.Mutex
	active  map[string]context.CancelFunc
	wg      sync.WaitGroup
	sem     chan struct{}
	logger  *slog.Logger
	closed  bool
	baseCtx context.Context
	cancel  context.CancelFunc
}

// NewRunner creates a runner. maxConcurrent <= 0 means unlimited.
func NewRunner(maxConcurrent int, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{
		active:  make(map[string]context.CancelFunc),
		logger:  logger,
		baseCtx: ctx,
		cancel:  cancel,
	}
	if maxConcurrent > 0 {
		r.sem = make(chan struct{}, maxConcurrent)
	}
	return r
}

// ErrAlreadyRunning is returned when a job already has a worker.
var ErrAlreadyRunning = fmt.Errorf("job already running")

// Start launches fn in a worker goroutine for the given job. The context
// passed to fn is cancelled by Cancel or Shutdown. If the concurrency
// cap is reached the worker blocks until a slot frees up, so the job is
// admitted immediately but may wait before doing work.
func (r *Runner) Start(jobID string, fn func(ctx context.Context)) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return fmt.Errorf("runner is shut down")
	}
	if _, exists := r.active[jobID]; exists {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlreadyRunning, jobID)
	}
	ctx, cancel := context.WithCancel(r.baseCtx)
	r.active[jobID] = cancel
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		defer func() {
			cancel()
			r.mu.Lock()
			delete(r.active, jobID)
			r.mu.Unlock()
		}()

		if r.sem != nil {
			select {
			case r.sem <- struct{}{}:
				defer func() { <-r.sem }()
			case <-ctx.Done():
				r.logger.Info("job cancelled while queued", "job_id", jobID)
				return
			}
		}

		fn(ctx)
	}()
	return nil
}

// Cancel stops the worker for a job if one is active. Returns false if
// the job was not running.
func (r *Runner) Cancel(jobID string) bool {
	r.mu.Lock()
	cancel, ok := r.active[jobID]
	r.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// Running reports whether the job has an active worker.
func (r *Runner) Running(jobID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.active[jobID]
	return ok
}

// ActiveCount returns the number of jobs with a worker.
func (r *Runner) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}

// Shutdown cancels all workers and waits for them to exit, or for the
// context to expire.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
