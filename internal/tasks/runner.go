// Package tasks provides background task submission with
// at-least-one-attempt, no-retry, logged-failure semantics. Reindex work is
// submitted here so a reindex failure can never fail the triggering request.
package tasks

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Task is a named unit of background work.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Runner accepts tasks for background execution. Submission must not block
// the caller; failures are logged and never retried.
type Runner interface {
	Submit(task Task)
}

// GoRunner executes each task on its own goroutine with a bounded deadline.
type GoRunner struct {
	log     *zap.Logger
	timeout time.Duration
}

// NewGoRunner creates a runner. Tasks are cancelled after timeout; zero
// means a 30 second default.
func NewGoRunner(log *zap.Logger, timeout time.Duration) *GoRunner {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GoRunner{log: log, timeout: timeout}
}

// Submit runs the task on a new goroutine. Panics are recovered and logged.
func (r *GoRunner) Submit(task Task) {
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				r.log.Error("Background task panicked",
					zap.String("task", task.Name),
					zap.Any("panic", rec))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		if err := task.Run(ctx); err != nil {
			r.log.Warn("Background task failed",
				zap.String("task", task.Name),
				zap.Error(err))
			return
		}
		r.log.Debug("Background task completed", zap.String("task", task.Name))
	}()
}
