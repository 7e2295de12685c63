// Package hook defines the lifecycle-event sink for the scheduler.
// Hooks are notified of execution lifecycle transitions (started,
// completed, failed, retrying, skipped, cancelled) and can react to
// them: logging, metrics, audit trails.
//
// Each lifecycle hook is a separate interface so implementations opt in
// only to the events they care about.
package hook

import (
	"context"
	"time"

	"github.com/xraph/tempo/id"
	"github.com/xraph/tempo/job"
)

// Hook is the base interface all hooks must implement.
type Hook interface {
	// Name returns a unique human-readable name for the hook.
	Name() string
}

// JobStarted is called when an execution begins running.
type JobStarted interface {
	OnJobStarted(ctx context.Context, e *job.Execution) error
}

// JobCompleted is called after an execution finishes successfully.
type JobCompleted interface {
	OnJobCompleted(ctx context.Context, e *job.Execution, elapsed time.Duration) error
}

// JobFailed is called when an execution fails terminally (no more
// retries), including terminal timeouts.
type JobFailed interface {
	OnJobFailed(ctx context.Context, e *job.Execution, err error) error
}

// JobRetrying is called when an execution fails but a retry is scheduled.
type JobRetrying interface {
	OnJobRetrying(ctx context.Context, e *job.Execution, attempt int, nextRunAt time.Time) error
}

// JobSkipped is called when a firing is recorded as skipped instead of
// run (concurrency ceiling, lane saturation).
type JobSkipped interface {
	OnJobSkipped(ctx context.Context, e *job.Execution, reason string) error
}

// JobCancelled is called when an execution is cancelled.
type JobCancelled interface {
	OnJobCancelled(ctx context.Context, e *job.Execution) error
}

// CronFired is called when the due-check loop fires a scheduled job.
type CronFired interface {
	OnCronFired(ctx context.Context, jobName string, execID id.ExecID) error
}

// Shutdown is called during graceful scheduler shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
