package hook

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/tempo/id"
	"github.com/xraph/tempo/job"
)

// Named entry types pair a hook implementation with the hook name
// captured at registration time. This avoids type-asserting back to
// Hook inside the emit methods.
type jobStartedEntry struct {
	name string
	hook JobStarted
}

type jobCompletedEntry struct {
	name string
	hook JobCompleted
}

type jobFailedEntry struct {
	name string
	hook JobFailed
}

type jobRetryingEntry struct {
	name string
	hook JobRetrying
}

type jobSkippedEntry struct {
	name string
	hook JobSkipped
}

type jobCancelledEntry struct {
	name string
	hook JobCancelled
}

type cronFiredEntry struct {
	name string
	hook CronFired
}

type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered hooks and dispatches lifecycle events to
// them. It type-caches hooks at registration time so emit calls iterate
// only over hooks that implement the relevant interface. Hook errors are
// logged and swallowed: an observer must never break scheduling.
type Registry struct {
	hooks  []Hook
	logger *slog.Logger

	jobStarted   []jobStartedEntry
	jobCompleted []jobCompletedEntry
	jobFailed    []jobFailedEntry
	jobRetrying  []jobRetryingEntry
	jobSkipped   []jobSkippedEntry
	jobCancelled []jobCancelledEntry
	cronFired    []cronFiredEntry
	shutdown     []shutdownEntry
}

// NewRegistry creates a hook registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds a hook and type-asserts it into all applicable caches.
// Hooks are notified in registration order. Register is not safe to call
// concurrently with emits; register everything before Start.
func (r *Registry) Register(h Hook) {
	r.hooks = append(r.hooks, h)
	name := h.Name()

	if v, ok := h.(JobStarted); ok {
		r.jobStarted = append(r.jobStarted, jobStartedEntry{name, v})
	}
	if v, ok := h.(JobCompleted); ok {
		r.jobCompleted = append(r.jobCompleted, jobCompletedEntry{name, v})
	}
	if v, ok := h.(JobFailed); ok {
		r.jobFailed = append(r.jobFailed, jobFailedEntry{name, v})
	}
	if v, ok := h.(JobRetrying); ok {
		r.jobRetrying = append(r.jobRetrying, jobRetryingEntry{name, v})
	}
	if v, ok := h.(JobSkipped); ok {
		r.jobSkipped = append(r.jobSkipped, jobSkippedEntry{name, v})
	}
	if v, ok := h.(JobCancelled); ok {
		r.jobCancelled = append(r.jobCancelled, jobCancelledEntry{name, v})
	}
	if v, ok := h.(CronFired); ok {
		r.cronFired = append(r.cronFired, cronFiredEntry{name, v})
	}
	if v, ok := h.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, v})
	}
}

// Names returns the names of all registered hooks, in order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.hooks))
	for i, h := range r.hooks {
		names[i] = h.Name()
	}
	return names
}

func (r *Registry) hookErr(name, event string, err error) {
	if err != nil {
		r.logger.Warn("hook error",
			slog.String("hook", name),
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}

// EmitJobStarted notifies JobStarted hooks.
func (r *Registry) EmitJobStarted(ctx context.Context, e *job.Execution) {
	for _, en := range r.jobStarted {
		r.hookErr(en.name, "job_started", en.hook.OnJobStarted(ctx, e))
	}
}

// EmitJobCompleted notifies JobCompleted hooks.
func (r *Registry) EmitJobCompleted(ctx context.Context, e *job.Execution, elapsed time.Duration) {
	for _, en := range r.jobCompleted {
		r.hookErr(en.name, "job_completed", en.hook.OnJobCompleted(ctx, e, elapsed))
	}
}

// EmitJobFailed notifies JobFailed hooks.
func (r *Registry) EmitJobFailed(ctx context.Context, e *job.Execution, err error) {
	for _, en := range r.jobFailed {
		r.hookErr(en.name, "job_failed", en.hook.OnJobFailed(ctx, e, err))
	}
}

// EmitJobRetrying notifies JobRetrying hooks.
func (r *Registry) EmitJobRetrying(ctx context.Context, e *job.Execution, attempt int, nextRunAt time.Time) {
	for _, en := range r.jobRetrying {
		r.hookErr(en.name, "job_retrying", en.hook.OnJobRetrying(ctx, e, attempt, nextRunAt))
	}
}

// EmitJobSkipped notifies JobSkipped hooks.
func (r *Registry) EmitJobSkipped(ctx context.Context, e *job.Execution, reason string) {
	for _, en := range r.jobSkipped {
		r.hookErr(en.name, "job_skipped", en.hook.OnJobSkipped(ctx, e, reason))
	}
}

// EmitJobCancelled notifies JobCancelled hooks.
func (r *Registry) EmitJobCancelled(ctx context.Context, e *job.Execution) {
	for _, en := range r.jobCancelled {
		r.hookErr(en.name, "job_cancelled", en.hook.OnJobCancelled(ctx, e))
	}
}

// EmitCronFired notifies CronFired hooks.
func (r *Registry) EmitCronFired(ctx context.Context, jobName string, execID id.ExecID) {
	for _, en := range r.cronFired {
		r.hookErr(en.name, "cron_fired", en.hook.OnCronFired(ctx, jobName, execID))
	}
}

// EmitShutdown notifies Shutdown hooks.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, en := range r.shutdown {
		r.hookErr(en.name, "shutdown", en.hook.OnShutdown(ctx))
	}
}
