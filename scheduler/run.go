package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/tempo"
	"github.com/xraph/tempo/guard"
	"github.com/xraph/tempo/id"
	"github.com/xraph/tempo/job"
)

// startChain begins a retry chain for one firing of a job. The chain
// holds a single MaxInstances slot and a single lane slot from first
// attempt to final settlement, so retries never stack against fresh
// firings. At the instance ceiling, or when the lane denies admission,
// the firing is recorded as a skipped execution and returned without an
// error.
func (s *Scheduler) startChain(ctx context.Context, name string, payload []byte, onCreate func(execID string)) (*job.Execution, error) {
	s.mu.Lock()
	ent, ok := s.jobs[name]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", tempo.ErrJobNotFound, name)
	}
	def := ent.def

	exec := job.NewExecution(def, s.workerID)
	if onCreate != nil {
		onCreate(exec.ID.String())
	}

	if s.runCount[name] >= def.MaxInstances {
		s.mu.Unlock()
		_ = exec.Skip(fmt.Sprintf("max instances reached (%d)", def.MaxInstances))
		s.record(exec)
		s.hooks.EmitJobSkipped(ctx, exec, exec.SkipReason)
		return exec.Clone(), nil
	}

	if !s.lanes.Acquire(def.Queue) {
		s.mu.Unlock()
		_ = exec.Skip("lane saturated")
		s.record(exec)
		s.hooks.EmitJobSkipped(ctx, exec, exec.SkipReason)
		return exec.Clone(), nil
	}

	s.runCount[name]++
	s.mu.Unlock()

	h, ok := s.handlers.Get(name)
	if !ok {
		// Registration always installs a handler; reaching this means
		// Unregister raced the firing. Give the slots back.
		s.mu.Lock()
		s.runCount[name]--
		s.mu.Unlock()
		s.lanes.Release(def.Queue)
		return nil, fmt.Errorf("%w: %q", tempo.ErrJobNotFound, name)
	}

	snapshot := exec.Clone()
	s.drain.Go(func() error {
		s.runChain(ent, h, payload, exec)
		return nil
	})
	return snapshot, nil
}

// runChain executes attempts until one settles terminally: completion,
// cancellation, or failure/timeout with no retry budget left. Each
// attempt is its own execution record; non-final failures are recorded
// as retrying.
func (s *Scheduler) runChain(ent *entry, h job.HandlerFunc, payload []byte, exec *job.Execution) {
	def := ent.def
	defer func() {
		s.mu.Lock()
		s.runCount[def.Name]--
		s.mu.Unlock()
		s.lanes.Release(def.Queue)
	}()

	for {
		ae, res, err := s.runAttempt(ent, h, payload, exec)

		switch {
		case err == nil:
			if ae.settle() {
				_ = exec.Complete(res)
				s.record(exec)
				s.hooks.EmitJobCompleted(context.Background(), exec, exec.Duration())
			}
			return

		case errors.Is(err, context.Canceled):
			if ae.settle() {
				exec.CancelNow("cancelled")
				s.record(exec)
				s.hooks.EmitJobCancelled(context.Background(), exec)
			}
			return

		default:
			if !ae.settle() {
				// The cancel path already force-marked this attempt.
				return
			}

			to := job.StatusFailed
			var te *tempo.TimeoutError
			if errors.As(err, &te) {
				to = job.StatusTimeout
			} else {
				err = &tempo.WorkError{JobName: def.Name, ExecID: exec.ID.String(), Err: err}
			}
			_ = exec.Fail(to, err)

			if !exec.RetriesLeft() || s.stopping() {
				s.record(exec)
				s.hooks.EmitJobFailed(context.Background(), exec, err)
				return
			}

			// Non-final attempt: record it as retrying and back off
			// before the next one.
			_ = exec.Transition(job.StatusRetrying)
			s.record(exec)

			attempt := exec.RetryCount + 1
			delay := s.retry.Delay(attempt)
			s.hooks.EmitJobRetrying(context.Background(), exec, attempt, time.Now().Add(delay))
			s.logger.Info("execution retrying",
				slog.String("job_name", def.Name),
				slog.String("execution_id", exec.ID.String()),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay),
			)

			select {
			case <-time.After(delay):
			case <-s.stopCh:
				s.logger.Warn("retry dropped on shutdown",
					slog.String("job_name", def.Name),
					slog.String("execution_id", exec.ID.String()),
				)
				return
			}

			exec = nextAttempt(def, exec, s.workerID)
		}
	}
}

// nextAttempt creates the execution record for a retry. It starts in
// the retrying state so the attempt enters running through the
// retrying->running edge.
func nextAttempt(def *job.Definition, prev *job.Execution, workerID id.WorkerID) *job.Execution {
	e := job.NewExecution(def, workerID)
	e.Status = job.StatusRetrying
	e.RetryCount = prev.RetryCount + 1
	return e
}

// runAttempt runs a single guarded attempt and returns its tracking
// handle alongside the guard outcome.
func (s *Scheduler) runAttempt(ent *entry, h job.HandlerFunc, payload []byte, exec *job.Execution) (*activeExec, job.Result, error) {
	def := ent.def

	runCtx, cancel := context.WithCancel(context.Background())
	ae := &activeExec{exec: exec, cancel: cancel, done: make(chan struct{})}

	s.mu.Lock()
	s.active[exec.ID.String()] = ae
	s.mu.Unlock()

	_ = exec.Transition(job.StatusRunning)
	s.hooks.EmitJobStarted(runCtx, exec)

	work := guard.Work(func(ctx context.Context) (job.Result, error) {
		res, err := s.chain(ctx, exec, func(ctx context.Context) (job.Result, error) {
			return h(ctx, payload)
		})
		if errors.Is(err, tempo.ErrSkipped) {
			// The handler looked and found nothing to do. That is a
			// successful run with a skipped result, not a failure.
			return job.Result{Skipped: true}, nil
		}
		return res, err
	})

	res, err := s.runner.Execute(runCtx, def.Name, def.Timeout, work, ent.strategies...)

	close(ae.done)
	cancel()

	s.mu.Lock()
	delete(s.active, exec.ID.String())
	s.mu.Unlock()

	return ae, res, err
}

// stopping reports whether shutdown has been signalled.
func (s *Scheduler) stopping() bool {
	select {
	case <-s.stopCh:
		return true
	default:
		return false
	}
}
