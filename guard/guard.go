// Package guard wraps the execution of arbitrary cancelable work units
// with a hard deadline, circuit-breaker accounting, and an ordered chain
// of recovery strategies. It owns no knowledge of what the work does,
// so the scheduler uses it uniformly for job bodies, remote polling, or
// any downstream call.
package guard

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/tempo"
	"github.com/xraph/tempo/breaker"
	"github.com/xraph/tempo/job"
)

// Work is an arbitrary cancelable unit of work. It must honor ctx
// cancellation; work that does not is abandoned after the cleanup grace.
type Work func(ctx context.Context) (job.Result, error)

// Failure describes a failed execution for recovery strategies.
type Failure struct {
	// Key is the operation key the work ran under.
	Key string
	// Err is the failure cause (context.DeadlineExceeded on timeout).
	Err error
	// Elapsed is how long the work ran before failing.
	Elapsed time.Duration
	// Timeout marks a deadline failure as opposed to a work error.
	Timeout bool
	// Limit is the deadline the work ran under. Strategies that re-run
	// work apply it again so a stuck unit cannot outlive its budget.
	Limit time.Duration
	// Work is the original work unit, so strategies can re-attempt it.
	Work Work
	// Cached is the last-known-good result for the key, if any.
	Cached *job.Result
}

// Runner executes work units under deadlines and per-key circuit
// breakers, keeping a last-known-good result per key for the
// cached-response strategy.
type Runner struct {
	breakers     *breaker.Set
	logger       *slog.Logger
	cleanupGrace time.Duration

	cacheMu sync.RWMutex
	cache   map[string]job.Result
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithCleanupGrace sets how long to wait for cancelled work to unwind.
func WithCleanupGrace(d time.Duration) Option {
	return func(r *Runner) { r.cleanupGrace = d }
}

// WithBreakers sets the circuit-breaker set. Sharing one set between
// runners shares failure accounting per operation key.
func WithBreakers(s *breaker.Set) Option {
	return func(r *Runner) { r.breakers = s }
}

// NewRunner creates a Runner. Defaults come from tempo.DefaultConfig.
func NewRunner(opts ...Option) *Runner {
	cfg := tempo.DefaultConfig()
	r := &Runner{
		breakers:     breaker.NewSet(cfg.FailureThreshold, cfg.BreakerCooldown),
		logger:       slog.Default(),
		cleanupGrace: cfg.CleanupGrace,
		cache:        make(map[string]job.Result),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type outcome struct {
	res job.Result
	err error
}

// Execute runs work under the given deadline and the circuit breaker for
// key. Outcomes:
//
//   - breaker open within cooldown: tempo.ErrCircuitOpen, work not invoked.
//   - success: breaker reset, result cached, returned as-is.
//   - deadline exceeded: work is cancelled and given the cleanup grace to
//     unwind, a breaker failure is recorded, then strategies run in order;
//     if none recovers, a *tempo.TimeoutError is returned.
//   - other work error: breaker failure recorded, strategies run in
//     order; if none recovers the work error is returned unchanged.
//   - parent ctx cancelled: no breaker accounting, ctx.Err() returned.
func (r *Runner) Execute(ctx context.Context, key string, timeout time.Duration, work Work, strategies ...Strategy) (job.Result, error) {
	br := r.breakers.Get(key)
	if err := br.Allow(); err != nil {
		return job.Result{}, err
	}

	start := time.Now()
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		res, err := work(wctx)
		done <- outcome{res: res, err: err}
	}()

	select {
	case o := <-done:
		return r.settle(ctx, br, key, timeout, start, work, o, strategies)

	case <-wctx.Done():
		if ctx.Err() != nil {
			// Parent cancellation, not a deadline: propagate without
			// breaker accounting, but still wait for the work to unwind.
			// A half-open trial slot is released so the breaker does not
			// stay claimed by an outcome nobody will report.
			br.ReleaseTrial()
			r.awaitCleanup(key, done)
			return job.Result{}, ctx.Err()
		}

		cancel()
		r.awaitCleanup(key, done)
		elapsed := time.Since(start)
		br.RecordFailure()

		f := Failure{
			Key:     key,
			Err:     context.DeadlineExceeded,
			Elapsed: elapsed,
			Timeout: true,
			Limit:   timeout,
			Work:    work,
			Cached:  r.cached(key),
		}
		res, tried, ok := r.tryStrategies(ctx, f, strategies)
		if ok {
			return res, nil
		}
		return job.Result{}, &tempo.TimeoutError{
			Key:     key,
			Limit:   timeout,
			Elapsed: elapsed,
			Tried:   tried,
		}
	}
}

// settle handles a work unit that returned before the deadline fired.
func (r *Runner) settle(ctx context.Context, br *breaker.Breaker, key string, timeout time.Duration, start time.Time, work Work, o outcome, strategies []Strategy) (job.Result, error) {
	elapsed := time.Since(start)

	if o.err == nil {
		br.RecordSuccess()
		r.store(key, o.res)
		return o.res, nil
	}

	if ctx.Err() != nil && errors.Is(o.err, context.Canceled) {
		// Cooperative cancellation surfaced by the work itself. No
		// breaker accounting, but a claimed trial slot is released.
		br.ReleaseTrial()
		return job.Result{}, ctx.Err()
	}

	br.RecordFailure()

	isTimeout := errors.Is(o.err, context.DeadlineExceeded)
	f := Failure{
		Key:     key,
		Err:     o.err,
		Elapsed: elapsed,
		Timeout: isTimeout,
		Limit:   timeout,
		Work:    work,
		Cached:  r.cached(key),
	}
	res, tried, ok := r.tryStrategies(ctx, f, strategies)
	if ok {
		return res, nil
	}
	if isTimeout {
		return job.Result{}, &tempo.TimeoutError{
			Key:     key,
			Limit:   timeout,
			Elapsed: elapsed,
			Tried:   tried,
		}
	}
	return job.Result{}, o.err
}

// tryStrategies walks the chain in order until one recovers. It returns
// the names tried so TimeoutError can report them.
func (r *Runner) tryStrategies(ctx context.Context, f Failure, strategies []Strategy) (job.Result, []string, bool) {
	tried := make([]string, 0, len(strategies))
	for _, s := range strategies {
		tried = append(tried, s.Name())
		res, ok := s.Recover(ctx, f)
		if !ok {
			continue
		}
		if res.Source == "" {
			res.Source = s.Name()
		}
		r.logger.Info("recovery strategy succeeded",
			slog.String("operation", f.Key),
			slog.String("strategy", s.Name()),
		)
		return res, tried, true
	}
	return job.Result{}, tried, false
}

// awaitCleanup waits up to the cleanup grace for cancelled work to
// unwind. Work that does not honor cancellation is abandoned; the
// goroutine leak is logged, not silently ignored.
func (r *Runner) awaitCleanup(key string, done <-chan outcome) {
	select {
	case <-done:
	case <-time.After(r.cleanupGrace):
		r.logger.Warn("work did not honor cancellation within grace; abandoning",
			slog.String("operation", key),
			slog.Duration("grace", r.cleanupGrace),
		)
	}
}

// Stats returns the per-operation-key circuit-breaker snapshots.
func (r *Runner) Stats() map[string]breaker.Snapshot {
	return r.breakers.Snapshots()
}

func (r *Runner) store(key string, res job.Result) {
	r.cacheMu.Lock()
	r.cache[key] = res
	r.cacheMu.Unlock()
}

func (r *Runner) cached(key string) *job.Result {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	if res, ok := r.cache[key]; ok {
		cp := res
		return &cp
	}
	return nil
}
