package guard

import (
	"context"
	"time"

	"github.com/xraph/tempo/backoff"
	"github.com/xraph/tempo/job"
)

// Strategy is a named fallback behavior attempted when a work unit times
// out or fails, before surfacing a hard error. Strategies run in the
// order the caller supplies them; the first to recover wins.
type Strategy interface {
	// Name identifies the strategy in logs and TimeoutError.Tried.
	Name() string

	// Recover attempts to produce a substitute result for the failure.
	// Returning false passes the failure to the next strategy.
	Recover(ctx context.Context, f Failure) (job.Result, bool)
}

// retryWithBackoff re-attempts the original work with delays.
type retryWithBackoff struct {
	bo       backoff.Strategy
	attempts int
}

// RetryWithBackoff returns a strategy that re-runs the failed work up to
// attempts times, sleeping per the backoff strategy between attempts.
func RetryWithBackoff(bo backoff.Strategy, attempts int) Strategy {
	if bo == nil {
		bo = backoff.DefaultStrategy()
	}
	if attempts < 1 {
		attempts = 1
	}
	return &retryWithBackoff{bo: bo, attempts: attempts}
}

func (s *retryWithBackoff) Name() string { return "retry_with_backoff" }

func (s *retryWithBackoff) Recover(ctx context.Context, f Failure) (job.Result, bool) {
	for attempt := 1; attempt <= s.attempts; attempt++ {
		select {
		case <-ctx.Done():
			return job.Result{}, false
		case <-time.After(s.bo.Delay(attempt)):
		}

		res, err := s.runOnce(ctx, f)
		if err == nil {
			return res, true
		}
	}
	return job.Result{}, false
}

// runOnce re-runs the failed work under its original deadline, so a
// stuck unit cannot hold the caller past its budget.
func (s *retryWithBackoff) runOnce(ctx context.Context, f Failure) (job.Result, error) {
	if f.Limit <= 0 {
		return f.Work(ctx)
	}
	rctx, cancel := context.WithTimeout(ctx, f.Limit)
	defer cancel()
	return f.Work(rctx)
}

// fallback substitutes a different work unit.
type fallback struct {
	work Work
}

// Fallback returns a strategy that runs a substitute work unit (an
// alternative model, tool, or endpoint) in place of the failed one.
func Fallback(work Work) Strategy {
	return &fallback{work: work}
}

func (s *fallback) Name() string { return "fallback" }

func (s *fallback) Recover(ctx context.Context, f Failure) (job.Result, bool) {
	if s.work == nil || ctx.Err() != nil {
		return job.Result{}, false
	}
	res, err := s.work(ctx)
	if err != nil {
		return job.Result{}, false
	}
	return res, true
}

// cachedResponse returns the last-known-good result for the key.
type cachedResponse struct{}

// CachedResponse returns a strategy that serves the last successful
// result recorded for the operation key, if one exists.
func CachedResponse() Strategy {
	return cachedResponse{}
}

func (cachedResponse) Name() string { return "cached_response" }

func (cachedResponse) Recover(_ context.Context, f Failure) (job.Result, bool) {
	if f.Cached == nil {
		return job.Result{}, false
	}
	return *f.Cached, true
}

// degradation wraps a reduced-fidelity producer.
type degradation struct {
	name string
	fn   func(f Failure) (job.Result, bool)
}

// GracefulDegradation returns a strategy that produces a reduced-fidelity
// but valid result from the failure context.
func GracefulDegradation(fn func(f Failure) (job.Result, bool)) Strategy {
	return &degradation{name: "graceful_degradation", fn: fn}
}

// PartialResponse returns a strategy that produces whatever partial
// result the caller can assemble from the failure context.
func PartialResponse(fn func(f Failure) (job.Result, bool)) Strategy {
	return &degradation{name: "partial_response", fn: fn}
}

func (s *degradation) Name() string { return s.name }

func (s *degradation) Recover(_ context.Context, f Failure) (job.Result, bool) {
	if s.fn == nil {
		return job.Result{}, false
	}
	return s.fn(f)
}

// skipOperation converts the failure into an explicit skipped result.
type skipOperation struct{}

// SkipOperation returns a strategy that always succeeds with an explicit
// "skipped" result rather than an error, as the last resort in a chain.
func SkipOperation() Strategy {
	return skipOperation{}
}

func (skipOperation) Name() string { return "skip_operation" }

func (skipOperation) Recover(_ context.Context, _ Failure) (job.Result, bool) {
	return job.Result{Skipped: true}, true
}
