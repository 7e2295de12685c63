package tempo

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// Registration errors.
	ErrInvalidDefinition = errors.New("tempo: invalid job definition")
	ErrJobNotFound       = errors.New("tempo: job not found")

	// Execution errors. A handler may return ErrSkipped to report that
	// it found nothing to do; the attempt then completes with a skipped
	// result instead of counting as a failure.
	ErrExecutionNotFound = errors.New("tempo: execution not found")
	ErrCircuitOpen       = errors.New("tempo: circuit open")
	ErrSkipped           = errors.New("tempo: execution skipped")

	// State errors.
	ErrInvalidTransition = errors.New("tempo: invalid state transition")

	// Lifecycle errors.
	ErrSchedulerStopped = errors.New("tempo: scheduler stopped")
	ErrNoStore          = errors.New("tempo: no store configured")
	ErrStoreClosed      = errors.New("tempo: store closed")
)

// TimeoutError is returned when a work unit exceeds its deadline and no
// recovery strategy produced a result. It carries enough context for the
// caller to decide what to do next.
type TimeoutError struct {
	// Key is the operation key the work ran under.
	Key string
	// Limit is the configured deadline.
	Limit time.Duration
	// Elapsed is how long the work actually ran before being abandoned.
	Elapsed time.Duration
	// Tried lists the names of recovery strategies attempted, in order.
	Tried []string
}

func (e *TimeoutError) Error() string {
	if len(e.Tried) == 0 {
		return fmt.Sprintf("tempo: operation %q timed out after %v (limit %v)", e.Key, e.Elapsed, e.Limit)
	}
	return fmt.Sprintf("tempo: operation %q timed out after %v (limit %v); recovery tried: %s",
		e.Key, e.Elapsed, e.Limit, strings.Join(e.Tried, ", "))
}

// Is reports whether target matches a deadline-style error.
func (e *TimeoutError) Is(target error) bool {
	_, ok := target.(*TimeoutError)
	return ok
}

// WorkError wraps an error surfaced by a job body, annotated with the
// job and execution identifiers.
type WorkError struct {
	JobName string
	ExecID  string
	Err     error
}

func (e *WorkError) Error() string {
	return fmt.Sprintf("tempo: job %q execution %s: %v", e.JobName, e.ExecID, e.Err)
}

func (e *WorkError) Unwrap() error { return e.Err }
