package job

import (
	"fmt"

	"github.com/xraph/tempo"
)

// Status represents the lifecycle state of a job execution.
type Status string

const (
	// StatusPending means the execution has been created but not started.
	StatusPending Status = "pending"
	// StatusRunning means the execution is in progress.
	StatusRunning Status = "running"
	// StatusRetrying means the execution failed but a retry is scheduled.
	StatusRetrying Status = "retrying"
	// StatusCompleted means the execution finished successfully.
	StatusCompleted Status = "completed"
	// StatusFailed means the execution failed with no retry scheduled.
	StatusFailed Status = "failed"
	// StatusCancelled means the execution was explicitly cancelled.
	StatusCancelled Status = "cancelled"
	// StatusTimeout means the execution exceeded its deadline.
	StatusTimeout Status = "timeout"
	// StatusSkipped means the execution was not attempted (concurrency
	// ceiling reached, lane saturated, or an explicit skip strategy).
	StatusSkipped Status = "skipped"
)

// transitions is the full set of legal status transitions.
// failed -> retrying and timeout -> retrying are additionally gated on
// remaining retry budget, which callers check before transitioning.
var transitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusRunning:   true,
		StatusCancelled: true,
		StatusSkipped:   true,
	},
	StatusRunning: {
		StatusCompleted: true,
		StatusFailed:    true,
		StatusCancelled: true,
		StatusTimeout:   true,
	},
	StatusRetrying: {
		StatusRunning:   true,
		StatusFailed:    true,
		StatusCancelled: true,
	},
	StatusFailed: {
		StatusRetrying: true,
	},
	StatusTimeout: {
		StatusRetrying: true,
	},
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to Status) bool {
	return transitions[from][to]
}

// Terminal reports whether the status admits no further transitions when
// no retry budget remains. StatusFailed and StatusTimeout are terminal
// unless the execution still has retries left.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusSkipped, StatusFailed, StatusTimeout:
		return true
	default:
		return false
	}
}

// Valid reports whether s is one of the defined statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusRunning, StatusRetrying, StatusCompleted,
		StatusFailed, StatusCancelled, StatusTimeout, StatusSkipped:
		return true
	default:
		return false
	}
}

// checkTransition returns a wrapped tempo.ErrInvalidTransition if the
// move is illegal. Transition violations are programming errors, not
// recoverable conditions.
func checkTransition(from, to Status) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", tempo.ErrInvalidTransition, from, to)
	}
	return nil
}
