package job

import (
	"time"

	"github.com/xraph/tempo/id"
)

// Result is the opaque success payload of a work unit. The scheduler and
// guard never inspect Value; Skipped and Source exist so that skipped or
// recovered results stay distinguishable from ordinary completions.
type Result struct {
	// Value is the payload produced by the work unit.
	Value any `json:"value,omitempty"`

	// Skipped marks an explicit "skipped" result (not an error).
	Skipped bool `json:"skipped,omitempty"`

	// Source names the recovery strategy that produced this result, or
	// is empty when the work unit returned it directly.
	Source string `json:"source,omitempty"`
}

// Execution is one concrete attempt to run a Definition. A retried job
// produces one Execution per attempt; attempts of the same firing share a
// monotonically increasing RetryCount.
type Execution struct {
	ID           id.ExecID     `json:"id"`
	JobName      string        `json:"job_name"`
	Queue        string        `json:"queue"`
	Status       Status        `json:"status"`
	StartedAt    time.Time     `json:"started_at"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
	RetryCount   int           `json:"retry_count"`
	MaxRetries   int           `json:"max_retries"`
	WorkerID     id.WorkerID   `json:"worker_id,omitempty"`
	Result       *Result       `json:"result,omitempty"`
	Error        string        `json:"error,omitempty"`
	Progress     float64       `json:"progress"`
	SkipReason   string        `json:"skip_reason,omitempty"`
	AttemptLimit time.Duration `json:"attempt_limit,omitempty"`
}

// NewExecution creates a pending execution for the given definition.
func NewExecution(def *Definition, workerID id.WorkerID) *Execution {
	return &Execution{
		ID:           id.NewExecID(),
		JobName:      def.Name,
		Queue:        def.Queue,
		Status:       StatusPending,
		StartedAt:    time.Now().UTC(),
		MaxRetries:   def.Retries,
		WorkerID:     workerID,
		AttemptLimit: def.Timeout,
	}
}

// Transition moves the execution to a new status, rejecting moves outside
// the state-machine table with tempo.ErrInvalidTransition.
func (e *Execution) Transition(to Status) error {
	if err := checkTransition(e.Status, to); err != nil {
		return err
	}
	e.Status = to
	return nil
}

// Complete marks the execution terminally completed with the given result.
func (e *Execution) Complete(res Result) error {
	if err := e.Transition(StatusCompleted); err != nil {
		return err
	}
	now := time.Now().UTC()
	e.CompletedAt = &now
	e.Result = &res
	e.Error = ""
	e.Progress = 100
	return nil
}

// Fail marks the execution failed (or timed out) with the given error.
func (e *Execution) Fail(to Status, err error) error {
	if to != StatusFailed && to != StatusTimeout {
		return checkTransition(e.Status, to)
	}
	if terr := e.Transition(to); terr != nil {
		return terr
	}
	now := time.Now().UTC()
	e.CompletedAt = &now
	e.Result = nil
	e.Error = err.Error()
	return nil
}

// CancelNow force-marks the execution cancelled regardless of current
// status, for the abandonment path after the cleanup grace expires.
// Ordinary cancellation should go through Transition(StatusCancelled).
func (e *Execution) CancelNow(reason string) {
	e.Status = StatusCancelled
	now := time.Now().UTC()
	e.CompletedAt = &now
	e.Result = nil
	e.Error = reason
}

// Skip marks the execution terminally skipped with a reason.
func (e *Execution) Skip(reason string) error {
	if err := e.Transition(StatusSkipped); err != nil {
		return err
	}
	now := time.Now().UTC()
	e.CompletedAt = &now
	e.SkipReason = reason
	e.Result = &Result{Skipped: true}
	return nil
}

// Duration returns the elapsed time of the attempt, or the time since
// start if it has not completed.
func (e *Execution) Duration() time.Duration {
	if e.CompletedAt != nil {
		return e.CompletedAt.Sub(e.StartedAt)
	}
	return time.Since(e.StartedAt)
}

// RetriesLeft reports whether the execution still has retry budget.
func (e *Execution) RetriesLeft() bool {
	return e.RetryCount < e.MaxRetries
}

// Clone returns a shallow copy. Result payloads are shared; callers must
// not mutate them.
func (e *Execution) Clone() *Execution {
	cp := *e
	if e.CompletedAt != nil {
		t := *e.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}
