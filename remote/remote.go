// Package remote adapts work that runs outside the scheduler process
// (a worker fleet, a vendor API, a batch system) into the same work-unit
// shape as in-process handlers. The scheduler guards remote work exactly
// like local work: timeouts, circuit breakers, and recovery strategies
// all apply to the submit/poll round-trip as a whole.
package remote

import (
	"context"
	"time"

	"github.com/xraph/tempo/id"
)

// State is the lifecycle state of a remote task.
type State string

const (
	StatePending   State = "PENDING"
	StateRunning   State = "RUNNING"
	StateSucceeded State = "SUCCEEDED"
	StateFailed    State = "FAILED"
	StateCancelled State = "CANCELLED"
)

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	switch s {
	case StateSucceeded, StateFailed, StateCancelled:
		return true
	}
	return false
}

// TaskStatus is a point-in-time snapshot of a remote task.
type TaskStatus struct {
	ID       id.TaskID `json:"id"`
	JobName  string    `json:"job_name"`
	State    State     `json:"state"`
	Payload  []byte    `json:"payload,omitempty"`
	Error    string    `json:"error,omitempty"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished,omitzero"`
}

// Executor is the boundary to a remote execution system. Implementations
// must be safe for concurrent use.
type Executor interface {
	// Submit starts a remote task and returns its handle.
	Submit(ctx context.Context, jobName string, payload []byte) (id.TaskID, error)

	// Poll returns the current status of a task. Polling an unknown
	// task is an error.
	Poll(ctx context.Context, taskID id.TaskID) (*TaskStatus, error)

	// Cancel requests cancellation of a task. It returns true if the
	// task was still running and the request was delivered.
	Cancel(ctx context.Context, taskID id.TaskID) (bool, error)
}
