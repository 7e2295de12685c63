package remote

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/xraph/tempo/id"
	"github.com/xraph/tempo/job"
)

var _ Executor = (*Local)(nil)

// localTask tracks one in-flight or finished task.
type localTask struct {
	status TaskStatus
	cancel context.CancelFunc
}

// Local is an in-process Executor that runs each submitted task in its
// own goroutine. It exists for tests and as a reference implementation
// of the Executor contract.
type Local struct {
	mu       sync.Mutex
	handlers map[string]job.HandlerFunc
	tasks    map[string]*localTask
	codec    Codec
}

// NewLocal returns an empty Local executor using the msgpack codec for
// result payloads.
func NewLocal() *Local {
	return &Local{
		handlers: make(map[string]job.HandlerFunc),
		tasks:    make(map[string]*localTask),
		codec:    &MsgpackCodec{},
	}
}

// Handle registers the handler to run for tasks submitted under jobName.
func (l *Local) Handle(jobName string, fn job.HandlerFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers[jobName] = fn
}

// Submit starts the registered handler in a new goroutine.
func (l *Local) Submit(ctx context.Context, jobName string, payload []byte) (id.TaskID, error) {
	l.mu.Lock()
	fn, ok := l.handlers[jobName]
	if !ok {
		l.mu.Unlock()
		return id.Nil, fmt.Errorf("remote: no handler for %q", jobName)
	}

	taskID := id.NewTaskID()
	// The task outlives the submit call; detach from the caller's ctx.
	tctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	t := &localTask{
		status: TaskStatus{
			ID:      taskID,
			JobName: jobName,
			State:   StateRunning,
			Started: time.Now().UTC(),
		},
		cancel: cancel,
	}
	l.tasks[taskID.String()] = t
	l.mu.Unlock()

	go l.run(tctx, t, fn, payload)
	return taskID, nil
}

func (l *Local) run(ctx context.Context, t *localTask, fn job.HandlerFunc, payload []byte) {
	res, err := fn(ctx, payload)

	l.mu.Lock()
	defer l.mu.Unlock()
	t.status.Finished = time.Now().UTC()
	switch {
	case ctx.Err() != nil:
		t.status.State = StateCancelled
		t.status.Error = ctx.Err().Error()
	case err != nil:
		t.status.State = StateFailed
		t.status.Error = err.Error()
	default:
		b, encErr := l.codec.Encode(res.Value)
		if encErr != nil {
			t.status.State = StateFailed
			t.status.Error = fmt.Sprintf("encode result: %v", encErr)
			return
		}
		t.status.State = StateSucceeded
		t.status.Payload = b
	}
}

// Poll returns a snapshot of the task status.
func (l *Local) Poll(_ context.Context, taskID id.TaskID) (*TaskStatus, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.tasks[taskID.String()]
	if !ok {
		return nil, fmt.Errorf("remote: unknown task %s", taskID)
	}
	cp := t.status
	return &cp, nil
}

// Cancel cancels a running task.
func (l *Local) Cancel(_ context.Context, taskID id.TaskID) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.tasks[taskID.String()]
	if !ok {
		return false, fmt.Errorf("remote: unknown task %s", taskID)
	}
	if t.status.State.Terminal() {
		return false, nil
	}
	t.cancel()
	return true, nil
}
