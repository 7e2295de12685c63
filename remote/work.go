package remote

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/tempo/guard"
	"github.com/xraph/tempo/job"
)

// cancelTimeout bounds the best-effort Cancel issued after the work
// context is already done.
const cancelTimeout = 5 * time.Second

// Work adapts a remote round-trip into a work unit: submit the task,
// poll until it reaches a terminal state, and map that state to a
// result or error. When ctx is cancelled mid-flight the remote task is
// cancelled best-effort before returning ctx.Err(), so guard timeouts
// and scheduler cancellation propagate across the boundary.
//
// The returned payload is the raw remote bytes; decode with a [Codec].
func Work(exec Executor, jobName string, payload []byte, pollInterval time.Duration) guard.Work {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return func(ctx context.Context) (job.Result, error) {
		taskID, err := exec.Submit(ctx, jobName, payload)
		if err != nil {
			return job.Result{}, fmt.Errorf("remote: submit %s: %w", jobName, err)
		}

		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				// ctx is already done; use a fresh context so the
				// cancel request can still reach the remote side.
				cctx, cancel := context.WithTimeout(context.Background(), cancelTimeout)
				_, _ = exec.Cancel(cctx, taskID)
				cancel()
				return job.Result{}, ctx.Err()

			case <-ticker.C:
				status, err := exec.Poll(ctx, taskID)
				if err != nil {
					return job.Result{}, fmt.Errorf("remote: poll %s: %w", taskID, err)
				}
				if !status.State.Terminal() {
					continue
				}
				switch status.State {
				case StateSucceeded:
					return job.Result{Value: status.Payload}, nil
				case StateCancelled:
					return job.Result{}, fmt.Errorf("remote: task %s cancelled", taskID)
				default:
					return job.Result{}, fmt.Errorf("remote: task %s failed: %s", taskID, status.Error)
				}
			}
		}
	}
}
