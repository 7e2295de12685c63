package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/xraph/tempo/job"
)

// Recover returns middleware that recovers from panics in the handler
// chain. Panics are converted to errors and logged with a stack trace.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, e *job.Execution, next Handler) (res job.Result, retErr error) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())
				logger.Error("job handler panicked",
					slog.String("job_name", e.JobName),
					slog.String("execution_id", e.ID.String()),
					slog.Any("panic", r),
					slog.String("stack", stack),
				)
				res = job.Result{}
				retErr = fmt.Errorf("panic in job %s: %v", e.JobName, r)
			}
		}()
		return next(ctx)
	}
}
