package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/tempo/job"
)

// Logging returns middleware that logs attempt start and completion.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, e *job.Execution, next Handler) (job.Result, error) {
		logger.Info("execution started",
			slog.String("job_name", e.JobName),
			slog.String("execution_id", e.ID.String()),
			slog.String("queue", e.Queue),
			slog.Int("retry_count", e.RetryCount),
		)

		start := time.Now()
		res, err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			logger.Error("execution failed",
				slog.String("job_name", e.JobName),
				slog.String("execution_id", e.ID.String()),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("execution completed",
				slog.String("job_name", e.JobName),
				slog.String("execution_id", e.ID.String()),
				slog.Duration("elapsed", elapsed),
			)
		}

		return res, err
	}
}
