// Package middleware provides composable middleware around work
// execution. Middleware wraps the work call synchronously and can modify
// execution (recover from panics, log, record metrics, etc.).
package middleware

import (
	"context"

	"github.com/xraph/tempo/job"
)

// Handler is the terminal function that executes the work.
type Handler func(ctx context.Context) (job.Result, error)

// Middleware wraps a Handler with cross-cutting logic. It receives the
// current context, the execution being attempted, and the next handler
// to call. Middleware MUST call next to continue the chain (unless
// short-circuiting on error).
type Middleware func(ctx context.Context, e *job.Execution, next Handler) (job.Result, error)

// Chain composes multiple middleware into a single Middleware.
// Middleware are applied right-to-left: the first middleware in the
// list is the outermost wrapper.
//
// Example: Chain(logging, recover, metrics) executes as:
//
//	logging → recover → metrics → handler
func Chain(mws ...Middleware) Middleware {
	return func(ctx context.Context, e *job.Execution, next Handler) (job.Result, error) {
		// Build the chain from the end backwards.
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			mw := mws[i]
			prev := h
			h = func(ctx context.Context) (job.Result, error) {
				return mw(ctx, e, prev)
			}
		}
		return h(ctx)
	}
}
