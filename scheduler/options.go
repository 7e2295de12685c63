package scheduler

import (
	"log/slog"

	"github.com/xraph/tempo"
	"github.com/xraph/tempo/backoff"
	"github.com/xraph/tempo/hook"
	"github.com/xraph/tempo/lane"
	"github.com/xraph/tempo/middleware"
)

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithConfig replaces the default tuning configuration.
func WithConfig(cfg tempo.Config) Option {
	return func(s *Scheduler) { s.cfg = cfg }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// WithHooks registers lifecycle hooks. Hooks are matched against the
// opt-in event interfaces in package hook; a hook only receives the
// events it implements.
func WithHooks(hooks ...hook.Hook) Option {
	return func(s *Scheduler) { s.pendingHooks = append(s.pendingHooks, hooks...) }
}

// WithLanes configures execution lanes (per-queue concurrency caps and
// rate limits). Jobs in unconfigured lanes run unrestricted.
func WithLanes(configs ...lane.Config) Option {
	return func(s *Scheduler) { s.laneConfigs = append(s.laneConfigs, configs...) }
}

// WithBackoff replaces the default retry delay strategy
// (exponential with equal jitter).
func WithBackoff(strategy backoff.Strategy) Option {
	return func(s *Scheduler) { s.retry = strategy }
}

// WithMiddleware appends middleware to the execution chain. The
// panic-recovery middleware is always installed first.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(s *Scheduler) { s.extraMW = append(s.extraMW, mws...) }
}
