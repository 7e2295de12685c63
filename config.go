package tempo

import "time"

// Config holds tuning knobs shared by the scheduler and guard subsystems.
type Config struct {
	// TickInterval is how often the due-check loop evaluates schedules.
	TickInterval time.Duration

	// HistoryLimit caps the bounded execution-history ring buffer.
	// Oldest entries are evicted past the cap.
	HistoryLimit int

	// CleanupGrace is how long to wait for a cancelled work unit to
	// unwind before it is abandoned.
	CleanupGrace time.Duration

	// ShutdownTimeout is the maximum time Stop waits for active
	// executions to drain before force-cancelling them.
	ShutdownTimeout time.Duration

	// FailureThreshold is the default consecutive-failure count that
	// opens a circuit breaker.
	FailureThreshold int

	// BreakerCooldown is the default time an open circuit stays open
	// before allowing a half-open trial.
	BreakerCooldown time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		TickInterval:     1 * time.Second,
		HistoryLimit:     256,
		CleanupGrace:     5 * time.Second,
		ShutdownTimeout:  30 * time.Second,
		FailureThreshold: 5,
		BreakerCooldown:  30 * time.Second,
	}
}
