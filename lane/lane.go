package lane

import (
	"sync"

	"golang.org/x/time/rate"
)

// Config defines per-lane behaviour such as rate limiting and concurrency.
type Config struct {
	// Name is the lane identifier (must match the job definition's Queue
	// field).
	Name string

	// MaxConcurrency limits how many executions from this lane may run
	// simultaneously. Zero means no lane-specific limit (per-job
	// maxInstances ceilings still apply).
	MaxConcurrency int

	// RateLimit is the maximum sustained executions per second that may
	// be started from this lane. Zero disables rate limiting.
	RateLimit float64

	// RateBurst is the burst size for the token-bucket rate limiter.
	// Defaults to 1 if RateLimit is set but RateBurst is zero.
	RateBurst int
}

// laneState tracks runtime state for a single lane.
type laneState struct {
	config  Config
	limiter *rate.Limiter
	active  int
}

// Manager controls per-lane rate limiting and concurrency.
// It is safe for concurrent use.
type Manager struct {
	mu    sync.Mutex
	lanes map[string]*laneState
}

// NewManager creates a Manager with the given lane configurations.
// Lanes not listed here have no limits.
func NewManager(configs ...Config) *Manager {
	m := &Manager{
		lanes: make(map[string]*laneState, len(configs)),
	}
	for _, cfg := range configs {
		m.lanes[cfg.Name] = newLaneState(cfg)
	}
	return m
}

func newLaneState(cfg Config) *laneState {
	ls := &laneState{config: cfg}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		ls.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return ls
}

// Acquire checks rate limits and concurrency for the given lane. If the
// execution is allowed to proceed it increments the active counter and
// returns true. The caller MUST call Release when the execution
// completes.
func (m *Manager) Acquire(lane string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	ls := m.lanes[lane]
	if ls == nil {
		return true
	}
	if ls.limiter != nil && !ls.limiter.Allow() {
		return false
	}
	if ls.config.MaxConcurrency > 0 && ls.active >= ls.config.MaxConcurrency {
		return false
	}
	ls.active++
	return true
}

// Release decrements the active execution count for the lane.
func (m *Manager) Release(lane string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ls := m.lanes[lane]; ls != nil && ls.active > 0 {
		ls.active--
	}
}

// SetConfig dynamically updates (or creates) a lane configuration.
func (m *Manager) SetConfig(cfg Config) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing := m.lanes[cfg.Name]
	ls := newLaneState(cfg)

	// Preserve current active count if reconfiguring.
	if existing != nil {
		ls.active = existing.active
	}
	m.lanes[cfg.Name] = ls
}

// ActiveCount returns the current number of active executions for a lane.
func (m *Manager) ActiveCount(lane string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ls := m.lanes[lane]; ls != nil {
		return ls.active
	}
	return 0
}
