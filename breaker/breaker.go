// Package breaker implements per-operation-key circuit breakers. A
// breaker counts consecutive failures and fails fast once a threshold is
// exceeded, protecting a struggling dependency from further load.
package breaker

import (
	"fmt"
	"sync"
	"time"

	"github.com/xraph/tempo"
)

// State is the circuit position.
type State string

const (
	// StateClosed means calls flow through normally.
	StateClosed State = "closed"
	// StateOpen means calls fail fast until the cooldown elapses.
	StateOpen State = "open"
	// StateHalfOpen means exactly one trial call is allowed through.
	StateHalfOpen State = "half_open"
)

// Snapshot is a point-in-time view of a breaker, for stats reporting.
type Snapshot struct {
	Key              string        `json:"key"`
	State            State         `json:"state"`
	FailureCount     int           `json:"failure_count"`
	FailureThreshold int           `json:"failure_threshold"`
	OpenedAt         time.Time     `json:"opened_at,omitempty"`
	Cooldown         time.Duration `json:"cooldown"`
}

// Breaker guards a single operation key. Safe for concurrent use.
type Breaker struct {
	mu sync.Mutex

	key       string
	state     State
	failures  int
	threshold int
	cooldown  time.Duration
	openedAt  time.Time

	// trialInFlight blocks a second caller from sneaking through while
	// the half-open trial is still running.
	trialInFlight bool

	now func() time.Time
}

// New creates a closed breaker for the given key.
func New(key string, threshold int, cooldown time.Duration) *Breaker {
	if threshold < 1 {
		threshold = 1
	}
	return &Breaker{
		key:       key,
		state:     StateClosed,
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
	}
}

// Allow reports whether a call may proceed. In the open state it returns
// tempo.ErrCircuitOpen until the cooldown elapses, then admits exactly
// one half-open trial. The caller must report the outcome with
// RecordSuccess or RecordFailure.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return nil
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.cooldown {
			return fmt.Errorf("%w: operation %q cooling down", tempo.ErrCircuitOpen, b.key)
		}
		b.state = StateHalfOpen
		b.trialInFlight = true
		return nil
	case StateHalfOpen:
		if b.trialInFlight {
			return fmt.Errorf("%w: operation %q trial in flight", tempo.ErrCircuitOpen, b.key)
		}
		b.trialInFlight = true
		return nil
	default:
		return nil
	}
}

// RecordSuccess resets the failure count and forces the circuit closed.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = StateClosed
	b.failures = 0
	b.trialInFlight = false
	b.openedAt = time.Time{}
}

// ReleaseTrial abandons a half-open trial whose outcome was never
// observed, such as when the caller was cancelled mid-trial. The
// circuit re-opens with a fresh cooldown so a later trial can run
// instead of the slot staying claimed forever. A no-op in other states.
func (b *Breaker) ReleaseTrial() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateHalfOpen || !b.trialInFlight {
		return
	}
	b.trialInFlight = false
	b.state = StateOpen
	b.openedAt = b.now()
}

// RecordFailure counts a failure. A failed half-open trial re-opens the
// circuit and restarts the cooldown; in the closed state the circuit
// opens once the threshold is reached.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.trialInFlight = false

	switch b.state {
	case StateHalfOpen:
		b.state = StateOpen
		b.openedAt = b.now()
	case StateClosed:
		if b.failures >= b.threshold {
			b.state = StateOpen
			b.openedAt = b.now()
		}
	case StateOpen:
		// Already open; nothing further to trip.
	}
}

// Snapshot returns a point-in-time view of the breaker.
func (b *Breaker) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	return Snapshot{
		Key:              b.key,
		State:            b.state,
		FailureCount:     b.failures,
		FailureThreshold: b.threshold,
		OpenedAt:         b.openedAt,
		Cooldown:         b.cooldown,
	}
}

// Set manages one breaker per operation key. Each key gets its own lock
// so unrelated operations never contend.
type Set struct {
	mu        sync.RWMutex
	breakers  map[string]*Breaker
	threshold int
	cooldown  time.Duration
}

// NewSet creates a Set with default threshold and cooldown applied to
// breakers it creates lazily.
func NewSet(threshold int, cooldown time.Duration) *Set {
	return &Set{
		breakers:  make(map[string]*Breaker),
		threshold: threshold,
		cooldown:  cooldown,
	}
}

// Get returns the breaker for a key, creating it on first use.
func (s *Set) Get(key string) *Breaker {
	s.mu.RLock()
	b, ok := s.breakers[key]
	s.mu.RUnlock()
	if ok {
		return b
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.breakers[key]; ok {
		return b
	}
	b = New(key, s.threshold, s.cooldown)
	s.breakers[key] = b
	return b
}

// Snapshots returns point-in-time views of all breakers, keyed by
// operation key.
func (s *Set) Snapshots() map[string]Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]Snapshot, len(s.breakers))
	for key, b := range s.breakers {
		out[key] = b.Snapshot()
	}
	return out
}
