package job

import (
	"fmt"
	"slices"
	"time"

	"github.com/xraph/tempo"
)

// Definition is a named, schedulable unit of work. The Name is the unique
// key; re-registering the same name replaces the definition.
type Definition struct {
	// Name is the unique identifier for this job.
	Name string `json:"name"`

	// Schedule is a cron expression. Empty means manual-only: the job
	// never fires from the due-check loop and runs only via RunNow.
	Schedule string `json:"schedule,omitempty"`

	// Queue is the logical lane this job runs in, used for concurrency
	// and metrics grouping only.
	Queue string `json:"queue"`

	// Retries is the maximum number of retry attempts after a failed or
	// timed-out execution.
	Retries int `json:"retries"`

	// Timeout is the hard deadline for a single execution attempt.
	Timeout time.Duration `json:"timeout"`

	// MaxInstances is how many executions of this job may run
	// concurrently.
	MaxInstances int `json:"max_instances"`

	// Coalesce collapses multiple missed scheduled firings into a single
	// catch-up run.
	Coalesce bool `json:"coalesce"`

	// MisfireGrace is how late a scheduled firing may be and still run.
	MisfireGrace time.Duration `json:"misfire_grace"`

	// Enabled controls whether the due-check loop considers this job.
	Enabled bool `json:"enabled"`

	// Priority orders jobs that become due on the same tick. Higher
	// values fire first.
	Priority int `json:"priority"`

	// Description is free-form documentation.
	Description string `json:"description,omitempty"`

	// Tags are free-form labels.
	Tags []string `json:"tags,omitempty"`
}

// Option is a functional option for configuring a job definition.
type Option func(*Definition)

// WithSchedule sets the cron expression.
func WithSchedule(expr string) Option {
	return func(d *Definition) { d.Schedule = expr }
}

// WithQueue sets the lane name for the job.
func WithQueue(q string) Option {
	return func(d *Definition) { d.Queue = q }
}

// WithRetries sets the maximum number of retry attempts.
func WithRetries(n int) Option {
	return func(d *Definition) { d.Retries = n }
}

// WithTimeout sets the per-attempt execution deadline.
func WithTimeout(t time.Duration) Option {
	return func(d *Definition) { d.Timeout = t }
}

// WithMaxInstances sets the concurrent-execution ceiling.
func WithMaxInstances(n int) Option {
	return func(d *Definition) { d.MaxInstances = n }
}

// WithCoalesce enables missed-firing coalescing.
func WithCoalesce(c bool) Option {
	return func(d *Definition) { d.Coalesce = c }
}

// WithMisfireGrace sets the late-firing grace window.
func WithMisfireGrace(g time.Duration) Option {
	return func(d *Definition) { d.MisfireGrace = g }
}

// WithEnabled sets the initial enabled flag.
func WithEnabled(e bool) Option {
	return func(d *Definition) { d.Enabled = e }
}

// WithPriority sets the same-tick firing priority.
func WithPriority(p int) Option {
	return func(d *Definition) { d.Priority = p }
}

// WithDescription sets the free-form description.
func WithDescription(desc string) Option {
	return func(d *Definition) { d.Description = desc }
}

// WithTags sets the free-form labels.
func WithTags(tags ...string) Option {
	return func(d *Definition) { d.Tags = tags }
}

// NewDefinition creates a definition with defaults: queue "default",
// 3 retries, 5 minute timeout, 1 instance, 1 minute misfire grace,
// enabled, coalescing on.
func NewDefinition(name string, opts ...Option) *Definition {
	d := &Definition{
		Name:         name,
		Queue:        "default",
		Retries:      3,
		Timeout:      5 * time.Minute,
		MaxInstances: 1,
		Coalesce:     true,
		MisfireGrace: time.Minute,
		Enabled:      true,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Validate checks the definition invariants. Cron expression validity is
// checked separately at registration, by the scheduler's parser.
func (d *Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: empty name", tempo.ErrInvalidDefinition)
	}
	if d.Timeout <= 0 {
		return fmt.Errorf("%w: job %q: timeout must be > 0, got %v", tempo.ErrInvalidDefinition, d.Name, d.Timeout)
	}
	if d.MaxInstances < 1 {
		return fmt.Errorf("%w: job %q: max instances must be >= 1, got %d", tempo.ErrInvalidDefinition, d.Name, d.MaxInstances)
	}
	if d.Retries < 0 {
		return fmt.Errorf("%w: job %q: retries must be >= 0, got %d", tempo.ErrInvalidDefinition, d.Name, d.Retries)
	}
	if d.MisfireGrace < 0 {
		return fmt.Errorf("%w: job %q: misfire grace must be >= 0, got %v", tempo.ErrInvalidDefinition, d.Name, d.MisfireGrace)
	}
	return nil
}

// Equal reports whether two definitions are identical field-for-field,
// ignoring nothing. Stores use it to verify round-trips.
func (d *Definition) Equal(o *Definition) bool {
	if d == nil || o == nil {
		return d == o
	}
	return d.Name == o.Name &&
		d.Schedule == o.Schedule &&
		d.Queue == o.Queue &&
		d.Retries == o.Retries &&
		d.Timeout == o.Timeout &&
		d.MaxInstances == o.MaxInstances &&
		d.Coalesce == o.Coalesce &&
		d.MisfireGrace == o.MisfireGrace &&
		d.Enabled == o.Enabled &&
		d.Priority == o.Priority &&
		d.Description == o.Description &&
		slices.Equal(d.Tags, o.Tags)
}

// Clone returns a deep copy of the definition.
func (d *Definition) Clone() *Definition {
	cp := *d
	cp.Tags = slices.Clone(d.Tags)
	return &cp
}
