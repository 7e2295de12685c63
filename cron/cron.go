// Package cron wraps cron-expression parsing and due-check evaluation:
// deciding, for a given schedule and observation window, which fire times
// are due now, honoring the misfire grace period and coalescing.
package cron

import (
	"fmt"

	cronlib "github.com/robfig/cron/v3"
)

// Schedule computes fire times. It is the robfig Schedule interface,
// re-exported so callers don't import the library directly.
type Schedule = cronlib.Schedule

// parser supports both 5-field and 6-field (with seconds) cron specs and
// descriptors like "@every 30s".
var parser = cronlib.NewParser(
	cronlib.SecondOptional | cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow | cronlib.Descriptor,
)

// Parse parses a cron expression and returns the schedule.
func Parse(expr string) (Schedule, error) {
	sched, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("cron: parse %q: %w", expr, err)
	}
	return sched, nil
}

// MustParse is like Parse but panics on error. Use for hardcoded specs.
func MustParse(expr string) Schedule {
	sched, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return sched
}
