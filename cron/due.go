package cron

import "time"

// Due returns the scheduled fire times in (from, now] that should run at
// the current tick.
//
// A fire at time t is due while now falls within [t, t+grace]; fires
// older than the grace window are misfires and are dropped. When coalesce
// is set and several fires survive the grace filter (the process slept
// through multiple ticks), only the most recent one runs.
//
// The returned times ascend; an empty slice means nothing is due.
func Due(sched Schedule, from, now time.Time, grace time.Duration, coalesce bool) []time.Time {
	if !from.Before(now) {
		return nil
	}

	// A schedule that never fires again returns the zero time from Next.
	var due []time.Time
	for t := sched.Next(from); !t.IsZero() && !t.After(now); t = sched.Next(t) {
		if now.Sub(t) <= grace {
			due = append(due, t)
		}
	}

	if coalesce && len(due) > 1 {
		due = due[len(due)-1:]
	}
	return due
}

// Next returns the first fire time strictly after t, or the zero time if
// the schedule never fires again.
func Next(sched Schedule, t time.Time) time.Time {
	return sched.Next(t)
}
