// Package scheduler owns the job table and the due-check loop, and
// drives every execution through the guard: per-attempt timeouts,
// per-job circuit breakers, and recovery strategies.
//
// # Lifecycle
//
//	sched := scheduler.New(nil,
//	    scheduler.WithConfig(cfg),
//	    scheduler.WithLanes(lane.Config{Name: "email", MaxConcurrency: 5}),
//	)
//	err := sched.Register(
//	    job.NewDefinition("cleanup",
//	        job.WithSchedule("0 * * * *"),
//	        job.WithTimeout(30*time.Second),
//	        job.WithRetries(2),
//	    ),
//	    func(ctx context.Context, payload []byte) (job.Result, error) { ... },
//	)
//	_ = sched.Start(ctx)
//	defer sched.Stop(ctx)
//
// The due-check loop ticks every Config.TickInterval. On each tick it
// computes the fire times each enabled schedule produced since the
// previous check: fires within the job's misfire grace start an
// execution; older fires are dropped; with coalescing on, a backlog
// collapses to its most recent fire.
//
// # Concurrency ceilings
//
// A job never has more than MaxInstances concurrent retry chains. A
// chain holds its slot from the first attempt until the final one
// settles, so a retrying job still counts against its ceiling. Firings
// and manual triggers at the ceiling are recorded as skipped, never
// queued. Lane limits (per-queue concurrency and rate) are enforced the
// same way.
//
// # Retries
//
// A failed or timed-out attempt with retry budget left is recorded as
// retrying, then a fresh execution record runs after the backoff delay.
// Attempts of one firing serialize; the final record carries the
// terminal status and the total retry count.
package scheduler
