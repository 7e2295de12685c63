// Package tempo provides an embeddable job scheduling and execution core
// for Go. It offers cron-driven and ad-hoc job registration, per-job
// concurrency ceilings, hard execution deadlines, circuit breakers with
// pluggable recovery strategies, and retry with backoff.
//
// Tempo is designed as a library, not a service. Import it, register job
// definitions with handler functions, and start the scheduler.
//
// # Quick Start
//
//	cfg := tempo.DefaultConfig()
//	cfg.TickInterval = time.Second
//
//	s := scheduler.New(nil, scheduler.WithConfig(cfg))
//	def := job.NewDefinition("cleanup",
//	    job.WithSchedule(cron.DailyAt(3, 0)),
//	    job.WithRetries(2),
//	)
//	s.Register(def, func(ctx context.Context, payload []byte) (job.Result, error) {
//	    return job.Result{}, purgeExpired(ctx)
//	})
//	s.Start(ctx)
//
// # Architecture
//
// The root package holds the shared error vocabulary and configuration.
// Subsystems are layered leaves-first: job (model and state machine),
// breaker and guard (failure policy), cron and backoff (timing policy),
// and scheduler (coordination). Persistence is optional and pluggable
// through the store package.
//
// All entity IDs are TypeIDs: type-prefixed, K-sortable, UUIDv7-based
// identifiers.
package tempo
