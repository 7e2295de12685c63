package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/tempo"
	"github.com/xraph/tempo/cron"
)

// Start launches the due-check loop. It returns immediately. Starting a
// running scheduler is a no-op; a stopped scheduler cannot be restarted.
func (s *Scheduler) Start(_ context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return tempo.ErrSchedulerStopped
	}
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	s.loopWG.Add(1)
	go s.tickLoop()

	s.logger.Info("scheduler started",
		slog.String("worker_id", s.workerID.String()),
		slog.Duration("tick_interval", s.cfg.TickInterval),
	)
	return nil
}

// Stop halts the due-check loop and drains active executions. Draining
// waits up to Config.ShutdownTimeout (or ctx's deadline, whichever
// comes first), then force-cancels the stragglers and waits for them to
// settle. After Stop the scheduler cannot be restarted.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	wasRunning := s.running
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)
	if wasRunning {
		s.loopWG.Wait()
	}

	done := make(chan struct{})
	go func() {
		_ = s.drain.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("scheduler stopped gracefully")
	case <-time.After(s.cfg.ShutdownTimeout):
		s.forceCancel(done)
	case <-ctx.Done():
		s.forceCancel(done)
	}

	s.hooks.EmitShutdown(context.Background())
	return nil
}

// forceCancel cancels every active execution and waits for the chains
// to settle. Chains observe the cancellation promptly, so this wait is
// bounded by the guard's cleanup handling.
func (s *Scheduler) forceCancel(done <-chan struct{}) {
	s.logger.Warn("shutdown drain timed out, cancelling active executions")

	s.mu.Lock()
	for execID, ae := range s.active {
		s.logger.Warn("cancelling active execution", slog.String("execution_id", execID))
		ae.cancel()
	}
	s.mu.Unlock()

	<-done
}

// tickLoop fires on each tick interval and processes due schedules.
func (s *Scheduler) tickLoop() {
	defer s.loopWG.Done()

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case now := <-ticker.C:
			s.tick(now)
		}
	}
}

// tick computes due fire times per enabled job since the last check and
// starts an execution chain for each, highest priority first. Fires
// older than the misfire grace were already dropped by cron.Due;
// coalesced backlogs arrive as a single fire.
func (s *Scheduler) tick(now time.Time) {
	s.mu.Lock()
	var firings []firing
	for name, ent := range s.jobs {
		from := s.lastCheck[name]
		s.lastCheck[name] = now
		if ent.sched == nil || !ent.def.Enabled {
			continue
		}
		fires := cron.Due(ent.sched, from, now, ent.def.MisfireGrace, ent.def.Coalesce)
		if len(fires) > 0 {
			firings = append(firings, firing{name: name, times: fires, priority: ent.def.Priority})
		}
	}
	s.mu.Unlock()

	sortFirings(firings)

	for _, f := range firings {
		for _, at := range f.times {
			ctx := context.Background()
			exec, err := s.startChain(ctx, f.name, nil, func(execID string) {
				s.logger.Info("cron fired",
					slog.String("job_name", f.name),
					slog.String("execution_id", execID),
					slog.Time("scheduled_for", at),
				)
			})
			if err != nil {
				s.logger.Error("cron fire error",
					slog.String("job_name", f.name),
					slog.String("error", err.Error()),
				)
				continue
			}
			s.hooks.EmitCronFired(ctx, f.name, exec.ID)
		}
	}
}
