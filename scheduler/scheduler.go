package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xraph/tempo"
	"github.com/xraph/tempo/backoff"
	"github.com/xraph/tempo/breaker"
	"github.com/xraph/tempo/cron"
	"github.com/xraph/tempo/guard"
	"github.com/xraph/tempo/hook"
	"github.com/xraph/tempo/id"
	"github.com/xraph/tempo/job"
	"github.com/xraph/tempo/lane"
	"github.com/xraph/tempo/middleware"
	"github.com/xraph/tempo/store"
)

// storeTimeout bounds persistence calls made outside a caller's context.
const storeTimeout = 5 * time.Second

// entry pairs a registered definition with its parsed schedule and
// recovery strategies.
type entry struct {
	def        *job.Definition
	sched      cron.Schedule // nil when manual-only
	strategies []guard.Strategy
}

// Scheduler owns the job table, the due-check loop, and all execution
// bookkeeping. All methods are safe for concurrent use.
type Scheduler struct {
	cfg      tempo.Config
	logger   *slog.Logger
	hooks    *hook.Registry
	runner   *guard.Runner
	lanes    *lane.Manager
	retry    backoff.Strategy
	st       store.Store
	chain    middleware.Middleware
	handlers *job.Registry
	workerID id.WorkerID

	// Option staging, consumed by New.
	pendingHooks []hook.Hook
	laneConfigs  []lane.Config
	extraMW      []middleware.Middleware

	mu        sync.Mutex
	jobs      map[string]*entry
	lastCheck map[string]time.Time
	runCount  map[string]int
	active    map[string]*activeExec
	history   []*job.Execution
	metrics   map[string]*job.Metrics
	running   bool
	stopped   bool

	stopCh chan struct{}
	loopWG sync.WaitGroup
	drain  errgroup.Group
}

// activeExec tracks one in-flight attempt. settled guards the terminal
// record so the cancel path and the run path never both write it.
type activeExec struct {
	exec    *job.Execution
	cancel  context.CancelFunc
	done    chan struct{}
	settled atomic.Bool
}

// settle returns true exactly once per attempt; the winner records the
// terminal state.
func (ae *activeExec) settle() bool {
	return ae.settled.CompareAndSwap(false, true)
}

// New builds a Scheduler. st may be nil for a purely in-memory
// scheduler; when set, definitions and terminal executions are mirrored
// through it.
func New(st store.Store, opts ...Option) *Scheduler {
	s := &Scheduler{
		cfg:       tempo.DefaultConfig(),
		logger:    slog.Default(),
		retry:     backoff.DefaultStrategy(),
		st:        st,
		handlers:  job.NewRegistry(),
		workerID:  id.NewWorkerID(),
		jobs:      make(map[string]*entry),
		lastCheck: make(map[string]time.Time),
		runCount:  make(map[string]int),
		active:    make(map[string]*activeExec),
		metrics:   make(map[string]*job.Metrics),
		stopCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.hooks = hook.NewRegistry(s.logger)
	for _, h := range s.pendingHooks {
		s.hooks.Register(h)
	}
	s.pendingHooks = nil

	s.lanes = lane.NewManager(s.laneConfigs...)
	s.laneConfigs = nil

	s.runner = guard.NewRunner(
		guard.WithLogger(s.logger),
		guard.WithCleanupGrace(s.cfg.CleanupGrace),
		guard.WithBreakers(breaker.NewSet(s.cfg.FailureThreshold, s.cfg.BreakerCooldown)),
	)

	mws := append([]middleware.Middleware{middleware.Recover(s.logger)}, s.extraMW...)
	s.chain = middleware.Chain(mws...)
	s.extraMW = nil

	return s
}

// WorkerID returns the scheduler's unique worker identifier.
func (s *Scheduler) WorkerID() id.WorkerID { return s.workerID }

// Register adds (or replaces) a job. Registration is idempotent by
// name: re-registering the same definition never produces duplicate
// firings because due-check bookkeeping is keyed by name. Optional
// recovery strategies run, in order, when an attempt times out or
// fails.
func (s *Scheduler) Register(def *job.Definition, h job.HandlerFunc, strategies ...guard.Strategy) error {
	if err := def.Validate(); err != nil {
		return err
	}
	if h == nil {
		return fmt.Errorf("%w: job %q: nil handler", tempo.ErrInvalidDefinition, def.Name)
	}

	var sched cron.Schedule
	if def.Schedule != "" {
		var err error
		sched, err = cron.Parse(def.Schedule)
		if err != nil {
			return fmt.Errorf("%w: job %q: %v", tempo.ErrInvalidDefinition, def.Name, err)
		}
	}

	s.mu.Lock()
	s.jobs[def.Name] = &entry{def: def.Clone(), sched: sched, strategies: strategies}
	if _, ok := s.lastCheck[def.Name]; !ok {
		s.lastCheck[def.Name] = time.Now()
	}
	s.mu.Unlock()

	s.handlers.Register(def.Name, h)
	s.persistDefinition(def)

	s.logger.Info("job registered",
		slog.String("job_name", def.Name),
		slog.String("schedule", def.Schedule),
		slog.String("queue", def.Queue),
	)
	return nil
}

// RegisterTyped registers a typed definition, erasing the payload type
// through JSON.
func RegisterTyped[T any](s *Scheduler, td *job.TypedDefinition[T], strategies ...guard.Strategy) error {
	return s.Register(td.Def, job.Erase(td), strategies...)
}

// Unregister removes a job by name. In-flight executions are not
// cancelled. Unregistering an unknown name is a no-op.
func (s *Scheduler) Unregister(name string) {
	s.mu.Lock()
	_, existed := s.jobs[name]
	delete(s.jobs, name)
	delete(s.lastCheck, name)
	s.mu.Unlock()

	s.handlers.Unregister(name)
	if !existed {
		return
	}

	if s.st != nil {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		if err := s.st.DeleteDefinition(ctx, name); err != nil {
			s.logger.Error("delete definition failed",
				slog.String("job_name", name),
				slog.String("error", err.Error()),
			)
		}
		cancel()
	}
	s.logger.Info("job unregistered", slog.String("job_name", name))
}

// Enable turns a disabled job's schedule back on.
func (s *Scheduler) Enable(name string) error {
	return s.setEnabled(name, true)
}

// Disable stops a job from firing on schedule. Manual triggers still
// work and in-flight executions are unaffected.
func (s *Scheduler) Disable(name string) error {
	return s.setEnabled(name, false)
}

func (s *Scheduler) setEnabled(name string, enabled bool) error {
	s.mu.Lock()
	ent, ok := s.jobs[name]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", tempo.ErrJobNotFound, name)
	}
	ent.def.Enabled = enabled
	def := ent.def.Clone()
	s.mu.Unlock()

	s.persistDefinition(def)
	return nil
}

// RunNow triggers one execution of a job immediately, outside its
// schedule. The job's MaxInstances ceiling still applies: at the
// ceiling the trigger is recorded as a skipped execution and returned,
// not queued and not an error. The returned execution is a snapshot;
// follow progress through History or hooks.
func (s *Scheduler) RunNow(ctx context.Context, name string, payload []byte) (*job.Execution, error) {
	select {
	case <-s.stopCh:
		return nil, tempo.ErrSchedulerStopped
	default:
	}
	return s.startChain(ctx, name, payload, nil)
}

// Cancel cooperatively cancels an active execution. It waits up to the
// cleanup grace for the work unit to unwind; past that the execution is
// force-marked cancelled and abandoned. Returns false when the
// execution is not active.
func (s *Scheduler) Cancel(execID id.ExecID) bool {
	s.mu.Lock()
	ae := s.active[execID.String()]
	s.mu.Unlock()
	if ae == nil {
		return false
	}

	ae.cancel()

	select {
	case <-ae.done:
	case <-time.After(s.cfg.CleanupGrace):
		if ae.settle() {
			ae.exec.CancelNow("abandoned after cleanup grace")
			s.record(ae.exec)
			s.hooks.EmitJobCancelled(context.Background(), ae.exec)
			s.logger.Warn("execution abandoned",
				slog.String("execution_id", execID.String()),
				slog.String("job_name", ae.exec.JobName),
				slog.Duration("cleanup_grace", s.cfg.CleanupGrace),
			)
		}
	}
	return true
}

// Stats is a point-in-time snapshot of scheduler state.
type Stats struct {
	// Registered is the number of registered jobs.
	Registered int

	// Active is the number of in-flight execution attempts.
	Active int

	// Jobs maps job name to accumulated execution metrics.
	Jobs map[string]*job.Metrics

	// Breakers maps operation key to circuit breaker state.
	Breakers map[string]breaker.Snapshot

	// Backend names the configured store implementation, "none" when
	// the scheduler runs purely in-memory.
	Backend string
}

// Stats returns a snapshot of per-job metrics, active executions, and
// breaker states.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	st := Stats{
		Registered: len(s.jobs),
		Active:     len(s.active),
		Jobs:       make(map[string]*job.Metrics, len(s.metrics)),
	}
	for name, m := range s.metrics {
		st.Jobs[name] = m.Clone()
	}
	s.mu.Unlock()

	st.Breakers = s.runner.Stats()
	st.Backend = "none"
	if s.st != nil {
		st.Backend = fmt.Sprintf("%T", s.st)
	}
	return st
}

// History returns recorded executions in chronological order. An empty
// name returns the full ring. The ring is bounded by
// Config.HistoryLimit; evicted entries survive only in the store.
func (s *Scheduler) History(name string) []*job.Execution {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*job.Execution, 0, len(s.history))
	for _, e := range s.history {
		if name != "" && e.JobName != name {
			continue
		}
		out = append(out, e.Clone())
	}
	return out
}

// Executions returns persisted execution records, newest first, for
// history beyond the in-memory ring. Requires a configured store.
func (s *Scheduler) Executions(ctx context.Context, name string, limit int) ([]*job.Execution, error) {
	if s.st == nil {
		return nil, tempo.ErrNoStore
	}
	return s.st.ListExecutions(ctx, name, limit)
}

// record appends a terminal (or retrying) execution snapshot to the
// history ring, folds it into metrics, and mirrors it to the store.
func (s *Scheduler) record(e *job.Execution) {
	cp := e.Clone()

	s.mu.Lock()
	s.history = append(s.history, cp)
	if over := len(s.history) - s.cfg.HistoryLimit; over > 0 && s.cfg.HistoryLimit > 0 {
		s.history = append(s.history[:0:0], s.history[over:]...)
	}
	m := s.metrics[cp.JobName]
	if m == nil {
		m = &job.Metrics{JobName: cp.JobName}
		s.metrics[cp.JobName] = m
	}
	m.Record(cp)
	s.mu.Unlock()

	if s.st != nil {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		if err := s.st.AppendExecution(ctx, cp); err != nil {
			s.logger.Error("append execution failed",
				slog.String("execution_id", cp.ID.String()),
				slog.String("error", err.Error()),
			)
		}
		cancel()
	}
}

func (s *Scheduler) persistDefinition(def *job.Definition) {
	if s.st == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := s.st.SaveDefinition(ctx, def); err != nil {
		s.logger.Error("save definition failed",
			slog.String("job_name", def.Name),
			slog.String("error", err.Error()),
		)
	}
}

// sortFirings orders due jobs by priority, highest first.
func sortFirings(firings []firing) {
	sort.SliceStable(firings, func(i, k int) bool {
		return firings[i].priority > firings[k].priority
	})
}

type firing struct {
	name     string
	times    []time.Time
	priority int
}
