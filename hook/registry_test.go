package hook_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/xraph/tempo/hook"
	"github.com/xraph/tempo/id"
	"github.com/xraph/tempo/job"
)

// allHooks implements every lifecycle hook for testing.
type allHooks struct {
	calls []string
}

func (h *allHooks) Name() string { return "all-hooks" }

func (h *allHooks) OnJobStarted(_ context.Context, _ *job.Execution) error {
	h.calls = append(h.calls, "OnJobStarted")
	return nil
}

func (h *allHooks) OnJobCompleted(_ context.Context, _ *job.Execution, _ time.Duration) error {
	h.calls = append(h.calls, "OnJobCompleted")
	return nil
}

func (h *allHooks) OnJobFailed(_ context.Context, _ *job.Execution, _ error) error {
	h.calls = append(h.calls, "OnJobFailed")
	return nil
}

func (h *allHooks) OnJobRetrying(_ context.Context, _ *job.Execution, _ int, _ time.Time) error {
	h.calls = append(h.calls, "OnJobRetrying")
	return nil
}

func (h *allHooks) OnJobSkipped(_ context.Context, _ *job.Execution, _ string) error {
	h.calls = append(h.calls, "OnJobSkipped")
	return nil
}

func (h *allHooks) OnJobCancelled(_ context.Context, _ *job.Execution) error {
	h.calls = append(h.calls, "OnJobCancelled")
	return nil
}

func (h *allHooks) OnCronFired(_ context.Context, _ string, _ id.ExecID) error {
	h.calls = append(h.calls, "OnCronFired")
	return nil
}

func (h *allHooks) OnShutdown(_ context.Context) error {
	h.calls = append(h.calls, "OnShutdown")
	return nil
}

// startedOnly opts in to a single hook.
type startedOnly struct {
	count int
}

func (h *startedOnly) Name() string { return "started-only" }

func (h *startedOnly) OnJobStarted(_ context.Context, _ *job.Execution) error {
	h.count++
	return nil
}

// failingHook always errors, to prove errors are swallowed.
type failingHook struct{}

func (failingHook) Name() string { return "failing" }

func (failingHook) OnJobStarted(_ context.Context, _ *job.Execution) error {
	return errors.New("observer broke")
}

func testExec() *job.Execution {
	return job.NewExecution(job.NewDefinition("nightly"), id.NewWorkerID())
}

func TestRegistry_EmitsAllEvents(t *testing.T) {
	r := hook.NewRegistry(slog.Default())
	h := &allHooks{}
	r.Register(h)

	ctx := context.Background()
	e := testExec()

	r.EmitJobStarted(ctx, e)
	r.EmitJobCompleted(ctx, e, time.Second)
	r.EmitJobFailed(ctx, e, errors.New("x"))
	r.EmitJobRetrying(ctx, e, 1, time.Now())
	r.EmitJobSkipped(ctx, e, "at capacity")
	r.EmitJobCancelled(ctx, e)
	r.EmitCronFired(ctx, "nightly", e.ID)
	r.EmitShutdown(ctx)

	want := []string{
		"OnJobStarted", "OnJobCompleted", "OnJobFailed", "OnJobRetrying",
		"OnJobSkipped", "OnJobCancelled", "OnCronFired", "OnShutdown",
	}
	if len(h.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", h.calls, want)
	}
	for i := range want {
		if h.calls[i] != want[i] {
			t.Errorf("calls[%d] = %q, want %q", i, h.calls[i], want[i])
		}
	}
}

func TestRegistry_OptInOnly(t *testing.T) {
	r := hook.NewRegistry(slog.Default())
	h := &startedOnly{}
	r.Register(h)

	ctx := context.Background()
	e := testExec()

	r.EmitJobStarted(ctx, e)
	r.EmitJobCompleted(ctx, e, time.Second) // not implemented; must not panic
	r.EmitShutdown(ctx)

	if h.count != 1 {
		t.Errorf("count = %d, want 1", h.count)
	}
}

func TestRegistry_HookErrorsSwallowed(t *testing.T) {
	r := hook.NewRegistry(slog.Default())
	r.Register(failingHook{})
	second := &startedOnly{}
	r.Register(second)

	r.EmitJobStarted(context.Background(), testExec())

	if second.count != 1 {
		t.Error("a failing hook must not block later hooks")
	}
}

func TestRegistry_Names(t *testing.T) {
	r := hook.NewRegistry(nil)
	r.Register(&allHooks{})
	r.Register(&startedOnly{})

	names := r.Names()
	if len(names) != 2 || names[0] != "all-hooks" || names[1] != "started-only" {
		t.Errorf("Names() = %v", names)
	}
}
