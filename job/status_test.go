package job_test

import (
	"errors"
	"testing"

	"github.com/xraph/tempo"
	"github.com/xraph/tempo/id"
	"github.com/xraph/tempo/job"
)

var allStatuses = []job.Status{
	job.StatusPending,
	job.StatusRunning,
	job.StatusRetrying,
	job.StatusCompleted,
	job.StatusFailed,
	job.StatusCancelled,
	job.StatusTimeout,
	job.StatusSkipped,
}

// allowed is the full transition table. Every pair not listed here must
// be rejected.
var allowed = map[job.Status][]job.Status{
	job.StatusPending:  {job.StatusRunning, job.StatusCancelled, job.StatusSkipped},
	job.StatusRunning:  {job.StatusCompleted, job.StatusFailed, job.StatusCancelled, job.StatusTimeout},
	job.StatusRetrying: {job.StatusRunning, job.StatusFailed, job.StatusCancelled},
	job.StatusFailed:   {job.StatusRetrying},
	job.StatusTimeout:  {job.StatusRetrying},
}

func contains(list []job.Status, s job.Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestCanTransition_ExhaustiveTable(t *testing.T) {
	for _, from := range allStatuses {
		for _, to := range allStatuses {
			want := contains(allowed[from], to)
			if got := job.CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestExecution_TransitionRejectsIllegalMove(t *testing.T) {
	def := job.NewDefinition("report")
	e := job.NewExecution(def, id.NewWorkerID())

	err := e.Transition(job.StatusCompleted) // pending -> completed is illegal
	if err == nil {
		t.Fatal("expected error for pending -> completed")
	}
	if !errors.Is(err, tempo.ErrInvalidTransition) {
		t.Errorf("error = %v, want ErrInvalidTransition", err)
	}
	if e.Status != job.StatusPending {
		t.Errorf("status mutated to %s on rejected transition", e.Status)
	}
}

func TestExecution_HappyPath(t *testing.T) {
	def := job.NewDefinition("report")
	e := job.NewExecution(def, id.NewWorkerID())

	if e.Status != job.StatusPending {
		t.Fatalf("initial status = %s, want pending", e.Status)
	}
	if err := e.Transition(job.StatusRunning); err != nil {
		t.Fatalf("pending -> running: %v", err)
	}
	if err := e.Complete(job.Result{Value: "ok"}); err != nil {
		t.Fatalf("running -> completed: %v", err)
	}

	if e.CompletedAt == nil {
		t.Fatal("CompletedAt not set on terminal execution")
	}
	if e.CompletedAt.Before(e.StartedAt) {
		t.Error("CompletedAt before StartedAt")
	}
	if e.Result == nil || e.Error != "" {
		t.Error("terminal completed execution must have result and no error")
	}
}

func TestExecution_FailSetsExactlyError(t *testing.T) {
	def := job.NewDefinition("report")
	e := job.NewExecution(def, id.NewWorkerID())

	if err := e.Transition(job.StatusRunning); err != nil {
		t.Fatal(err)
	}
	if err := e.Fail(job.StatusFailed, errors.New("boom")); err != nil {
		t.Fatal(err)
	}

	if e.Result != nil {
		t.Error("failed execution must not carry a result")
	}
	if e.Error != "boom" {
		t.Errorf("Error = %q, want %q", e.Error, "boom")
	}
	if e.CompletedAt == nil || e.CompletedAt.Before(e.StartedAt) {
		t.Error("terminal invariant violated")
	}
}

func TestTerminal(t *testing.T) {
	tests := []struct {
		status job.Status
		want   bool
	}{
		{job.StatusPending, false},
		{job.StatusRunning, false},
		{job.StatusRetrying, false},
		{job.StatusCompleted, true},
		{job.StatusFailed, true},
		{job.StatusCancelled, true},
		{job.StatusTimeout, true},
		{job.StatusSkipped, true},
	}
	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.want {
			t.Errorf("%s.Terminal() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestSkipRecordsReason(t *testing.T) {
	def := job.NewDefinition("report")
	e := job.NewExecution(def, id.NewWorkerID())

	if err := e.Skip("max instances reached"); err != nil {
		t.Fatal(err)
	}
	if e.Status != job.StatusSkipped {
		t.Errorf("status = %s, want skipped", e.Status)
	}
	if e.SkipReason != "max instances reached" {
		t.Errorf("SkipReason = %q", e.SkipReason)
	}
	if e.Result == nil || !e.Result.Skipped {
		t.Error("skipped execution must carry an explicit skipped result")
	}
}
