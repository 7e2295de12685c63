package breaker_test

import (
	"errors"
	"testing"
	"time"

	"github.com/xraph/tempo"
	"github.com/xraph/tempo/breaker"
)

func TestBreaker_OpensAtThreshold(t *testing.T) {
	b := breaker.New("downstream", 5, time.Minute)

	for i := 0; i < 5; i++ {
		if err := b.Allow(); err != nil {
			t.Fatalf("Allow() before threshold errored: %v", err)
		}
		b.RecordFailure()
	}

	err := b.Allow()
	if err == nil {
		t.Fatal("expected circuit open after threshold failures")
	}
	if !errors.Is(err, tempo.ErrCircuitOpen) {
		t.Errorf("error = %v, want ErrCircuitOpen", err)
	}

	snap := b.Snapshot()
	if snap.State != breaker.StateOpen {
		t.Errorf("state = %s, want open", snap.State)
	}
	if snap.FailureCount != 5 {
		t.Errorf("FailureCount = %d, want 5", snap.FailureCount)
	}
}

func TestBreaker_StaysClosedBelowThreshold(t *testing.T) {
	b := breaker.New("downstream", 3, time.Minute)

	b.RecordFailure()
	b.RecordFailure()
	if err := b.Allow(); err != nil {
		t.Fatalf("Allow() below threshold errored: %v", err)
	}

	// Success resets the count; two more failures must not trip it.
	b.RecordSuccess()
	b.RecordFailure()
	b.RecordFailure()
	if err := b.Allow(); err != nil {
		t.Fatalf("Allow() after reset errored: %v", err)
	}
}

func TestBreaker_HalfOpenSingleTrial(t *testing.T) {
	b := breaker.New("downstream", 1, 20*time.Millisecond)

	b.RecordFailure() // opens immediately at threshold 1

	if err := b.Allow(); !errors.Is(err, tempo.ErrCircuitOpen) {
		t.Fatalf("Allow() during cooldown = %v, want ErrCircuitOpen", err)
	}

	time.Sleep(30 * time.Millisecond)

	// First caller after cooldown gets the trial.
	if err := b.Allow(); err != nil {
		t.Fatalf("trial Allow() errored: %v", err)
	}
	if got := b.Snapshot().State; got != breaker.StateHalfOpen {
		t.Errorf("state = %s, want half_open", got)
	}

	// Second caller while trial is in flight is rejected.
	if err := b.Allow(); !errors.Is(err, tempo.ErrCircuitOpen) {
		t.Fatalf("concurrent Allow() during trial = %v, want ErrCircuitOpen", err)
	}
}

func TestBreaker_TrialSuccessCloses(t *testing.T) {
	b := breaker.New("downstream", 1, 10*time.Millisecond)

	b.RecordFailure()
	time.Sleep(20 * time.Millisecond)

	if err := b.Allow(); err != nil {
		t.Fatal(err)
	}
	b.RecordSuccess()

	snap := b.Snapshot()
	if snap.State != breaker.StateClosed {
		t.Errorf("state = %s, want closed", snap.State)
	}
	if snap.FailureCount != 0 {
		t.Errorf("FailureCount = %d, want 0 after reset", snap.FailureCount)
	}
	if err := b.Allow(); err != nil {
		t.Errorf("Allow() after close errored: %v", err)
	}
}

func TestBreaker_TrialFailureReopens(t *testing.T) {
	b := breaker.New("downstream", 1, 15*time.Millisecond)

	b.RecordFailure()
	time.Sleep(25 * time.Millisecond)

	if err := b.Allow(); err != nil {
		t.Fatal(err)
	}
	b.RecordFailure()

	if got := b.Snapshot().State; got != breaker.StateOpen {
		t.Errorf("state = %s, want open after failed trial", got)
	}
	// Cooldown restarted: immediate calls still rejected.
	if err := b.Allow(); !errors.Is(err, tempo.ErrCircuitOpen) {
		t.Errorf("Allow() = %v, want ErrCircuitOpen", err)
	}
}

func TestSet_IndependentKeys(t *testing.T) {
	s := breaker.NewSet(1, time.Minute)

	s.Get("flaky").RecordFailure()

	if err := s.Get("flaky").Allow(); !errors.Is(err, tempo.ErrCircuitOpen) {
		t.Errorf("flaky Allow() = %v, want ErrCircuitOpen", err)
	}
	if err := s.Get("healthy").Allow(); err != nil {
		t.Errorf("healthy Allow() = %v, want nil", err)
	}

	snaps := s.Snapshots()
	if len(snaps) != 2 {
		t.Fatalf("len(snapshots) = %d, want 2", len(snaps))
	}
	if snaps["flaky"].State != breaker.StateOpen {
		t.Errorf("flaky state = %s, want open", snaps["flaky"].State)
	}
	if snaps["healthy"].State != breaker.StateClosed {
		t.Errorf("healthy state = %s, want closed", snaps["healthy"].State)
	}
}

func TestSet_GetSameInstance(t *testing.T) {
	s := breaker.NewSet(3, time.Minute)
	if s.Get("x") != s.Get("x") {
		t.Error("Get must return the same breaker for the same key")
	}
}

func TestBreaker_ReleaseTrialReopensCircuit(t *testing.T) {
	b := breaker.New("downstream", 1, 15*time.Millisecond)

	b.RecordFailure()
	time.Sleep(25 * time.Millisecond)

	if err := b.Allow(); err != nil {
		t.Fatal(err)
	}
	b.ReleaseTrial()

	if got := b.Snapshot().State; got != breaker.StateOpen {
		t.Errorf("state = %s, want open after released trial", got)
	}
	// Cooldown restarted: immediate calls rejected, a later trial runs.
	if err := b.Allow(); !errors.Is(err, tempo.ErrCircuitOpen) {
		t.Errorf("Allow() = %v, want ErrCircuitOpen", err)
	}
	time.Sleep(25 * time.Millisecond)
	if err := b.Allow(); err != nil {
		t.Errorf("Allow() after fresh cooldown = %v, want trial admitted", err)
	}
}

func TestBreaker_ReleaseTrialNoOpWhenClosed(t *testing.T) {
	b := breaker.New("downstream", 3, time.Minute)

	b.ReleaseTrial()

	if got := b.Snapshot().State; got != breaker.StateClosed {
		t.Errorf("state = %s, want closed", got)
	}
	if err := b.Allow(); err != nil {
		t.Errorf("Allow() = %v, want nil", err)
	}
}
