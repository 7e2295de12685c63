package remote_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/tempo/id"
	"github.com/xraph/tempo/job"
	"github.com/xraph/tempo/remote"
)

func waitTerminal(t *testing.T, l *remote.Local, taskID id.TaskID) *remote.TaskStatus {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatal("task did not reach a terminal state")
		default:
		}
		st, err := l.Poll(context.Background(), taskID)
		if err != nil {
			t.Fatalf("Poll: %v", err)
		}
		if st.State.Terminal() {
			return st
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestLocal_SubmitPollSucceeds(t *testing.T) {
	l := remote.NewLocal()
	l.Handle("echo", func(_ context.Context, payload []byte) (job.Result, error) {
		return job.Result{Value: string(payload)}, nil
	})

	taskID, err := l.Submit(context.Background(), "echo", []byte("hello"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	st := waitTerminal(t, l, taskID)
	if st.State != remote.StateSucceeded {
		t.Fatalf("State = %s, want %s", st.State, remote.StateSucceeded)
	}

	var decoded string
	if err := remote.GetCodec("").Decode(st.Payload, &decoded); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if decoded != "hello" {
		t.Fatalf("payload = %q, want hello", decoded)
	}
}

func TestLocal_HandlerErrorFailsTask(t *testing.T) {
	l := remote.NewLocal()
	l.Handle("boom", func(_ context.Context, _ []byte) (job.Result, error) {
		return job.Result{}, errors.New("exploded")
	})

	taskID, err := l.Submit(context.Background(), "boom", nil)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	st := waitTerminal(t, l, taskID)
	if st.State != remote.StateFailed {
		t.Fatalf("State = %s, want %s", st.State, remote.StateFailed)
	}
	if st.Error != "exploded" {
		t.Fatalf("Error = %q, want exploded", st.Error)
	}
}

func TestLocal_Cancel(t *testing.T) {
	l := remote.NewLocal()
	started := make(chan struct{})
	l.Handle("slow", func(ctx context.Context, _ []byte) (job.Result, error) {
		close(started)
		<-ctx.Done()
		return job.Result{}, ctx.Err()
	})

	taskID, err := l.Submit(context.Background(), "slow", nil)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	<-started

	ok, err := l.Cancel(context.Background(), taskID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if !ok {
		t.Fatal("Cancel should report true for a running task")
	}

	st := waitTerminal(t, l, taskID)
	if st.State != remote.StateCancelled {
		t.Fatalf("State = %s, want %s", st.State, remote.StateCancelled)
	}

	// Cancelling a finished task is a no-op.
	ok, err = l.Cancel(context.Background(), taskID)
	if err != nil {
		t.Fatalf("second Cancel: %v", err)
	}
	if ok {
		t.Fatal("Cancel on a terminal task should report false")
	}
}

func TestLocal_UnknownHandlerAndTask(t *testing.T) {
	l := remote.NewLocal()

	if _, err := l.Submit(context.Background(), "missing", nil); err == nil {
		t.Fatal("Submit without a handler should fail")
	}
	if _, err := l.Poll(context.Background(), id.NewTaskID()); err == nil {
		t.Fatal("Poll of an unknown task should fail")
	}
}

func TestWork_SucceedsThroughPollLoop(t *testing.T) {
	l := remote.NewLocal()
	l.Handle("compute", func(_ context.Context, _ []byte) (job.Result, error) {
		return job.Result{Value: int64(42)}, nil
	})

	work := remote.Work(l, "compute", nil, 5*time.Millisecond)
	res, err := work(context.Background())
	if err != nil {
		t.Fatalf("work: %v", err)
	}

	payload, ok := res.Value.([]byte)
	if !ok {
		t.Fatalf("Value type = %T, want []byte", res.Value)
	}
	var n int64
	if err := remote.GetCodec(remote.CodecNameMsgpack).Decode(payload, &n); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if n != 42 {
		t.Fatalf("decoded = %d, want 42", n)
	}
}

func TestWork_RemoteFailureBecomesError(t *testing.T) {
	l := remote.NewLocal()
	l.Handle("flaky", func(_ context.Context, _ []byte) (job.Result, error) {
		return job.Result{}, errors.New("downstream 503")
	})

	work := remote.Work(l, "flaky", nil, 5*time.Millisecond)
	if _, err := work(context.Background()); err == nil {
		t.Fatal("expected error from failed remote task")
	}
}

func TestWork_CtxCancelCancelsRemoteTask(t *testing.T) {
	l := remote.NewLocal()
	started := make(chan struct{})
	l.Handle("hang", func(ctx context.Context, _ []byte) (job.Result, error) {
		close(started)
		<-ctx.Done()
		return job.Result{}, ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	work := remote.Work(l, "hang", nil, 5*time.Millisecond)

	done := make(chan error, 1)
	go func() {
		_, err := work(ctx)
		done <- err
	}()

	<-started
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("work did not return after cancellation")
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	type payload struct {
		Name  string `json:"name" msgpack:"name"`
		Count int    `json:"count" msgpack:"count"`
	}

	for _, name := range []string{remote.CodecNameJSON, remote.CodecNameMsgpack} {
		c := remote.GetCodec(name)
		if c.Name() != name {
			t.Fatalf("Name() = %q, want %q", c.Name(), name)
		}

		in := payload{Name: "batch", Count: 7}
		b, err := c.Encode(in)
		if err != nil {
			t.Fatalf("%s encode: %v", name, err)
		}
		var out payload
		if err := c.Decode(b, &out); err != nil {
			t.Fatalf("%s decode: %v", name, err)
		}
		if out != in {
			t.Fatalf("%s round-trip = %+v, want %+v", name, out, in)
		}
	}
}
