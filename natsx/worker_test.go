package natsx

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

type fakeBatch struct {
	msgs []jetstream.Msg
	err  error
}

func (b *fakeBatch) Messages() <-chan jetstream.Msg {
	ch := make(chan jetstream.Msg, len(b.msgs))
	for _, m := range b.msgs {
		ch <- m
	}
	close(ch)
	return ch
}

func (b *fakeBatch) Error() error { return b.err }

type fakeFetcher struct {
	batches []*fakeBatch
	calls   int
}

func (f *fakeFetcher) Fetch(int, ...jetstream.FetchOpt) (jetstream.MessageBatch, error) {
	f.calls++
	if f.calls > len(f.batches) {
		return nil, errors.New("no more batches")
	}
	return f.batches[f.calls-1], nil
}

func TestDispatchStreamAcksOnSuccess(t *testing.T) {
	fake := &fakeJetStreamMsg{subject: "tasks.run", data: []byte("payload")}

	var gotBody string
	dispatchStream(context.Background(), "pull", func(_ context.Context, msg Message) error {
		gotBody = string(msg.Body())
		return nil
	}, fake)

	if gotBody != "payload" {
		t.Errorf("handler saw body %q, want %q", gotBody, "payload")
	}
	if fake.acks != 1 || fake.naks != 0 {
		t.Errorf("acks=%d naks=%d, want 1/0", fake.acks, fake.naks)
	}
}

func TestDispatchStreamNaksOnHandlerError(t *testing.T) {
	fake := &fakeJetStreamMsg{subject: "tasks.run"}

	dispatchStream(context.Background(), "pull", func(context.Context, Message) error {
		return errors.New("handler boom")
	}, fake)

	if fake.acks != 0 || fake.naks != 1 {
		t.Errorf("acks=%d naks=%d, want 0/1", fake.acks, fake.naks)
	}
}

func TestDispatchStreamNaksOnHandlerPanic(t *testing.T) {
	fake := &fakeJetStreamMsg{subject: "tasks.run"}

	dispatchStream(context.Background(), "push", func(context.Context, Message) error {
		panic("handler exploded")
	}, fake)

	if fake.acks != 0 || fake.naks != 1 {
		t.Errorf("acks=%d naks=%d, want 0/1", fake.acks, fake.naks)
	}
}

func TestCallHandlerRecoversPanic(t *testing.T) {
	err := callHandler(context.Background(), "test", func() error {
		panic("boom")
	})
	if err == nil {
		t.Fatal("callHandler() = nil, want error after panic")
	}

	err = callHandler(context.Background(), "test", func() error { return nil })
	if err != nil {
		t.Fatalf("callHandler() = %v, want nil", err)
	}
}

func TestNewWorkerOptionsDefaults(t *testing.T) {
	wo := newWorkerOptions()
	if wo.batch != 1 {
		t.Errorf("default batch = %d, want 1", wo.batch)
	}
	if wo.maxWait != 5*time.Second {
		t.Errorf("default maxWait = %v, want 5s", wo.maxWait)
	}

	wo = newWorkerOptions(WithBatch(16), WithMaxWait(time.Second))
	if wo.batch != 16 || wo.maxWait != time.Second {
		t.Errorf("options not applied: batch=%d maxWait=%v", wo.batch, wo.maxWait)
	}

	wo = newWorkerOptions(WithBatch(-3), WithMaxWait(-time.Second))
	if wo.batch != 1 || wo.maxWait != 5*time.Second {
		t.Errorf("invalid options not clamped: batch=%d maxWait=%v", wo.batch, wo.maxWait)
	}
}

func TestFetchLoopStopsOnEmptyErroredBatch(t *testing.T) {
	w := NewPullWorker(&Conn{}, "TASKS", "tasks.run", "worker-1")
	batchErr := errors.New("consumer deleted")
	cons := &fakeFetcher{batches: []*fakeBatch{{err: batchErr}}}

	err := w.fetchLoop(context.Background(), cons, func(context.Context, Message) error { return nil })
	if !errors.Is(err, batchErr) {
		t.Fatalf("fetchLoop() = %v, want wrapped %v", err, batchErr)
	}
	if cons.calls != 1 {
		t.Errorf("fetch calls = %d, want 1 (no retry on an empty errored batch)", cons.calls)
	}
}

func TestFetchLoopContinuesAfterPartialBatch(t *testing.T) {
	fake := &fakeJetStreamMsg{subject: "tasks.run", data: []byte("x")}
	cons := &fakeFetcher{batches: []*fakeBatch{
		{msgs: []jetstream.Msg{fake}, err: errors.New("batch cut short")},
	}}

	w := NewPullWorker(&Conn{}, "TASKS", "tasks.run", "worker-1")
	err := w.fetchLoop(context.Background(), cons, func(context.Context, Message) error { return nil })
	if err == nil {
		t.Fatal("fetchLoop() = nil, want error once the fetcher runs dry")
	}

	// The delivered message was still processed before the second fetch.
	if fake.acks != 1 {
		t.Errorf("acks = %d, want 1", fake.acks)
	}
	if cons.calls != 2 {
		t.Errorf("fetch calls = %d, want 2 (a partial batch keeps the loop going)", cons.calls)
	}
}

func TestFetchLoopStopsOnContextCancel(t *testing.T) {
	fake := &fakeJetStreamMsg{subject: "tasks.run"}
	cons := &fakeFetcher{batches: []*fakeBatch{{msgs: []jetstream.Msg{fake}}}}

	ctx, cancel := context.WithCancel(context.Background())
	w := NewPullWorker(&Conn{}, "TASKS", "tasks.run", "worker-1")
	err := w.fetchLoop(ctx, cons, func(context.Context, Message) error {
		cancel()
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("fetchLoop() = %v, want context.Canceled", err)
	}
	if cons.calls != 1 {
		t.Errorf("fetch calls = %d, want 1 (cancellation ends the loop)", cons.calls)
	}
}

func TestPullWorkerValidation(t *testing.T) {
	conn := &Conn{}
	handler := func(context.Context, Message) error { return nil }

	tests := []struct {
		name    string
		worker  *PullWorker
		handler Handler
		wantErr error
	}{
		{
			name:    "missing stream",
			worker:  NewPullWorker(conn, "", "tasks.run", "worker-1"),
			handler: handler,
			wantErr: ErrStreamRequired,
		},
		{
			name:    "missing durable",
			worker:  NewPullWorker(conn, "TASKS", "tasks.run", ""),
			handler: handler,
			wantErr: ErrDurableRequired,
		},
		{
			name:    "missing handler",
			worker:  NewPullWorker(conn, "TASKS", "tasks.run", "worker-1"),
			handler: nil,
			wantErr: ErrHandlerRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.worker.Run(context.Background(), tt.handler)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Run() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPushWorkerValidation(t *testing.T) {
	w := NewPushWorker(&Conn{}, "TASKS", "tasks.run", "")
	err := w.Run(context.Background(), func(context.Context, Message) error { return nil })
	if !errors.Is(err, ErrDurableRequired) {
		t.Errorf("Run() = %v, want ErrDurableRequired", err)
	}
}
