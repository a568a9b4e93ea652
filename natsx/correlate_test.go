package natsx

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/shandysiswandi/pocketmq/observe"
)

func TestPublishMsgCarriesContextCorrelationID(t *testing.T) {
	ctx := observe.SetCorrelationID(context.Background(), "abc-123")

	msg := newPublishMsg(ctx, "orders.created", []byte("x"))
	if got := msg.Header.Get(HeaderCorrelationID); got != "abc-123" {
		t.Errorf("correlation header = %q, want %q", got, "abc-123")
	}
}

func TestPublishMsgMintsCorrelationID(t *testing.T) {
	msg := newPublishMsg(context.Background(), "orders.created", nil)

	got := msg.Header.Get(HeaderCorrelationID)
	if _, err := uuid.Parse(got); err != nil {
		t.Errorf("correlation header = %q, not a valid UUID: %v", got, err)
	}
}

func TestPublishMsgKeepsCallerCorrelationHeader(t *testing.T) {
	msg := newPublishMsg(context.Background(), "orders.created", nil,
		WithHeader(HeaderCorrelationID, "caller-set"))

	if got := msg.Header.Get(HeaderCorrelationID); got != "caller-set" {
		t.Errorf("correlation header = %q, want %q", got, "caller-set")
	}
}

func TestDispatchStreamLiftsCorrelationHeader(t *testing.T) {
	fake := &fakeJetStreamMsg{subject: "tasks.run", header: nats.Header{}}
	fake.header.Set(HeaderCorrelationID, "abc-123")

	var got string
	handler := func(ctx context.Context, _ Message) error {
		got = observe.GetCorrelationID(ctx)
		return nil
	}

	dispatchStream(context.Background(), "pull", handler, fake)

	if got != "abc-123" {
		t.Errorf("handler correlation ID = %q, want %q", got, "abc-123")
	}
	if fake.acks != 1 {
		t.Errorf("acks = %d, want 1", fake.acks)
	}
}

func TestDispatchStreamMintsCorrelationID(t *testing.T) {
	fake := &fakeJetStreamMsg{subject: "tasks.run"}

	var got string
	handler := func(ctx context.Context, _ Message) error {
		got = observe.GetCorrelationID(ctx)
		return nil
	}

	dispatchStream(context.Background(), "pull", handler, fake)

	if _, err := uuid.Parse(got); err != nil {
		t.Errorf("handler correlation ID = %q, not a valid UUID: %v", got, err)
	}
}
