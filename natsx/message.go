package natsx

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Message is a received message. The payload is opaque: natsx never parses
// or mutates it, and the delivery metadata comes from the server as-is.
type Message interface {
	// Body returns the message payload.
	Body() []byte
	// Subject returns the subject the message was delivered on.
	Subject() string
	// Headers returns the message headers, which may be nil.
	Headers() nats.Header
	// Sequence returns the stream sequence for JetStream deliveries, zero otherwise.
	Sequence() uint64

	// Ack acknowledges the message. On core NATS deliveries it is a no-op.
	// At most one of Ack/Nak takes effect; later calls do nothing.
	Ack(ctx context.Context) error
	// Nak asks the server to redeliver the message. Same no-op and
	// at-most-once rules as Ack.
	Nak(ctx context.Context) error

	// Respond publishes a reply on the message's reply subject. JetStream
	// deliveries return ErrUnsupported.
	Respond(ctx context.Context, data []byte) error
}

// Handler processes a received message. On JetStream paths a nil return acks
// the message and a non-nil return naks it; on core paths the error is only
// logged.
type Handler func(ctx context.Context, msg Message) error

type coreMessage struct {
	msg *nats.Msg

	responded atomic.Bool
}

func newCoreMessage(msg *nats.Msg) *coreMessage {
	return &coreMessage{msg: msg}
}

func (m *coreMessage) Body() []byte         { return m.msg.Data }
func (m *coreMessage) Subject() string      { return m.msg.Subject }
func (m *coreMessage) Headers() nats.Header { return m.msg.Header }

func (m *coreMessage) Sequence() uint64 {
	md, err := m.msg.Metadata()
	if err != nil || md == nil {
		return 0
	}
	return md.Sequence.Stream
}

func (m *coreMessage) Ack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.responded.Swap(true) {
		return nil
	}
	if err := m.msg.Ack(); err != nil && !isAckUnsupported(err) {
		return err
	}
	return nil
}

func (m *coreMessage) Nak(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.responded.Swap(true) {
		return nil
	}
	if err := m.msg.Nak(); err != nil && !isAckUnsupported(err) {
		return err
	}
	return nil
}

func (m *coreMessage) Respond(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.msg.Respond(data)
}

func (m *coreMessage) String() string {
	return fmt.Sprintf("core subject=%q", m.msg.Subject)
}

type streamMessage struct {
	msg jetstream.Msg

	responded atomic.Bool
}

func newStreamMessage(msg jetstream.Msg) *streamMessage {
	return &streamMessage{msg: msg}
}

func (m *streamMessage) Body() []byte         { return m.msg.Data() }
func (m *streamMessage) Subject() string      { return m.msg.Subject() }
func (m *streamMessage) Headers() nats.Header { return m.msg.Headers() }

func (m *streamMessage) Sequence() uint64 {
	md, err := m.msg.Metadata()
	if err != nil || md == nil {
		return 0
	}
	return md.Sequence.Stream
}

func (m *streamMessage) Ack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.responded.Swap(true) {
		return nil
	}
	return m.msg.Ack()
}

func (m *streamMessage) Nak(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.responded.Swap(true) {
		return nil
	}
	return m.msg.Nak()
}

func (m *streamMessage) Respond(context.Context, []byte) error {
	return ErrUnsupported
}

func (m *streamMessage) String() string {
	return fmt.Sprintf("stream subject=%q", m.msg.Subject())
}

func isAckUnsupported(err error) bool {
	return errors.Is(err, nats.ErrMsgNoReply) || errors.Is(err, nats.ErrMsgNotBound)
}
