package natsx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go/jetstream"
)

// StreamPublisher submits payloads into a JetStream stream.
type StreamPublisher struct {
	conn    *Conn
	stream  string
	subject string
}

// NewStreamPublisher builds a StreamPublisher for the stream/subject pair.
func NewStreamPublisher(conn *Conn, stream, subject string) *StreamPublisher {
	return &StreamPublisher{conn: conn, stream: stream, subject: subject}
}

// EnsureStream creates the stream if it does not exist yet. An existing
// stream with the same name is treated as success.
func (p *StreamPublisher) EnsureStream(ctx context.Context) error {
	return ensureStream(ctx, p.conn, p.stream, p.subject)
}

// Publish stores data in the stream and returns the assigned stream sequence.
func (p *StreamPublisher) Publish(ctx context.Context, data []byte) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if p.subject == "" {
		return 0, ErrSubjectRequired
	}
	if err := p.conn.active(); err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "submitting to stream", "subject", p.subject)

	ack, err := p.conn.js.PublishMsg(ctx, newPublishMsg(ctx, p.subject, data))
	if err != nil {
		slog.ErrorContext(ctx, "stream publish failed", "subject", p.subject, "err", err)
		return 0, fmt.Errorf("natsx: stream publish: %w", err)
	}

	slog.InfoContext(ctx, "stored in stream", "subject", p.subject, "stream", ack.Stream, "seq", ack.Sequence)
	return ack.Sequence, nil
}

func ensureStream(ctx context.Context, conn *Conn, stream, subject string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if stream == "" {
		return ErrStreamRequired
	}
	if subject == "" {
		return ErrSubjectRequired
	}
	if err := conn.active(); err != nil {
		return err
	}

	slog.InfoContext(ctx, "initializing stream", "stream", stream, "subject", subject)

	_, err := conn.js.CreateStream(ctx, jetstream.StreamConfig{
		Name:     stream,
		Subjects: []string{subject},
	})
	if errors.Is(err, jetstream.ErrStreamNameAlreadyInUse) {
		slog.WarnContext(ctx, "stream already exists", "stream", stream)
		return nil
	}
	if err != nil {
		return fmt.Errorf("natsx: create stream: %w", err)
	}

	slog.InfoContext(ctx, "stream ready", "stream", stream, "subject", subject)
	return nil
}
