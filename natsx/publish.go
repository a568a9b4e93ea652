package natsx

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// Publisher forwards payloads to core NATS subjects.
type Publisher struct {
	conn *Conn
}

// NewPublisher builds a Publisher borrowing conn's handles.
func NewPublisher(conn *Conn) *Publisher {
	return &Publisher{conn: conn}
}

type publishOptions struct {
	header nats.Header
}

// PublishOption configures a single Publish call.
type PublishOption func(*publishOptions)

// WithHeader adds a header to the outgoing message.
func WithHeader(key, value string) PublishOption {
	return func(o *publishOptions) {
		if key == "" {
			return
		}
		if o.header == nil {
			o.header = nats.Header{}
		}
		o.header.Add(key, value)
	}
}

// Publish sends data to subject and flushes the connection.
func (p *Publisher) Publish(ctx context.Context, subject string, data []byte, opts ...PublishOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if subject == "" {
		return ErrSubjectRequired
	}
	if err := p.conn.active(); err != nil {
		return err
	}

	slog.DebugContext(ctx, "publishing event", "subject", subject, "bytes", len(data))

	msg := newPublishMsg(ctx, subject, data, opts...)

	if err := p.conn.nc.PublishMsg(msg); err != nil {
		slog.ErrorContext(ctx, "publish failed", "subject", subject, "err", err)
		return fmt.Errorf("natsx: publish: %w", err)
	}
	if err := p.conn.nc.Flush(); err != nil {
		return fmt.Errorf("natsx: flush: %w", err)
	}

	slog.InfoContext(ctx, "event published", "subject", subject)
	return nil
}

// newPublishMsg builds the outgoing message and stamps the correlation-ID
// header unless the caller already supplied one via WithHeader.
func newPublishMsg(ctx context.Context, subject string, data []byte, opts ...PublishOption) *nats.Msg {
	var po publishOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&po)
		}
	}

	msg := nats.NewMsg(subject)
	msg.Data = data
	for key, values := range po.header {
		for _, v := range values {
			msg.Header.Add(key, v)
		}
	}
	if msg.Header.Get(HeaderCorrelationID) == "" {
		msg.Header.Set(HeaderCorrelationID, correlationID(ctx))
	}
	return msg
}
