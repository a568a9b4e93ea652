package natsx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// Subscriber registers callbacks on core NATS subjects.
type Subscriber struct {
	conn *Conn
}

// NewSubscriber builds a Subscriber borrowing conn's handles.
func NewSubscriber(conn *Conn) *Subscriber {
	return &Subscriber{conn: conn}
}

// Subscribe registers handler for subject and returns once the subscription
// is flushed to the server. The subscription lives until the Conn is closed.
//
// Handler errors and panics are logged; core NATS has no redelivery to
// trigger, so there is nothing else to do with them.
func (s *Subscriber) Subscribe(ctx context.Context, subject string, handler Handler) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if subject == "" {
		return ErrSubjectRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}
	if err := s.conn.active(); err != nil {
		return err
	}

	slog.InfoContext(ctx, "subscribing", "subject", subject)

	sub, err := s.conn.nc.Subscribe(subject, func(m *nats.Msg) {
		msg := newCoreMessage(m)
		hctx := liftCorrelationID(ctx, msg)
		if herr := callHandler(hctx, "subscribe", func() error { return handler(hctx, msg) }); herr != nil {
			slog.ErrorContext(hctx, "subscribe handler failed", "subject", subject, "err", herr)
		}
	})
	if err != nil {
		return fmt.Errorf("natsx: subscribe: %w", err)
	}

	if err := s.conn.track(sub); err != nil {
		if derr := sub.Drain(); derr != nil {
			return errors.Join(err, derr)
		}
		return err
	}

	if err := s.conn.nc.Flush(); err != nil {
		return fmt.Errorf("natsx: flush: %w", err)
	}

	slog.InfoContext(ctx, "listening", "subject", subject)
	return nil
}
