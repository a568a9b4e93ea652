package natsx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// Responder serves request/reply traffic on a subject. Replying is the
// handler's job via Message.Respond; the Responder only dispatches and logs.
type Responder struct {
	conn    *Conn
	subject string
}

// NewResponder builds a Responder for subject.
func NewResponder(conn *Conn, subject string) *Responder {
	return &Responder{conn: conn, subject: subject}
}

// Serve subscribes to the subject and blocks until ctx is done, then drains.
// Handler errors are logged and swallowed so one bad request cannot stop the
// responder.
func (r *Responder) Serve(ctx context.Context, handler Handler) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.subject == "" {
		return ErrSubjectRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}
	if err := r.conn.active(); err != nil {
		return err
	}

	slog.InfoContext(ctx, "responder subscribing", "subject", r.subject)

	sub, err := r.conn.nc.Subscribe(r.subject, func(m *nats.Msg) {
		msg := newCoreMessage(m)
		hctx := liftCorrelationID(ctx, msg)
		if herr := callHandler(hctx, "responder", func() error { return handler(hctx, msg) }); herr != nil {
			slog.ErrorContext(hctx, "responder handler failed", "subject", r.subject, "err", herr)
		}
	})
	if err != nil {
		return fmt.Errorf("natsx: responder subscribe: %w", err)
	}

	if err := r.conn.nc.Flush(); err != nil {
		if derr := sub.Drain(); derr != nil {
			return errors.Join(fmt.Errorf("natsx: flush: %w", err), derr)
		}
		return fmt.Errorf("natsx: flush: %w", err)
	}

	slog.InfoContext(ctx, "responder listening", "subject", r.subject)

	<-ctx.Done()
	return errors.Join(ctx.Err(), sub.Drain())
}
