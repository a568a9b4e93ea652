package natsx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// QueueWorker consumes a subject inside a queue group, so the server load
// balances deliveries across group members.
type QueueWorker struct {
	conn    *Conn
	subject string
	queue   string
}

// NewQueueWorker builds a QueueWorker for subject within the queue group.
func NewQueueWorker(conn *Conn, subject, queue string) *QueueWorker {
	return &QueueWorker{conn: conn, subject: subject, queue: queue}
}

// Run subscribes within the queue group and blocks until ctx is done, then
// drains the subscription. Handler errors and panics are logged.
func (w *QueueWorker) Run(ctx context.Context, handler Handler) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if w.subject == "" {
		return ErrSubjectRequired
	}
	if w.queue == "" {
		return ErrQueueRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}
	if err := w.conn.active(); err != nil {
		return err
	}

	slog.InfoContext(ctx, "starting queue worker", "subject", w.subject, "queue", w.queue)

	sub, err := w.conn.nc.QueueSubscribe(w.subject, w.queue, func(m *nats.Msg) {
		msg := newCoreMessage(m)
		hctx := liftCorrelationID(ctx, msg)
		if herr := callHandler(hctx, "queue", func() error { return handler(hctx, msg) }); herr != nil {
			slog.ErrorContext(hctx, "queue handler failed", "subject", w.subject, "queue", w.queue, "err", herr)
		}
	})
	if err != nil {
		return fmt.Errorf("natsx: queue subscribe: %w", err)
	}

	if err := w.conn.nc.Flush(); err != nil {
		if derr := sub.Drain(); derr != nil {
			return errors.Join(fmt.Errorf("natsx: flush: %w", err), derr)
		}
		return fmt.Errorf("natsx: flush: %w", err)
	}

	slog.InfoContext(ctx, "queue worker listening", "subject", w.subject, "queue", w.queue)

	<-ctx.Done()
	return errors.Join(ctx.Err(), sub.Drain())
}
