package natsx

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

const (
	defaultBatch   = 1
	defaultMaxWait = 5 * time.Second
)

type workerOptions struct {
	batch   int
	maxWait time.Duration
}

// WorkerOption configures a PullWorker.
type WorkerOption func(*workerOptions)

// WithBatch sets how many messages a single fetch asks for. Defaults to 1.
func WithBatch(n int) WorkerOption {
	return func(o *workerOptions) { o.batch = n }
}

// WithMaxWait bounds how long a fetch blocks waiting for messages.
func WithMaxWait(d time.Duration) WorkerOption {
	return func(o *workerOptions) { o.maxWait = d }
}

func newWorkerOptions(opts ...WorkerOption) workerOptions {
	wo := workerOptions{batch: defaultBatch, maxWait: defaultMaxWait}
	for _, opt := range opts {
		if opt != nil {
			opt(&wo)
		}
	}
	if wo.batch < 1 {
		wo.batch = defaultBatch
	}
	if wo.maxWait <= 0 {
		wo.maxWait = defaultMaxWait
	}
	return wo
}

// PullWorker consumes a stream through a named durable consumer that polls
// explicitly for batches.
type PullWorker struct {
	conn    *Conn
	stream  string
	subject string
	durable string
	opts    workerOptions
}

// NewPullWorker builds a PullWorker for the stream/subject pair under the
// given durable name.
func NewPullWorker(conn *Conn, stream, subject, durable string, opts ...WorkerOption) *PullWorker {
	return &PullWorker{
		conn:    conn,
		stream:  stream,
		subject: subject,
		durable: durable,
		opts:    newWorkerOptions(opts...),
	}
}

// EnsureStream creates the worker's stream if it does not exist yet.
func (w *PullWorker) EnsureStream(ctx context.Context) error {
	return ensureStream(ctx, w.conn, w.stream, w.subject)
}

// fetcher is the slice of jetstream.Consumer the fetch loop needs.
type fetcher interface {
	Fetch(batch int, opts ...jetstream.FetchOpt) (jetstream.MessageBatch, error)
}

// Run creates or refreshes the durable consumer and loops: fetch a batch,
// run the handler per message, ack on success, nak on error or panic. An
// empty fetch (max-wait elapsed with no messages) is retried silently.
// Run returns when ctx is cancelled or a fetch fails outright.
func (w *PullWorker) Run(ctx context.Context, handler Handler) error {
	cons, err := w.consumer(ctx, handler)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "pull worker ready", "durable", w.durable, "batch", w.opts.batch)

	return w.fetchLoop(ctx, cons, handler)
}

func (w *PullWorker) fetchLoop(ctx context.Context, cons fetcher, handler Handler) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		batch, err := cons.Fetch(w.opts.batch, jetstream.FetchMaxWait(w.opts.maxWait))
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("natsx: fetch: %w", err)
		}

		var received int
		for msg := range batch.Messages() {
			received++
			dispatchStream(ctx, "pull", handler, msg)
		}
		if err := batch.Error(); err != nil {
			// A batch that errored before delivering anything would spin the
			// loop at full speed; treat it like a failed fetch instead.
			if received == 0 {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return fmt.Errorf("natsx: fetch: %w", err)
			}
			slog.WarnContext(ctx, "fetch ended with error", "durable", w.durable, "err", err)
		}
	}
}

func (w *PullWorker) consumer(ctx context.Context, handler Handler) (jetstream.Consumer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if w.stream == "" {
		return nil, ErrStreamRequired
	}
	if w.durable == "" {
		return nil, ErrDurableRequired
	}
	if handler == nil {
		return nil, ErrHandlerRequired
	}
	if err := w.conn.active(); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "starting worker", "durable", w.durable, "stream", w.stream, "subject", w.subject)

	cons, err := w.conn.js.CreateOrUpdateConsumer(ctx, w.stream, jetstream.ConsumerConfig{
		Durable:       w.durable,
		FilterSubject: w.subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("natsx: create consumer: %w", err)
	}
	return cons, nil
}

// PushWorker consumes a stream through a named durable consumer with
// server-driven delivery, the callback analog of PullWorker.
type PushWorker struct {
	conn    *Conn
	stream  string
	subject string
	durable string
}

// NewPushWorker builds a PushWorker for the stream/subject pair under the
// given durable name.
func NewPushWorker(conn *Conn, stream, subject, durable string) *PushWorker {
	return &PushWorker{conn: conn, stream: stream, subject: subject, durable: durable}
}

// EnsureStream creates the worker's stream if it does not exist yet.
func (w *PushWorker) EnsureStream(ctx context.Context) error {
	return ensureStream(ctx, w.conn, w.stream, w.subject)
}

// Run creates or refreshes the durable consumer, starts callback delivery,
// and blocks until ctx is done, then drains in-flight messages. Per-message
// ack/nak rules are the same as PullWorker's.
func (w *PushWorker) Run(ctx context.Context, handler Handler) error {
	pw := PullWorker{conn: w.conn, stream: w.stream, subject: w.subject, durable: w.durable}
	cons, err := pw.consumer(ctx, handler)
	if err != nil {
		return err
	}

	cc, err := cons.Consume(func(msg jetstream.Msg) {
		dispatchStream(ctx, "push", handler, msg)
	})
	if err != nil {
		return fmt.Errorf("natsx: consume: %w", err)
	}

	slog.InfoContext(ctx, "worker listening", "durable", w.durable, "subject", w.subject)

	<-ctx.Done()
	cc.Drain()
	return ctx.Err()
}

func dispatchStream(ctx context.Context, kind string, handler Handler, jmsg jetstream.Msg) {
	msg := newStreamMessage(jmsg)
	ctx = liftCorrelationID(ctx, msg)

	slog.InfoContext(ctx, "got task", "kind", kind, "seq", msg.Sequence())

	if err := callHandler(ctx, kind, func() error { return handler(ctx, msg) }); err != nil {
		slog.ErrorContext(ctx, "task failed", "kind", kind, "seq", msg.Sequence(), "err", err)
		if nerr := msg.Nak(ctx); nerr != nil {
			slog.ErrorContext(ctx, "nak failed", "kind", kind, "seq", msg.Sequence(), "err", nerr)
		}
		return
	}

	if err := msg.Ack(ctx); err != nil {
		slog.ErrorContext(ctx, "ack failed", "kind", kind, "seq", msg.Sequence(), "err", err)
		return
	}

	slog.InfoContext(ctx, "task acked", "kind", kind, "seq", msg.Sequence())
}
