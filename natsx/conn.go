package natsx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/sethvargo/go-retry"
)

const (
	// DefaultRequestTimeout is applied to Request when the context has no deadline.
	DefaultRequestTimeout = 1 * time.Second

	defaultConnectBackoff = 200 * time.Millisecond
	maxConnectBackoff     = 5 * time.Second
)

// Config configures Dial.
type Config struct {
	// URL is the NATS server address, e.g. "nats://127.0.0.1:4222".
	URL string

	// Name is an optional client name reported to the server.
	Name string

	// Options are passed through to the NATS client.
	Options []nats.Option

	// ConnectAttempts enables retrying the initial connect that many times.
	// Zero means a single attempt.
	ConnectAttempts uint64

	// ConnectBackoff is the base backoff between connect attempts.
	ConnectBackoff time.Duration
}

// Settings is the subset of a configuration store Dial can read from.
// *config.Viper satisfies it.
type Settings interface {
	String(key string) string
	Int(key string) int
	Second(key string) time.Duration
}

// FromSettings builds a Config from well-known configuration keys:
// nats.url, nats.name, nats.connect_attempts, nats.connect_backoff (seconds).
func FromSettings(s Settings) Config {
	attempts := s.Int("nats.connect_attempts")
	if attempts < 0 {
		attempts = 0
	}

	return Config{
		URL:             s.String("nats.url"),
		Name:            s.String("nats.name"),
		ConnectAttempts: uint64(attempts),
		ConnectBackoff:  s.Second("nats.connect_backoff"),
	}
}

// Conn owns an established NATS connection and its JetStream handle.
//
// All other natsx types borrow these handles; closing the Conn invalidates
// every object built on top of it.
type Conn struct {
	url string
	nc  *nats.Conn
	js  jetstream.JetStream

	mu     sync.Mutex
	subs   []*nats.Subscription
	closed bool
}

// Dial connects to a NATS server and prepares the JetStream handle.
//
// When cfg.ConnectAttempts is set, the initial connect is retried with a
// capped Fibonacci backoff. Anything beyond the first connect (reconnects,
// ping intervals, buffering) stays with the NATS client and its Options.
func Dial(ctx context.Context, cfg Config) (*Conn, error) {
	if cfg.URL == "" {
		return nil, ErrURLRequired
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := cfg.Options
	if cfg.Name != "" {
		opts = append([]nats.Option{nats.Name(cfg.Name)}, opts...)
	}

	slog.InfoContext(ctx, "connecting to nats", "url", cfg.URL)

	nc, err := dial(ctx, cfg, opts)
	if err != nil {
		return nil, err
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("natsx: jetstream: %w", err)
	}

	slog.InfoContext(ctx, "nats connected, jetstream ready", "url", cfg.URL)

	return &Conn{url: cfg.URL, nc: nc, js: js}, nil
}

func dial(ctx context.Context, cfg Config, opts []nats.Option) (*nats.Conn, error) {
	if cfg.ConnectAttempts == 0 {
		nc, err := nats.Connect(cfg.URL, opts...)
		if err != nil {
			return nil, fmt.Errorf("natsx: connect: %w", err)
		}
		return nc, nil
	}

	base := cfg.ConnectBackoff
	if base <= 0 {
		base = defaultConnectBackoff
	}
	backoff := retry.WithMaxRetries(cfg.ConnectAttempts,
		retry.WithCappedDuration(maxConnectBackoff, retry.NewFibonacci(base)))

	var nc *nats.Conn
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		c, cerr := nats.Connect(cfg.URL, opts...)
		if cerr != nil {
			slog.WarnContext(ctx, "nats connect failed, retrying", "url", cfg.URL, "err", cerr)
			return retry.RetryableError(cerr)
		}
		nc = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("natsx: connect: %w", err)
	}
	return nc, nil
}

// Close drains tracked subscriptions, then drains and closes the connection.
// It is safe to call more than once.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	subs := append([]*nats.Subscription{}, c.subs...)
	c.mu.Unlock()

	slog.Info("draining nats connection", "url", c.url)

	var closeErr error
	for _, sub := range subs {
		if err := sub.Drain(); err != nil {
			closeErr = errors.Join(closeErr, err)
		}
	}

	if err := c.nc.Drain(); err != nil {
		closeErr = errors.Join(closeErr, err)
	}
	c.nc.Close()

	slog.Info("nats connection closed", "url", c.url)
	return closeErr
}

// Request performs a blocking request/reply call and returns the reply payload.
//
// If ctx carries no deadline, DefaultRequestTimeout is applied.
func (c *Conn) Request(ctx context.Context, subject string, data []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if subject == "" {
		return nil, ErrSubjectRequired
	}
	if err := c.active(); err != nil {
		return nil, err
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultRequestTimeout)
		defer cancel()
	}

	slog.InfoContext(ctx, "sending request", "subject", subject)

	msg, err := c.nc.RequestWithContext(ctx, subject, data)
	if err != nil {
		slog.ErrorContext(ctx, "request failed", "subject", subject, "err", err)
		return nil, fmt.Errorf("natsx: request: %w", err)
	}

	slog.InfoContext(ctx, "received reply", "subject", subject)
	return msg.Data, nil
}

func (c *Conn) active() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return io.ErrClosedPipe
	}
	return nil
}

func (c *Conn) track(sub *nats.Subscription) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return io.ErrClosedPipe
	}
	c.subs = append(c.subs, sub)
	return nil
}
