package natsx

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/shandysiswandi/pocketmq/stack"
)

// callHandler invokes fn and converts a panic into an error so a misbehaving
// handler never takes down the consumer goroutine. On JetStream paths the
// returned error becomes a nak, deferring redelivery to the server.
func callHandler(ctx context.Context, kind string, fn func() error) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			raw := debug.Stack()
			frames := stack.Trim(raw, "pocketmq")
			if len(frames) == 0 {
				slog.ErrorContext(ctx, "panic in message handler", "kind", kind, "panic", rvr, "stack", string(raw))
			} else {
				slog.ErrorContext(ctx, "panic in message handler", "kind", kind, "panic", rvr, "stack", frames)
			}
			err = fmt.Errorf("natsx: panic in %s handler: %v", kind, rvr)
		}
	}()

	return fn()
}
