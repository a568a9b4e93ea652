// Package timing wraps function execution to log start, elapsed duration,
// and failures, without altering results or error propagation.
package timing

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Recorder receives elapsed durations, keyed by the tracked name. Wire one
// up (for example observe.LatencyRecorder) to export timings as metrics.
type Recorder func(name string, elapsed time.Duration)

var recorder atomic.Value // Recorder

// SetRecorder installs a process-wide Recorder. Passing nil removes it.
func SetRecorder(r Recorder) {
	recorder.Store(r)
}

func record(name string, elapsed time.Duration) {
	if r, ok := recorder.Load().(Recorder); ok && r != nil {
		r(name, elapsed)
	}
}

// Track logs the start of name and returns a func to defer; the deferred
// call logs the elapsed duration and feeds the Recorder.
//
//	defer timing.Track(ctx, "rebuild index")()
func Track(ctx context.Context, name string) func() {
	slog.InfoContext(ctx, "starting", "func", name)
	start := time.Now()

	return func() {
		elapsed := time.Since(start)
		record(name, elapsed)
		if rvr := recover(); rvr != nil {
			slog.ErrorContext(ctx, "panicked", "func", name, "took", elapsed, "panic", rvr)
			panic(rvr)
		}
		slog.InfoContext(ctx, "finished", "func", name, "took", elapsed)
	}
}

// Do runs fn under timing. The error is returned unchanged; a failure is
// logged together with the elapsed duration.
func Do(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	_, err := Observe(ctx, name, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Observe runs fn under timing and returns its result unchanged.
func Observe[T any](ctx context.Context, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	slog.InfoContext(ctx, "starting", "func", name)
	start := time.Now()

	defer func() {
		if rvr := recover(); rvr != nil {
			elapsed := time.Since(start)
			record(name, elapsed)
			slog.ErrorContext(ctx, "panicked", "func", name, "took", elapsed, "panic", rvr)
			panic(rvr)
		}
	}()

	result, err := fn(ctx)

	elapsed := time.Since(start)
	record(name, elapsed)

	if err != nil {
		slog.ErrorContext(ctx, "failed", "func", name, "took", elapsed, "err", err)
		return result, err
	}

	slog.InfoContext(ctx, "finished", "func", name, "took", elapsed)
	return result, nil
}
