// Package routine runs blocking functions (worker loops, responders) in
// supervised goroutines with a concurrency bound, panic recovery, and error
// collection.
package routine

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/shandysiswandi/pocketmq/stack"
)

// DefaultLimit is used when NewGroup receives a non-positive limit.
const DefaultLimit = 100

// Group runs named functions in goroutines, at most limit at a time.
//
// Errors returned by tasks are collected and surfaced by Wait. A panicking
// task is logged with a filtered stack and does not affect its siblings.
type Group struct {
	wg   sync.WaitGroup
	sema chan struct{}

	mu   sync.Mutex
	errs []error

	stateMu sync.RWMutex
	closed  bool
}

// NewGroup creates a Group with the provided concurrency limit.
func NewGroup(limit int) *Group {
	if limit < 1 {
		limit = runtime.NumCPU() * DefaultLimit
	}
	return &Group{sema: make(chan struct{}, limit)}
}

// Go schedules fn under the given name, blocking until a slot frees up or
// ctx is cancelled. Calls after Wait are ignored with a warning.
func (g *Group) Go(ctx context.Context, name string, fn func(ctx context.Context) error) {
	if g == nil {
		return
	}

	select {
	case g.sema <- struct{}{}:
	case <-ctx.Done():
		slog.WarnContext(ctx, "routine not started, context done", "task", name, "because", ctx.Err())
		return
	}

	// The closed re-check and the counter bump share stateMu so no task can
	// slip past a Wait that is already draining the group.
	g.stateMu.RLock()
	if g.closed {
		g.stateMu.RUnlock()
		<-g.sema
		slog.WarnContext(ctx, "routine group already waited on, skipping task", "task", name)
		return
	}
	g.wg.Add(1)
	g.stateMu.RUnlock()

	go func() {
		defer g.wg.Done()
		defer func() {
			<-g.sema

			if rvr := recover(); rvr != nil {
				raw := debug.Stack()
				frames := stack.Trim(raw, "pocketmq")
				if len(frames) == 0 {
					slog.ErrorContext(ctx, "panic in routine", "task", name, "panic", rvr, "stack", string(raw))
				} else {
					slog.ErrorContext(ctx, "panic in routine", "task", name, "panic", rvr, "stack", frames)
				}
			}
		}()

		if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
			g.mu.Lock()
			g.errs = append(g.errs, err)
			g.mu.Unlock()
		}
	}()
}

// Wait blocks until every scheduled task finishes and returns the collected
// errors joined together.
func (g *Group) Wait() error {
	if g == nil {
		return nil
	}

	g.stateMu.Lock()
	g.closed = true
	g.stateMu.Unlock()

	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	return errors.Join(g.errs...)
}
