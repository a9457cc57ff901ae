package service

import (
	"context"

	"github.com/gregjan/trellis/internal/apperr"
)

// Future is a non-blocking handle on a single asynchronous result, matching
// spec.md §5's "every operation suspends at backend I/O boundaries; callers
// may run it as a task with a future or channel" guidance. It does not
// replace the blocking ResourceService methods — it wraps them for callers
// that want to fan out several operations without blocking on each in turn.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Async runs fn on its own goroutine and returns a Future observing its
// result. If ctx is cancelled before fn completes, Wait returns
// apperr.Cancelled immediately; fn's goroutine still runs to completion in
// the background (per §5, the caller's documented recourse on an unknown
// outcome is to re-read state with Get, not to assume fn stopped).
func Async[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.val, f.err = fn(ctx)
	}()
	return f
}

// Wait blocks until the wrapped call completes or ctx is cancelled,
// whichever comes first.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, apperr.NewCancelled("future wait cancelled")
	}
}

// Done reports whether the wrapped call has completed, without blocking.
func (f *Future[T]) Done() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}
