// Package task runs a function on a fixed cadence in a background goroutine
// and hands back a handle that stops it deterministically.
package task

import (
	"context"
	"sync"
	"time"
)

// Func is one tick of work. Returning done=true ends the task; a non-nil err
// counts as a failure for backoff purposes and the task keeps running.
type Func func(ctx context.Context) (done bool, err error)

// Options control scheduling.
type Options struct {
	Interval time.Duration
	// Immediate runs the first tick right away instead of after Interval.
	Immediate bool
	// Backoff returns the delay after the given number of consecutive
	// failures. Nil means always wait Interval.
	Backoff func(failures int) time.Duration
	// OnError is called with every tick error.
	OnError func(err error)
}

const defaultInterval = 2 * time.Second

// Handle controls a running task.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Start launches fn. The task ends when ctx is cancelled, fn reports done, or
// Stop is called.
func Start(ctx context.Context, opts Options, fn Func) *Handle {
	interval := opts.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(h.done)
		defer cancel()

		failures := 0
		wait := interval
		if opts.Immediate {
			wait = 0
		}
		timer := time.NewTimer(wait)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}

			finished, err := fn(ctx)
			if finished || ctx.Err() != nil {
				return
			}
			if err != nil {
				failures++
				if opts.OnError != nil {
					opts.OnError(err)
				}
			} else {
				failures = 0
			}

			wait = interval
			if opts.Backoff != nil && failures > 0 {
				wait = opts.Backoff(failures)
			}
			timer.Reset(wait)
		}
	}()
	return h
}

// Stop cancels the task and waits for its goroutine to exit. It is safe to
// call more than once and on a nil handle. Stop must not be called from
// inside the task's own Func; return done=true there instead.
func (h *Handle) Stop() {
	if h == nil {
		return
	}
	h.once.Do(h.cancel)
	<-h.done
}

// Done is closed once the task goroutine has exited.
func (h *Handle) Done() <-chan struct{} {
	if h == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return h.done
}

// Running reports whether the task goroutine is still alive.
func (h *Handle) Running() bool {
	if h == nil {
		return false
	}
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}
