// Package asynctask is the host task runtime corosched drives: a minimal
// start/yield/resume/complete machine backing the "asynchronous task
// machinery" spec.md treats as an external collaborator.
//
// A Func runs on its own goroutine from the moment Start is called. The
// calling goroutine blocks only for the Func's current synchronous region —
// from Start (or from a resumed Yielder.Await) until the Func next calls
// Await or returns. That makes Start, and every resumption driven through a
// ContinuationRouter, synchronous from the driver's point of view, the same
// way invoking an async method runs its body up to the first await inline.
package asynctask

import (
	"context"
	"fmt"
)

// ContinuationRouter re-enters a suspended Func's continuation. Whoever
// installs a router into a context (via WithContinuationRouter) controls
// where and when resumed work runs; corosched installs one bound to the
// owning Scheduler so every resumption flows back through its run loop.
type ContinuationRouter interface {
	Post(fn func())
}

type routerKey struct{}

// WithContinuationRouter attaches a ContinuationRouter to ctx. Func values
// started with the returned context resume through router instead of
// running their continuation inline.
func WithContinuationRouter(ctx context.Context, router ContinuationRouter) context.Context {
	return context.WithValue(ctx, routerKey{}, router)
}

// inlineRouter is used when no ContinuationRouter is installed in the
// context. It still must hand resumption to a goroutine distinct from the
// Func's own: Await's handshake relies on a driver goroutine other than
// the one suspended in Await to grant the resume permit.
type inlineRouter struct{}

func (inlineRouter) Post(fn func()) { go fn() }

func routerFromContext(ctx context.Context) ContinuationRouter {
	if r, ok := ctx.Value(routerKey{}).(ContinuationRouter); ok && r != nil {
		return r
	}
	return inlineRouter{}
}

// Yielder is the suspension primitive handed to a running Func.
type Yielder interface {
	// Await blocks the Func's goroutine until wake fires, then re-enters
	// through the ambient ContinuationRouter before returning control to
	// the Func. Pass a context's Done() channel to let cancellation wake
	// the Func without a dedicated signal.
	Await(wake <-chan struct{})
}

// Func is user-provided asynchronous work.
type Func func(ctx context.Context, y Yielder) error

// Future is the handle returned by Start.
type Future struct {
	turn   chan bool // Func goroutine -> driver: true once Func has returned
	resume chan struct{}
	done   chan struct{}
	err    error
}

// Done returns a channel closed once the Func has returned or panicked.
func (f *Future) Done() <-chan struct{} { return f.done }

// Err returns the Func's result. Only meaningful once Done is closed.
func (f *Future) Err() error { return f.err }

type yielder struct {
	future *Future
	router ContinuationRouter
}

func (y *yielder) Await(wake <-chan struct{}) {
	// Hand the driver back control: our synchronous region just ended.
	y.future.turn <- false
	<-wake

	// Re-enter through the router. The posted closure plays the driver
	// role for the Func's next synchronous region: it grants permission
	// to continue, then blocks until the Func suspends again or returns.
	y.router.Post(func() {
		y.future.resume <- struct{}{}
		<-y.future.turn
	})
	<-y.future.resume
}

// Start begins running fn on its own goroutine and blocks until fn either
// returns or reaches its first Await, mirroring how invoking an async
// function runs synchronously up to its first suspension point.
func Start(ctx context.Context, fn Func) *Future {
	f := &Future{
		turn:   make(chan bool),
		resume: make(chan struct{}),
		done:   make(chan struct{}),
	}
	router := routerFromContext(ctx)
	y := &yielder{future: f, router: router}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				f.err = fmt.Errorf("asynctask: panic: %v", r)
			}
			close(f.done)
			f.turn <- true
		}()
		f.err = fn(ctx, y)
	}()

	<-f.turn
	return f
}
