package core

import (
	"context"
	"fmt"
)

// Result is the outcome of dispatching a wrapped function.
// It is either immediate (built with Ready) or deferred (built with Deferred),
// and both kinds are consumed the same way through Await, Get, or Then.
type Result[R any] struct {
	value   R
	err     error
	pending *future[R]
}

// Deferred starts compute in its own goroutine and returns a pending Result
// that settles when compute returns. A panic inside compute is captured and
// re-raised in whichever goroutine awaits the Result.
func Deferred[R any](compute func() (R, error)) Result[R] {
	if compute == nil {
		panic(fmt.Errorf("%w: deferred computation", ErrNilCallable))
	}

	fut := newFuture[R]()

	go fut.run(compute)

	return Result[R]{pending: fut}
}

// Ready returns an already-settled Result.
func Ready[R any](value R, err error) Result[R] {
	return Result[R]{value: value, err: err}
}

// Await waits for the Result to settle and returns its value and error.
// If ctx ends first, Await returns ctx.Err(); the underlying computation keeps running.
func (r Result[R]) Await(ctx context.Context) (R, error) {
	if r.pending == nil {
		return r.value, r.err
	}

	select {
	case <-r.pending.done:
		return r.pending.settled()
	case <-ctx.Done():
		var zero R

		return zero, ctx.Err()
	}
}

// Done returns a channel that is closed once the Result has settled.
// For an immediate Result the channel is already closed.
func (r Result[R]) Done() <-chan struct{} {
	if r.pending == nil {
		return closedChan
	}

	return r.pending.done
}

// Get waits for the Result without a deadline.
func (r Result[R]) Get() (R, error) {
	return r.Await(context.Background())
}

// IsPending reports whether the Result was produced by a deferred computation,
// whether or not that computation has finished.
func (r Result[R]) IsPending() bool {
	return r.pending != nil
}

// Outcome waits for the Result and returns its value boxed as any,
// for callers that handle results of any type.
func (r Result[R]) Outcome() (any, error) {
	return r.Get()
}

// Then continues the Result with next. An immediate Result is continued
// synchronously; a deferred one gets a continuation that runs once it settles.
// next is skipped when the Result carries an error, which passes through unchanged.
func (r Result[R]) Then(next func(R) (R, error)) Result[R] {
	if next == nil {
		return r
	}

	if r.pending == nil {
		if r.err != nil {
			return r
		}

		return Ready[R](next(r.value))
	}

	parent := r.pending

	return Deferred(func() (R, error) {
		<-parent.done

		value, err := parent.settled()
		if err != nil {
			return value, err
		}

		return next(value)
	})
}

// unexported variables.
var (
	//nolint:gochecknoglobals // shared closed channel for settled results
	closedChan = func() chan struct{} {
		ch := make(chan struct{})
		close(ch)

		return ch
	}()
)

// future holds the eventual outcome of a deferred computation.
// Fields other than done are written once, before done is closed.
type future[R any] struct {
	done     chan struct{}
	value    R
	err      error
	panicked bool
	panicVal any
}

func newFuture[R any]() *future[R] {
	return &future[R]{done: make(chan struct{})}
}

func (f *future[R]) run(compute func() (R, error)) {
	defer close(f.done)

	defer func() {
		if p := recover(); p != nil {
			f.panicked = true
			f.panicVal = p
		}
	}()

	f.value, f.err = compute()
}

// settled must only be called after done is closed.
func (f *future[R]) settled() (R, error) {
	if f.panicked {
		panic(f.panicVal)
	}

	return f.value, f.err
}
