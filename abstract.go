// Package abstract wraps functions so they can be swapped for substitutes at runtime.
// It routes each call to either the real function or a mock, adapts arguments
// and results on the way through, and lets a Registry flip every wrapper at once.
//
// This is the public API entry point. Implementation lives in internal/core.
package abstract

import (
	"github.com/rs/zerolog"

	"github.com/toejough/abstract/internal/core"
)

// Exported variables.
var (
	// ErrNilCallable is raised when a nil function is given where a callable is required.
	ErrNilCallable = core.ErrNilCallable
)

// Func is a wrapped function of any arity. Its Result may be immediate or deferred.
type Func[A, R any] = core.Func[A, R]

// Async adapts fn so that each call runs it in a new goroutine and returns a deferred Result.
func Async[A, R any](fn func(args ...A) (R, error)) Func[A, R] {
	return core.Async(fn)
}

// Sync adapts fn so that each call runs it in the caller's goroutine and returns an immediate Result.
func Sync[A, R any](fn func(args ...A) (R, error)) Func[A, R] {
	return core.Sync(fn)
}

// Option configures a Registry.
type Option = core.Option

// WithLogger sets the logger used for registration and broadcast events.
func WithLogger(logger zerolog.Logger) Option {
	return core.WithLogger(logger)
}

// Registry toggles mocking across every Switch registered with it.
type Registry = core.Registry

// NewRegistry creates an empty, unmocked Registry.
func NewRegistry(opts ...Option) *Registry {
	return core.NewRegistry(opts...)
}

// Result is the outcome of dispatching a wrapped function, immediate or deferred.
type Result[R any] = core.Result[R]

// Deferred starts compute in its own goroutine and returns a pending Result.
func Deferred[R any](compute func() (R, error)) Result[R] {
	return core.Deferred(compute)
}

// Ready returns an already-settled Result.
func Ready[R any](value R, err error) Result[R] {
	return core.Ready(value, err)
}

// Switch is the part of a Wrapper a Registry drives.
type Switch = core.Switch

// Wrapper switches calls between a real function and a substitute at runtime.
type Wrapper[A, R any] = core.Wrapper[A, R]

// New wraps realFunc. The Wrapper starts unmocked, with realFunc as its substitute.
func New[A, R any](realFunc Func[A, R]) *Wrapper[A, R] {
	return core.New(realFunc)
}
