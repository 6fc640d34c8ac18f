package core

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Exported variables.
var (
	// ErrNilCallable is raised when a nil function is given where a callable is required.
	ErrNilCallable = errors.New("nil callable")
)

// Func is a wrapped function of any arity. Its Result may be immediate or deferred.
type Func[A, R any] func(args ...A) Result[R]

// Async adapts fn so that each call runs it in a new goroutine and returns a deferred Result.
func Async[A, R any](fn func(args ...A) (R, error)) Func[A, R] {
	if fn == nil {
		panic(fmt.Errorf("%w: async function", ErrNilCallable))
	}

	return func(args ...A) Result[R] {
		args = slices.Clone(args)

		return Deferred(func() (R, error) {
			return fn(args...)
		})
	}
}

// Sync adapts fn so that each call runs it in the caller's goroutine and returns an immediate Result.
func Sync[A, R any](fn func(args ...A) (R, error)) Func[A, R] {
	if fn == nil {
		panic(fmt.Errorf("%w: sync function", ErrNilCallable))
	}

	return func(args ...A) Result[R] {
		return Ready[R](fn(args...))
	}
}

// Wrapper switches calls between a real function and a substitute at runtime.
//
// Configuration methods return the same Wrapper so they can be chained:
//
//	getPerson := core.New(core.Sync(fetchPerson)).
//		SetMock(core.Sync(fakePerson)).
//		Mock()
//
// Exec and GenerateMock are the only methods that produce a value.
type Wrapper[A, R any] struct {
	real Func[A, R]
	id   string

	mu              sync.Mutex
	name            string
	substitute      Func[A, R]
	mocking         bool
	inputTransform  func(A) (A, error)
	outputTransform func(R) (R, error)
	onUnmock        func()
	mockGenerator   func(args ...A) R
}

// New wraps real. The Wrapper starts unmocked, with real as its substitute.
func New[A, R any](realFunc Func[A, R]) *Wrapper[A, R] {
	if realFunc == nil {
		panic(fmt.Errorf("%w: real function", ErrNilCallable))
	}

	return &Wrapper[A, R]{
		real:       realFunc,
		id:         uuid.NewString(),
		substitute: realFunc,
	}
}

// CreateMockGenerator sets the factory used by GenerateMock. Nil restores the
// default, which returns the zero value of R.
func (w *Wrapper[A, R]) CreateMockGenerator(generator func(args ...A) R) *Wrapper[A, R] {
	w.mu.Lock()
	w.mockGenerator = generator
	w.mu.Unlock()

	return w
}

// Exec calls the substitute while mocking, and the real function otherwise.
//
// Each argument goes through the input transform first, in order; the first
// transform error is returned without dispatching. The output transform is
// applied to the dispatch result, after it settles if it is deferred.
// Errors are returned as-is. State changes made while a deferred call is
// in flight only affect later calls.
func (w *Wrapper[A, R]) Exec(args ...A) Result[R] {
	w.mu.Lock()
	target := w.real

	if w.mocking {
		target = w.substitute
	}

	inputTransform := w.inputTransform
	outputTransform := w.outputTransform
	w.mu.Unlock()

	// The call owns its arguments from here on; the caller may reuse its slice.
	args = slices.Clone(args)

	if inputTransform != nil {
		for i, arg := range args {
			next, err := inputTransform(arg)
			if err != nil {
				var zero R

				return Ready(zero, err)
			}

			args[i] = next
		}
	}

	return target(args...).Then(outputTransform)
}

// GenerateMock returns the mock generator's output for args. It never
// dispatches, never transforms, and ignores the mocking state.
func (w *Wrapper[A, R]) GenerateMock(args ...A) R {
	w.mu.Lock()
	generator := w.mockGenerator
	w.mu.Unlock()

	if generator == nil {
		var zero R

		return zero
	}

	return generator(args...)
}

// ID returns the identifier assigned to the Wrapper at creation.
func (w *Wrapper[A, R]) ID() string {
	return w.id
}

// IsMocking reports whether Exec currently dispatches to the substitute.
func (w *Wrapper[A, R]) IsMocking() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.mocking
}

// Mock switches dispatch to the substitute.
func (w *Wrapper[A, R]) Mock() *Wrapper[A, R] {
	w.mu.Lock()
	w.mocking = true
	w.mu.Unlock()

	return w
}

// Named attaches a human-readable name, used by String.
func (w *Wrapper[A, R]) Named(name string) *Wrapper[A, R] {
	w.mu.Lock()
	w.name = name
	w.mu.Unlock()

	return w
}

// SetMock replaces the substitute. It takes effect on the next Exec, and does
// not change the mocking state. Nil restores the real function as substitute.
func (w *Wrapper[A, R]) SetMock(substitute Func[A, R]) *Wrapper[A, R] {
	if substitute == nil {
		substitute = w.real
	}

	w.mu.Lock()
	w.substitute = substitute
	w.mu.Unlock()

	return w
}

// SetMocking calls Mock when mocking is true and Unmock otherwise.
// It lets a Registry drive wrappers of any type.
func (w *Wrapper[A, R]) SetMocking(mocking bool) {
	if mocking {
		w.Mock()

		return
	}

	w.Unmock()
}

// SetUnmock replaces the hook run by Unmock. Nil removes it.
func (w *Wrapper[A, R]) SetUnmock(hook func()) *Wrapper[A, R] {
	w.mu.Lock()
	w.onUnmock = hook
	w.mu.Unlock()

	return w
}

// String identifies the Wrapper in logs and failure messages.
func (w *Wrapper[A, R]) String() string {
	w.mu.Lock()
	name := w.name
	w.mu.Unlock()

	if name == "" {
		return "wrapper " + w.id
	}

	return fmt.Sprintf("wrapper %q (%s)", name, w.id)
}

// TransformInput replaces the transform applied to each argument of Exec.
// It does not compose with a previous transform. Nil restores the identity.
func (w *Wrapper[A, R]) TransformInput(transform func(A) (A, error)) *Wrapper[A, R] {
	w.mu.Lock()
	w.inputTransform = transform
	w.mu.Unlock()

	return w
}

// TransformOutput replaces the transform applied to the result of Exec.
// It does not compose with a previous transform. Nil restores the identity.
func (w *Wrapper[A, R]) TransformOutput(transform func(R) (R, error)) *Wrapper[A, R] {
	w.mu.Lock()
	w.outputTransform = transform
	w.mu.Unlock()

	return w
}

// Unmock switches dispatch back to the real function, then runs the unmock
// hook. The hook runs on every call, even if the Wrapper was not mocking.
// A panic in the hook propagates to the caller.
func (w *Wrapper[A, R]) Unmock() *Wrapper[A, R] {
	w.mu.Lock()
	w.mocking = false
	hook := w.onUnmock
	w.mu.Unlock()

	if hook != nil {
		hook()
	}

	return w
}
