package core

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/rs/zerolog"
)

// Option configures a Registry.
type Option func(*Registry)

// Registry toggles mocking across every Switch registered with it.
// Registrations are permanent.
//
// Register, MockAll and UnmockAll are serialized. A Switch must not call back
// into the same Registry while it is being toggled.
type Registry struct {
	mu        sync.Mutex
	instances []Switch
	mocking   bool
	logger    zerolog.Logger
}

// NewRegistry creates an empty, unmocked Registry.
func NewRegistry(opts ...Option) *Registry {
	registry := &Registry{logger: zerolog.Nop()}

	for _, opt := range opts {
		opt(registry)
	}

	return registry
}

// IsMocking reports the state the Registry last broadcast.
func (r *Registry) IsMocking() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.mocking
}

// Len returns the number of registered switches.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.instances)
}

// MockAll puts the Registry in the mocking state and mocks every registered
// Switch, in registration order.
func (r *Registry) MockAll() {
	r.broadcast(true)
}

// Register adds s and immediately syncs it to the Registry's state. This
// always calls s.SetMocking, so an unmocked Registry fires the wrapper's
// unmock hook on registration.
func (r *Registry) Register(s Switch) {
	if isNil(s) {
		panic(fmt.Errorf("%w: switch", ErrNilCallable))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.instances = append(r.instances, s)

	r.logger.Debug().
		Int("index", len(r.instances)-1).
		Stringer("switch", describe(s)).
		Bool("mocking", r.mocking).
		Msg("registered")

	s.SetMocking(r.mocking)
}

// UnmockAll takes the Registry out of the mocking state and unmocks every
// registered Switch, in registration order.
//
// A panicking unmock hook aborts the broadcast: the Registry state is already
// updated, and the switches after it are left untouched.
func (r *Registry) UnmockAll() {
	r.broadcast(false)
}

func (r *Registry) broadcast(mocking bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.mocking = mocking

	r.logger.Debug().
		Bool("mocking", mocking).
		Int("count", len(r.instances)).
		Msg("broadcast")

	for _, s := range r.instances {
		s.SetMocking(mocking)
	}
}

// Switch is the part of a Wrapper a Registry drives.
// *Wrapper implements it for any type parameters.
type Switch interface {
	SetMocking(mocking bool)
}

// WithLogger sets the logger used for registration and broadcast events.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// isNil reports whether s is nil or holds a nil pointer, map, func, chan or slice.
func isNil(s Switch) bool {
	if s == nil {
		return true
	}

	v := reflect.ValueOf(s)

	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Func, reflect.Chan, reflect.Slice, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}

// describe returns s as a Stringer for logging, falling back to its type.
func describe(s Switch) fmt.Stringer {
	if stringer, ok := s.(fmt.Stringer); ok {
		return stringer
	}

	return typeName{s}
}

type typeName struct {
	value any
}

func (t typeName) String() string {
	return fmt.Sprintf("%T", t.value)
}
