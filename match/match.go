// Package match provides matchers for wrapped-function results and mocking state.
// The matchers plug into gomega assertions:
//
//	import (
//	    . "github.com/onsi/gomega"
//	    "github.com/toejough/abstract/match"
//	)
//
//	g.Expect(getPerson.Exec("1")).To(match.ResolveTo(HaveField("Name", "Charlie")))
//	g.Expect(getPerson).To(match.BeMocking())
package match

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/onsi/gomega/format"
	"github.com/onsi/gomega/types"
)

// Matcher defines the interface for flexible value matching.
// Compatible with gomega.GomegaMatcher via duck typing - any type
// implementing Match and FailureMessage will work.
type Matcher interface {
	Match(actual any) (success bool, err error)
	FailureMessage(actual any) string
}

// BeAny is a matcher that matches any value.
// Useful when you don't care about a particular resolved value.
//
//nolint:gochecknoglobals // Intentional exported constant-like value
var BeAny Matcher = anyMatcher{}

// BeMocking succeeds when actual reports that it is currently mocking,
// as a Wrapper or Registry does.
func BeMocking() types.GomegaMatcher {
	return mockingMatcher{}
}

// FailWith succeeds when actual is a Result that settles with an error.
// expected may be an error, compared with errors.Is, or a Matcher applied to the error.
func FailWith(expected any) types.GomegaMatcher {
	return &failMatcher{expected: expected}
}

// ResolveTo succeeds when actual is a Result that settles without error to a
// value matching expected. expected may be a Matcher; otherwise values are
// compared with reflect.DeepEqual. Deferred results are awaited.
func ResolveTo(expected any) types.GomegaMatcher {
	return &resolveMatcher{expected: expected}
}

// Satisfy returns a matcher that uses a predicate function to check for a match.
// The predicate should return nil if the value matches, or an error describing
// the mismatch if it does not.
//
// Example:
//
//	g.Expect(result).To(match.ResolveTo(match.Satisfy(func(p Person) error {
//	    if p.ID == "" { return errors.New("expected an id") }
//	    return nil
//	})))
func Satisfy[T any](predicate func(T) error) Matcher {
	return &satisfyMatcher[T]{predicate: predicate}
}

// unexported variables.
var (
	errNotMockable  = errors.New("not a mockable value")
	errNotResult    = errors.New("not a result")
	errTypeMismatch = errors.New("type mismatch")
)

// anyMatcher is the implementation of the BeAny matcher.
type anyMatcher struct{}

// FailureMessage returns an empty string since BeAny always matches.
func (anyMatcher) FailureMessage(any) string {
	return ""
}

// Match always returns true - matches any value.
func (anyMatcher) Match(any) (bool, error) {
	return true, nil
}

type failMatcher struct {
	expected any
	err      error
	detail   string
}

func (m *failMatcher) FailureMessage(actual any) string {
	if m.err == nil {
		return format.Message(actual, "to fail with", m.expected)
	}

	if m.detail != "" {
		return fmt.Sprintf("error %v does not match: %s", m.err, m.detail)
	}

	return format.Message(m.err, "to match", m.expected)
}

func (m *failMatcher) Match(actual any) (bool, error) {
	res, ok := actual.(outcomer)
	if !ok {
		return false, fmt.Errorf("%w: %T", errNotResult, actual)
	}

	_, err := res.Outcome()
	m.err = err

	if err == nil {
		return false, nil
	}

	if expectedErr, ok := m.expected.(error); ok {
		return errors.Is(err, expectedErr), nil
	}

	matched, detail := matchValue(err, m.expected)
	m.detail = detail

	return matched, nil
}

func (m *failMatcher) NegatedFailureMessage(actual any) string {
	return format.Message(actual, "not to fail with", m.expected)
}

type mockable interface {
	IsMocking() bool
}

type mockingMatcher struct{}

func (mockingMatcher) FailureMessage(actual any) string {
	return format.Message(actual, "to be mocking")
}

func (mockingMatcher) Match(actual any) (bool, error) {
	m, ok := actual.(mockable)
	if !ok {
		return false, fmt.Errorf("%w: %T", errNotMockable, actual)
	}

	return m.IsMocking(), nil
}

func (mockingMatcher) NegatedFailureMessage(actual any) string {
	return format.Message(actual, "not to be mocking")
}

// outcomer is satisfied by Result for every type parameter.
type outcomer interface {
	Outcome() (any, error)
}

type resolveMatcher struct {
	expected any
	value    any
	err      error
	detail   string
}

func (m *resolveMatcher) FailureMessage(_ any) string {
	if m.err != nil {
		return fmt.Sprintf("Expected result to resolve, but it failed with: %v", m.err)
	}

	return fmt.Sprintf("Resolved value does not match: %s", m.detail)
}

func (m *resolveMatcher) Match(actual any) (bool, error) {
	res, ok := actual.(outcomer)
	if !ok {
		return false, fmt.Errorf("%w: %T", errNotResult, actual)
	}

	m.value, m.err = res.Outcome()
	if m.err != nil {
		return false, nil
	}

	matched, detail := matchValue(m.value, m.expected)
	m.detail = detail

	return matched, nil
}

func (m *resolveMatcher) NegatedFailureMessage(_ any) string {
	return format.Message(m.value, "not to match", m.expected)
}

type satisfyMatcher[T any] struct {
	predicate func(T) error
	lastErr   error
}

func (m *satisfyMatcher[T]) FailureMessage(actual any) string {
	if m.lastErr != nil {
		return fmt.Sprintf("value %v does not satisfy predicate: %v", actual, m.lastErr)
	}

	return fmt.Sprintf("value %v does not satisfy predicate", actual)
}

func (m *satisfyMatcher[T]) Match(actual any) (bool, error) {
	val, ok := actual.(T)

	if !ok {
		return false, fmt.Errorf("%w: expected %T, got %T", errTypeMismatch, *new(T), actual)
	}

	m.lastErr = m.predicate(val)

	return m.lastErr == nil, nil
}

// matchValue checks if actual matches expected.
// If expected implements the Matcher interface, uses its Match method.
// Otherwise, uses reflect.DeepEqual for comparison.
// Returns (success, errorMessage). If success is true, errorMessage is empty.
func matchValue(actual, expected any) (bool, string) {
	if matcher, ok := expected.(Matcher); ok {
		success, err := matcher.Match(actual)
		if err != nil {
			return false, err.Error()
		}

		if !success {
			return false, matcher.FailureMessage(actual)
		}

		return true, ""
	}

	if reflect.DeepEqual(actual, expected) {
		return true, ""
	}

	return false, fmt.Sprintf("expected %v, got %v", format.Object(expected, 0), format.Object(actual, 0))
}
