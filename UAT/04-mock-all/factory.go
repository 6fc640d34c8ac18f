// Package factory wires several wrapped lookups to one registry so they can be
// mocked together.
package factory

import (
	"github.com/toejough/abstract"
)

// Person is a factory visitor.
type Person struct {
	Name string
}

// Lookups holds the wrapped functions of the factory tour.
type Lookups struct {
	GetVeruca  *abstract.Wrapper[string, Person]
	GetCharlie *abstract.Wrapper[string, Person]
}

// NewLookups builds the lookups. Nothing is registered yet.
func NewLookups() Lookups {
	return Lookups{
		GetVeruca: abstract.New(abstract.Sync(fixed("Veruca Salt"))).
			Named("getVeruca").
			SetMock(abstract.Sync(fixed("Veruca Aloompa"))),
		GetCharlie: abstract.New(abstract.Sync(fixed("Charlie"))).
			Named("getCharlie").
			SetMock(abstract.Sync(fixed("Charlie Bucket"))),
	}
}

func fixed(name string) func(...string) (Person, error) {
	return func(...string) (Person, error) {
		return Person{Name: name}, nil
	}
}
