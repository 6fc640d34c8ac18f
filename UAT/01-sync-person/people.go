// Package people is a small directory lookup whose fetch function is wrapped
// so tests can swap it out.
package people

import (
	"errors"
	"fmt"

	"github.com/toejough/abstract"
)

// Person is a directory entry.
type Person struct {
	ID   string
	Name string
}

// ErrMissingID is returned when a lookup is made without an id.
var ErrMissingID = errors.New("missing id")

// FetchPerson is the real lookup.
func FetchPerson(ids ...string) (Person, error) {
	if len(ids) == 0 || ids[0] == "" {
		return Person{}, fmt.Errorf("fetch person: %w", ErrMissingID)
	}

	return Person{ID: ids[0], Name: "Veruca Salt"}, nil
}

// NewGetPerson wraps FetchPerson.
func NewGetPerson() *abstract.Wrapper[string, Person] {
	return abstract.New(abstract.Sync(FetchPerson)).Named("getPerson")
}

// Greeting is the code under test: it depends on the wrapped lookup.
func Greeting(getPerson *abstract.Wrapper[string, Person], id string) (string, error) {
	p, err := getPerson.Exec(id).Get()
	if err != nil {
		return "", err
	}

	return "Hello, " + p.Name, nil
}
