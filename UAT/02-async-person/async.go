// Package async wraps a slow lookup that completes in the background.
package async

import (
	"time"

	"github.com/toejough/abstract"
)

// Person is a directory entry.
type Person struct {
	ID   string
	Name string
}

// Query selects a person.
type Query struct {
	ID string
}

// Latency is how long FetchPerson takes.
const Latency = 10 * time.Millisecond

// FetchPerson is the real, slow lookup.
func FetchPerson(queries ...Query) (Person, error) {
	time.Sleep(Latency)

	return Person{ID: queries[0].ID, Name: "Willy Wonka"}, nil
}

// NewGetAsyncPerson wraps FetchPerson so each call runs in the background.
func NewGetAsyncPerson() *abstract.Wrapper[Query, Person] {
	return abstract.New(abstract.Async(FetchPerson)).Named("getAsyncPerson")
}
