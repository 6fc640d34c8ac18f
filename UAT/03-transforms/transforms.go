// Package transforms adapts the arguments and results of a wrapped lookup.
package transforms

import (
	"github.com/toejough/abstract"
)

// Record is the loosely-typed shape exchanged with the lookup.
type Record map[string]string

// FetchPerson is the real lookup. It expects an "id" key.
func FetchPerson(queries ...Record) (Record, error) {
	return Record{"id": queries[0]["id"], "name": "Veruca Salt"}, nil
}

// NewGetPerson wraps FetchPerson so callers can pass "personId" and get it back.
func NewGetPerson() *abstract.Wrapper[Record, Record] {
	return abstract.New(abstract.Sync(FetchPerson)).
		Named("getPerson").
		TransformInput(func(q Record) (Record, error) {
			return Record{"id": q["personId"]}, nil
		}).
		TransformOutput(func(r Record) (Record, error) {
			out := Record{"personId": r["id"]}
			for k, v := range r {
				out[k] = v
			}

			return out, nil
		})
}
