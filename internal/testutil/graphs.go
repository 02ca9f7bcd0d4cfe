// Package testutil provides shared fixture types and golden-file
// helpers for codec and store tests.
package testutil

import (
	"github.com/amberlab/amber/internal/typeset"
)

// Node is a self-referential fixture for cycle tests.
type Node struct {
	Name string
	Next *Node
}

// Profile exercises nested containers and interface-typed attributes.
type Profile struct {
	Name  string
	Tags  []string
	Meta  map[string]any
	Score float64
}

// Pair exercises shared references: both fields may point at the same
// native object.
type Pair struct {
	X any
	Y any
}

// Temperature is constructed from state rather than populated, for
// from_state strategy tests.
type Temperature struct {
	Celsius float64
}

// NewRegistry returns a type registry with all fixture types
// registered, Temperature with its one-step constructor.
func NewRegistry() *typeset.Registry {
	r := typeset.NewRegistry()
	r.MustRegister(Node{})
	r.MustRegister(Profile{})
	r.MustRegister(Pair{})
	r.MustRegister(Temperature{}, typeset.WithConstructor(
		[]string{"Celsius"},
		func(args []typeset.Attr) (any, error) {
			t := &Temperature{}
			for _, a := range args {
				if a.Name == "Celsius" {
					if c, ok := a.Value.(float64); ok {
						t.Celsius = c
					}
				}
			}
			return t, nil
		},
	))
	return r
}
