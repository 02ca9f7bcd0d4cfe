package typeset

import (
	"fmt"
	"reflect"
)

// BoundCallable is the capability for closure-like values: a callable
// carrying captured state. The encoder writes its name and state; the
// decoder rebuilds it through a binder registered under the same name.
type BoundCallable interface {
	CallableName() string
	BoundState() []Attr
}

// Binder reconstructs a bound callable from its captured state.
type Binder func(state []Attr) (any, error)

// Callables maps qualified names to invokable handles. Function values
// cannot be introspected or constructed by reflection, so both
// directions are explicit registration: encode looks the function
// pointer up to find its name, decode looks the name up to find the
// function.
type Callables struct {
	byName  map[string]any
	byPtr   map[uintptr]string
	binders map[string]Binder
}

// NewCallables creates an empty callable registry.
func NewCallables() *Callables {
	return &Callables{
		byName:  make(map[string]any),
		byPtr:   make(map[uintptr]string),
		binders: make(map[string]Binder),
	}
}

// Register associates a top-level function with a qualified name.
func (c *Callables) Register(name string, fn any) error {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return fmt.Errorf("register callable %q: not a function", name)
	}
	if prev, ok := c.byName[name]; ok {
		if reflect.ValueOf(prev).Pointer() == v.Pointer() {
			return nil
		}
		return fmt.Errorf("register callable: name %q already bound", name)
	}
	c.byName[name] = fn
	c.byPtr[v.Pointer()] = name
	return nil
}

// MustRegister is like Register but panics on error.
func (c *Callables) MustRegister(name string, fn any) {
	if err := c.Register(name, fn); err != nil {
		panic(err)
	}
}

// RegisterBinder associates a name with a factory that rebuilds a
// bound callable from decoded state.
func (c *Callables) RegisterBinder(name string, binder Binder) {
	c.binders[name] = binder
}

// NameFor returns the registered name of a function value.
func (c *Callables) NameFor(fn any) (string, bool) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return "", false
	}
	name, ok := c.byPtr[v.Pointer()]
	return name, ok
}

// Resolve returns the function registered under name.
func (c *Callables) Resolve(name string) (any, bool) {
	fn, ok := c.byName[name]
	return fn, ok
}

// Bind reconstructs a bound callable from decoded captured state.
func (c *Callables) Bind(name string, state []Attr) (any, bool, error) {
	binder, ok := c.binders[name]
	if !ok {
		return nil, false, nil
	}
	out, err := binder(state)
	if err != nil {
		return nil, true, err
	}
	return out, true, nil
}
