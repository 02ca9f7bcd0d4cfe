package typeset

import (
	"fmt"
	"reflect"

	"github.com/amberlab/amber/internal/tree"
)

// Handle is a constructible view of a resolved type, as supplied to
// the decoder. Shells are allocated before any state is applied so
// cyclic references can resolve to the instance under construction.
type Handle interface {
	// QualifiedName returns the registered name of the type.
	QualifiedName() string

	// RuntimeType returns the reflect.Type behind the handle. Used
	// when a type itself travels as a value.
	RuntimeType() reflect.Type

	// AllocateShell returns a pointer to a zero value of the type.
	AllocateShell() any

	// ApplyState sets the named attributes on a shell previously
	// returned by AllocateShell. conv carries the decode pass's
	// container-conversion memo, which keeps shared containers shared
	// when they land in statically typed fields; nil uses a memo local
	// to the call.
	ApplyState(instance any, state []Attr, conv *Conversions) error

	// ConstructFromState builds an instance in one step from named
	// state values. Only valid for types registered with a
	// constructor; others return an error.
	ConstructFromState(args []Attr) (any, error)
}

// Resolver maps qualified names back to constructible type handles
// during decode. Registry implements it; embedding applications may
// supply their own.
type Resolver interface {
	Resolve(qualifiedName string) (Handle, bool)
}

// Constructor builds an instance from named state values in one step.
// Used for types whose zero value is not a valid shell.
type Constructor func(args []Attr) (any, error)

type entry struct {
	name      string
	typ       reflect.Type // struct type, never a pointer
	argNames  []string
	construct Constructor
}

// Registry is a bidirectional lookup between runtime types and
// qualified names. Encode consults it by reflect.Type to pick a
// descriptor; decode consults it by name to obtain a handle.
//
// The registry holds no per-call state and is safe to share across
// concurrent encode/decode calls once registration is done.
type Registry struct {
	byName map[string]*entry
	byType map[reflect.Type]*entry
}

// NewRegistry creates an empty type registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*entry),
		byType: make(map[reflect.Type]*entry),
	}
}

// Option configures a registration.
type Option func(*entry)

// WithName overrides the derived qualified name. Use when the encoding
// and decoding programs lay the type out in different packages.
func WithName(name string) Option {
	return func(e *entry) { e.name = name }
}

// WithConstructor registers a one-step constructor; the type's records
// are encoded with the from_state strategy, recording argNames so the
// decoder knows which attributes to feed the constructor.
func WithConstructor(argNames []string, fn Constructor) Option {
	return func(e *entry) {
		e.argNames = argNames
		e.construct = fn
	}
}

// Register associates a sample value's type (a struct or pointer to
// struct) with a qualified name. Re-registering the same type under
// the same name is idempotent; a conflicting registration is an error.
func (r *Registry) Register(sample any, opts ...Option) error {
	typ := reflect.TypeOf(sample)
	if typ == nil {
		return fmt.Errorf("register: nil sample")
	}
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return fmt.Errorf("register: %s is not a struct type", typ)
	}

	e := &entry{name: QualifiedName(typ), typ: typ}
	for _, opt := range opts {
		opt(e)
	}
	if e.name == "" {
		return fmt.Errorf("register: %s has no qualified name; use WithName", typ)
	}

	if prev, ok := r.byName[e.name]; ok {
		if prev.typ == e.typ {
			return nil
		}
		return fmt.Errorf("register: name %q already bound to %s", e.name, prev.typ)
	}
	r.byName[e.name] = e
	r.byType[e.typ] = e
	return nil
}

// MustRegister is like Register but panics on error. Intended for
// package-level registration blocks.
func (r *Registry) MustRegister(sample any, opts ...Option) {
	if err := r.Register(sample, opts...); err != nil {
		panic(err)
	}
}

// Resolve returns the handle for a qualified name, or ok=false when
// the name was never registered.
func (r *Registry) Resolve(qualifiedName string) (Handle, bool) {
	e, ok := r.byName[qualifiedName]
	if !ok {
		return nil, false
	}
	return handle{e}, true
}

// DescriptorFor produces the wire descriptor for a live object's type.
// Registered types use their registered name and strategy; any other
// named struct type falls back to a derived name with the default
// strategy. ok is false for types with no qualified name (anonymous
// structs), which are unencodable.
func (r *Registry) DescriptorFor(typ reflect.Type) (tree.Descriptor, bool) {
	if e, ok := r.byType[typ]; ok {
		return e.descriptor(), true
	}
	name := QualifiedName(typ)
	if name == "" {
		return tree.Descriptor{}, false
	}
	return tree.Descriptor{Name: name, Strategy: tree.StrategyDefault}, true
}

func (e *entry) descriptor() tree.Descriptor {
	if e.construct != nil {
		return tree.Descriptor{Name: e.name, Strategy: tree.StrategyFromState, Args: e.argNames}
	}
	return tree.Descriptor{Name: e.name, Strategy: tree.StrategyDefault}
}

// QualifiedName derives the globally unique name of a type:
// full package path, dot, type name. Empty for unnamed types.
func QualifiedName(typ reflect.Type) string {
	if typ.Name() == "" {
		return ""
	}
	if typ.PkgPath() == "" {
		return typ.Name()
	}
	return typ.PkgPath() + "." + typ.Name()
}

type handle struct {
	e *entry
}

func (h handle) QualifiedName() string {
	return h.e.name
}

func (h handle) RuntimeType() reflect.Type {
	return h.e.typ
}

func (h handle) AllocateShell() any {
	return reflect.New(h.e.typ).Interface()
}

func (h handle) ApplyState(instance any, state []Attr, conv *Conversions) error {
	if conv == nil {
		conv = NewConversions()
	}
	v := reflect.ValueOf(instance)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return fmt.Errorf("apply state: shell for %s is not a non-nil pointer", h.e.name)
	}
	elem := v.Elem()
	if elem.Kind() != reflect.Struct {
		return fmt.Errorf("apply state: shell for %s is not a struct", h.e.name)
	}

	for _, attr := range state {
		field := elem.FieldByName(attr.Name)
		if !field.IsValid() {
			return fmt.Errorf("apply state: %s has no attribute %q", h.e.name, attr.Name)
		}
		if !field.CanSet() {
			return fmt.Errorf("apply state: attribute %q of %s is not settable", attr.Name, h.e.name)
		}
		if err := conv.assign(field, attr.Value); err != nil {
			return fmt.Errorf("apply state: attribute %q of %s: %w", attr.Name, h.e.name, err)
		}
	}
	return nil
}

func (h handle) ConstructFromState(args []Attr) (any, error) {
	if h.e.construct == nil {
		return nil, fmt.Errorf("construct: %s has no registered constructor", h.e.name)
	}
	return h.e.construct(args)
}
