// Package typeset resolves between runtime types and the serializable
// type descriptors that travel in encoded trees.
//
// Go has no ambient way to construct a type from a string, so the
// decode direction is always an explicit lookup table populated by the
// embedding application: Registry for object types, Callables for
// function values. The encode direction is derived by reflection where
// possible (named struct types) and refined by registration (custom
// names, one-step constructors, bound-callable binders).
package typeset
