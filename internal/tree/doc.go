// Package tree defines the portable value model for encoded object
// graphs: a sealed tagged union of primitives, ordered containers,
// object/callable records, and references between them by integer id.
//
// This package contains data and its wire/canonical renderings only.
// All other internal packages import tree; tree imports nothing
// internal. Graph traversal, identity assignment, and reconstruction
// live in internal/codec.
//
// Key design constraints:
//   - Mapping entries are an ordered slice, never a Go map: entry
//     order is semantic and must survive round-trip
//   - Int and Float are distinct variants; a round-trip never changes
//     a value's numeric kind
//   - An ObjectRecord for a given id appears exactly once per tree;
//     every other occurrence of that object is an ObjectRef
package tree
