// Package codec walks live object graphs into portable trees and
// rebuilds equivalent graphs from them, preserving sharing topology
// and cycles through call-scoped identity tables.
//
// Encode and Decode are synchronous, bounded by graph size, and
// atomic: they either complete or fail with a typed *Error and no
// partial result. Both take their collaborators (type registry,
// callable registry, attribute reader) as options; per-call identity
// state never leaks across calls.
package codec
