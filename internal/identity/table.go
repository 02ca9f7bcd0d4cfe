package identity

import "reflect"

// Key identifies a native object for the duration of one encode pass.
// Identity is pointer-based, never value-based: two distinct but equal
// objects get distinct keys and are never conflated. Len distinguishes
// two slices over the same backing array.
type Key struct {
	Ptr  uintptr
	Type reflect.Type
	Len  int
}

// EncodePhase tracks an id through the encode pass.
type EncodePhase int

const (
	// PhaseDiscovered means the id is reserved but its record is still
	// being built (its state may be mid-traversal).
	PhaseDiscovered EncodePhase = iota + 1

	// PhaseEmitted means the record for this id is complete.
	PhaseEmitted
)

// EncodeTable is the encode-side identity registry: native identity →
// sequential id. Created fresh per encode call and discarded with it;
// ids start at 1 so the zero id can mean "anonymous" in the tree.
type EncodeTable struct {
	next   int64
	ids    map[Key]int64
	phases map[int64]EncodePhase
}

// NewEncodeTable creates an empty encode-side table.
func NewEncodeTable() *EncodeTable {
	return &EncodeTable{
		ids:    make(map[Key]int64),
		phases: make(map[int64]EncodePhase),
	}
}

// IDFor returns the id for a native object, allocating the next
// sequential id on first sight. isNew is true exactly once per key per
// pass; the caller emits the definition record then, and a reference
// on every later encounter.
func (t *EncodeTable) IDFor(key Key) (id int64, isNew bool) {
	if id, ok := t.ids[key]; ok {
		return id, false
	}
	t.next++
	t.ids[key] = t.next
	t.phases[t.next] = PhaseDiscovered
	return t.next, true
}

// Allocate reserves a fresh id with no native key. Used for values
// with value semantics (non-pointer structs): each occurrence is a
// distinct object and never deduplicates.
func (t *EncodeTable) Allocate() int64 {
	t.next++
	t.phases[t.next] = PhaseDiscovered
	return t.next
}

// MarkEmitted records that the definition record for id is complete.
func (t *EncodeTable) MarkEmitted(id int64) {
	t.phases[id] = PhaseEmitted
}

// Phase returns the encode phase of an id, or zero if never assigned.
func (t *EncodeTable) Phase(id int64) EncodePhase {
	return t.phases[id]
}

// Len returns the number of ids assigned so far.
func (t *EncodeTable) Len() int {
	return len(t.ids)
}

// DecodePhase tracks an id through the decode pass.
type DecodePhase int

const (
	// PhaseAllocated means a shell exists for the id but its
	// attributes are not yet applied.
	PhaseAllocated DecodePhase = iota + 1

	// PhasePopulated means the instance is fully reconstructed.
	PhasePopulated
)

// DecodeTable is the decode-side identity registry: id → live
// instance. Shells are registered before population so cyclic and
// shared references resolve to the one instance under construction.
type DecodeTable struct {
	objs   map[int64]any
	phases map[int64]DecodePhase
}

// NewDecodeTable creates an empty decode-side table.
func NewDecodeTable() *DecodeTable {
	return &DecodeTable{
		objs:   make(map[int64]any),
		phases: make(map[int64]DecodePhase),
	}
}

// RecordShell registers a freshly allocated shell under its id. The
// shell must be registered before any of its attributes are decoded.
func (t *DecodeTable) RecordShell(id int64, instance any) {
	t.objs[id] = instance
	t.phases[id] = PhaseAllocated
}

// Resolve looks up the instance for id. ok is false when no shell was
// allocated for the id; the caller reports that as a dangling
// reference (it never happens for trees produced by this encoder).
func (t *DecodeTable) Resolve(id int64) (instance any, ok bool) {
	instance, ok = t.objs[id]
	return instance, ok
}

// MarkPopulated records that the instance for id is fully built.
func (t *DecodeTable) MarkPopulated(id int64) {
	t.phases[id] = PhasePopulated
}

// Phase returns the decode phase of an id, or zero if never allocated.
func (t *DecodeTable) Phase(id int64) DecodePhase {
	return t.phases[id]
}
