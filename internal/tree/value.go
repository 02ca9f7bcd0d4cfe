package tree

// Value is a sealed interface over the encoded-value variants.
// Only Null, Bool, Int, Float, String, Bytes, Sequence, Mapping,
// ObjectRef, ObjectRecord, CallableRecord, and TypeRef implement it.
type Value interface {
	value() // Sealed - only these types implement it
}

// Null represents an encoded nil/none value.
// Using an explicit type ensures all variants satisfy the sealed interface.
type Null struct{}

func (Null) value() {}

// Bool represents an encoded boolean.
type Bool bool

func (Bool) value() {}

// Int represents an encoded integer. Always int64 on the wire.
type Int int64

func (Int) value() {}

// Float represents an encoded floating-point number.
// Kept distinct from Int so a round-trip never changes a value's kind.
type Float float64

func (Float) value() {}

// String represents an encoded UTF-8 string.
type String string

func (String) value() {}

// Bytes represents an encoded byte string.
type Bytes []byte

func (Bytes) value() {}

// Sequence represents an ordered collection. ID is non-zero when the
// sequence is the definition site of a shared container; later
// occurrences of the same native container appear as ObjectRef(ID).
// Containers carry no type descriptor (they map to Value variants
// directly, bypassing the type resolver).
type Sequence struct {
	ID    int64
	Items []Value
}

func (Sequence) value() {}

// Entry is one key/value pair of a Mapping. Keys are structural
// values, not just strings.
type Entry struct {
	Key Value
	Val Value
}

// Mapping represents an ordered key/value collection. Entry order is
// preserved exactly through encode, wire round-trip, and decode.
// ID has the same sharing semantics as Sequence.ID.
type Mapping struct {
	ID      int64
	Entries []Entry
}

func (Mapping) value() {}

// ObjectRef points at the ObjectRecord, CallableRecord, or identified
// container with the same id. It is emitted at every encounter of an
// already-seen native object, which is what breaks cycles.
type ObjectRef int64

func (ObjectRef) value() {}

// Strategy names how a decoded shell of a type is brought to life.
type Strategy string

const (
	// StrategyDefault allocates a zero-valued shell and populates its
	// attributes afterwards. This is the strategy that supports cycles.
	StrategyDefault Strategy = "default"

	// StrategyFromState constructs the instance from named state values
	// in one step. Records using it cannot participate in cycles.
	StrategyFromState Strategy = "from_state"
)

// Descriptor identifies a type on the wire: a globally unique
// qualified name plus the construction strategy recorded at encode time.
type Descriptor struct {
	Name     string
	Strategy Strategy
	Args     []string // constructor argument names, StrategyFromState only
}

// ObjectRecord is the canonical definition site of an object: its
// identity, its type, and its attribute state. State.ID is always zero;
// the state mapping is part of the record, not a shared container.
type ObjectRecord struct {
	ID    int64
	Type  Descriptor
	State Mapping
}

func (ObjectRecord) value() {}

// CallableRecord represents a function value, serialized by qualified
// name. Bound is non-nil for callables that capture enclosing state;
// nil for plain top-level functions.
type CallableRecord struct {
	ID    int64
	Name  string
	Bound *Mapping
}

func (CallableRecord) value() {}

// TypeRef is a type itself used as a first-class value, e.g. a type
// assigned to an attribute. Resolved by qualified name; never
// allocated as a shell.
type TypeRef string

func (TypeRef) value() {}

// Field builds a state-mapping entry with a string key.
func Field(name string, v Value) Entry {
	return Entry{Key: String(name), Val: v}
}

// NewSequence creates an anonymous (unshared) Sequence.
func NewSequence(items ...Value) Sequence {
	return Sequence{Items: items}
}

// NewMapping creates an anonymous (unshared) Mapping.
func NewMapping(entries ...Entry) Mapping {
	return Mapping{Entries: entries}
}

// Lookup returns the value for the first entry whose key is
// structurally equal to key.
func (m Mapping) Lookup(key Value) (Value, bool) {
	for _, e := range m.Entries {
		if Equal(e.Key, key) {
			return e.Val, true
		}
	}
	return nil, false
}

// Equal reports structural equality of two values. Ids participate in
// the comparison: two trees are equal only if they declare the same
// sharing topology.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Int:
		bv, ok := b.(Int)
		return ok && av == bv
	case Float:
		bv, ok := b.(Float)
		return ok && av == bv
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case Bytes:
		bv, ok := b.(Bytes)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
		return true
	case Sequence:
		bv, ok := b.(Sequence)
		if !ok || av.ID != bv.ID || len(av.Items) != len(bv.Items) {
			return false
		}
		for i := range av.Items {
			if !Equal(av.Items[i], bv.Items[i]) {
				return false
			}
		}
		return true
	case Mapping:
		bv, ok := b.(Mapping)
		return ok && av.ID == bv.ID && entriesEqual(av.Entries, bv.Entries)
	case ObjectRef:
		bv, ok := b.(ObjectRef)
		return ok && av == bv
	case ObjectRecord:
		bv, ok := b.(ObjectRecord)
		if !ok || av.ID != bv.ID || !descriptorEqual(av.Type, bv.Type) {
			return false
		}
		return entriesEqual(av.State.Entries, bv.State.Entries)
	case CallableRecord:
		bv, ok := b.(CallableRecord)
		if !ok || av.ID != bv.ID || av.Name != bv.Name {
			return false
		}
		if (av.Bound == nil) != (bv.Bound == nil) {
			return false
		}
		return av.Bound == nil || entriesEqual(av.Bound.Entries, bv.Bound.Entries)
	case TypeRef:
		bv, ok := b.(TypeRef)
		return ok && av == bv
	case nil:
		return b == nil
	}
	return false
}

func entriesEqual(a, b []Entry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i].Key, b[i].Key) || !Equal(a[i].Val, b[i].Val) {
			return false
		}
	}
	return true
}

func descriptorEqual(a, b Descriptor) bool {
	if a.Name != b.Name || a.Strategy != b.Strategy || len(a.Args) != len(b.Args) {
		return false
	}
	for i := range a.Args {
		if a.Args[i] != b.Args[i] {
			return false
		}
	}
	return true
}

// Walk visits v and every value nested under it in depth-first
// pre-order. The visit function returning false prunes the subtree.
func Walk(v Value, visit func(Value) bool) {
	if !visit(v) {
		return
	}
	switch val := v.(type) {
	case Sequence:
		for _, item := range val.Items {
			Walk(item, visit)
		}
	case Mapping:
		for _, e := range val.Entries {
			Walk(e.Key, visit)
			Walk(e.Val, visit)
		}
	case ObjectRecord:
		Walk(val.State, visit)
	case CallableRecord:
		if val.Bound != nil {
			Walk(*val.Bound, visit)
		}
	}
}
