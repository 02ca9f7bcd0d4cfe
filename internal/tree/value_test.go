package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueSealed(t *testing.T) {
	// Verify all variants implement Value (compile-time check via assignment)
	var _ Value = Null{}
	var _ Value = Bool(true)
	var _ Value = Int(42)
	var _ Value = Float(1.5)
	var _ Value = String("test")
	var _ Value = Bytes("raw")
	var _ Value = Sequence{Items: []Value{Int(1)}}
	var _ Value = Mapping{Entries: []Entry{Field("k", Int(1))}}
	var _ Value = ObjectRef(3)
	var _ Value = ObjectRecord{ID: 1}
	var _ Value = CallableRecord{ID: 2, Name: "f"}
	var _ Value = TypeRef("pkg.T")
}

func TestEqualPrimitives(t *testing.T) {
	assert.True(t, Equal(Null{}, Null{}))
	assert.True(t, Equal(Int(3), Int(3)))
	assert.False(t, Equal(Int(3), Int(4)))

	// Numeric kind is part of the value: Int(3) is not Float(3).
	assert.False(t, Equal(Int(3), Float(3)))

	assert.True(t, Equal(Bytes("ab"), Bytes("ab")))
	assert.False(t, Equal(Bytes("ab"), Bytes("ac")))
	assert.False(t, Equal(String("ab"), Bytes("ab")))
}

func TestEqualContainers(t *testing.T) {
	a := Sequence{ID: 1, Items: []Value{Int(1), String("x")}}
	b := Sequence{ID: 1, Items: []Value{Int(1), String("x")}}
	assert.True(t, Equal(a, b))

	// Ids declare sharing topology and participate in equality.
	c := Sequence{ID: 2, Items: []Value{Int(1), String("x")}}
	assert.False(t, Equal(a, c))

	m1 := NewMapping(Field("a", Int(1)), Field("b", Int(2)))
	m2 := NewMapping(Field("a", Int(1)), Field("b", Int(2)))
	m3 := NewMapping(Field("b", Int(2)), Field("a", Int(1)))
	assert.True(t, Equal(m1, m2))
	assert.False(t, Equal(m1, m3), "entry order is semantic")
}

func TestEqualRecords(t *testing.T) {
	rec := func() ObjectRecord {
		return ObjectRecord{
			ID:    1,
			Type:  Descriptor{Name: "pkg.T", Strategy: StrategyDefault},
			State: NewMapping(Field("n", Int(7))),
		}
	}
	assert.True(t, Equal(rec(), rec()))

	other := rec()
	other.Type.Strategy = StrategyFromState
	assert.False(t, Equal(rec(), other))

	bound := NewMapping(Field("n", Int(1)))
	c1 := CallableRecord{ID: 2, Name: "f", Bound: &bound}
	c2 := CallableRecord{ID: 2, Name: "f", Bound: &bound}
	c3 := CallableRecord{ID: 2, Name: "f"}
	assert.True(t, Equal(c1, c2))
	assert.False(t, Equal(c1, c3))
}

func TestMappingLookup(t *testing.T) {
	m := NewMapping(
		Field("name", String("amber")),
		Entry{Key: Int(3), Val: String("three")},
	)

	v, ok := m.Lookup(String("name"))
	assert.True(t, ok)
	assert.Equal(t, String("amber"), v)

	v, ok = m.Lookup(Int(3))
	assert.True(t, ok)
	assert.Equal(t, String("three"), v)

	_, ok = m.Lookup(String("missing"))
	assert.False(t, ok)
}

func TestWalkVisitsPreOrder(t *testing.T) {
	root := ObjectRecord{
		ID:   1,
		Type: Descriptor{Name: "pkg.T", Strategy: StrategyDefault},
		State: NewMapping(
			Field("items", Sequence{ID: 2, Items: []Value{Int(1), ObjectRef(1)}}),
		),
	}

	var kinds []string
	Walk(root, func(v Value) bool {
		switch v.(type) {
		case ObjectRecord:
			kinds = append(kinds, "record")
		case Mapping:
			kinds = append(kinds, "mapping")
		case Sequence:
			kinds = append(kinds, "sequence")
		case ObjectRef:
			kinds = append(kinds, "ref")
		default:
			kinds = append(kinds, "leaf")
		}
		return true
	})

	assert.Equal(t, []string{"record", "mapping", "leaf", "sequence", "leaf", "ref"}, kinds)
}

func TestWalkPrune(t *testing.T) {
	root := NewSequence(NewSequence(Int(1)), Int(2))

	var count int
	Walk(root, func(v Value) bool {
		count++
		_, isSeq := v.(Sequence)
		return !isSeq || count == 1 // descend only into the root
	})

	// root, inner sequence (pruned), Int(2)
	assert.Equal(t, 3, count)
}
