package codec

import (
	"math"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amberlab/amber/internal/testutil"
	"github.com/amberlab/amber/internal/tree"
)

func TestEncodeMapEntriesSorted(t *testing.T) {
	tr, err := Encode(map[string]any{"c": int64(3), "a": int64(1), "b": int64(2)})
	require.NoError(t, err)

	m, ok := tr.Root.(tree.Mapping)
	require.True(t, ok)
	require.Len(t, m.Entries, 3)
	assert.Equal(t, tree.String("a"), m.Entries[0].Key)
	assert.Equal(t, tree.String("b"), m.Entries[1].Key)
	assert.Equal(t, tree.String("c"), m.Entries[2].Key)
}

func TestEncodeIntKeysSortNumerically(t *testing.T) {
	tr, err := Encode(map[int]string{10: "x", 2: "b", 1: "a"})
	require.NoError(t, err)

	m := tr.Root.(tree.Mapping)
	assert.Equal(t, tree.Int(1), m.Entries[0].Key)
	assert.Equal(t, tree.Int(2), m.Entries[1].Key)
	assert.Equal(t, tree.Int(10), m.Entries[2].Key)
}

func TestEncodeNegativeIntKeysSortNumerically(t *testing.T) {
	tr, err := Encode(map[int]string{3: "c", -1: "a", -10: "b", 0: "z"})
	require.NoError(t, err)

	m := tr.Root.(tree.Mapping)
	require.Len(t, m.Entries, 4)
	assert.Equal(t, tree.Int(-10), m.Entries[0].Key)
	assert.Equal(t, tree.Int(-1), m.Entries[1].Key)
	assert.Equal(t, tree.Int(0), m.Entries[2].Key)
	assert.Equal(t, tree.Int(3), m.Entries[3].Key)
}

func TestEncodeDeterministic(t *testing.T) {
	doc := map[string]any{"z": int64(1), "a": []any{int64(2)}, "m": 3.5}

	tr1, err := Encode(doc)
	require.NoError(t, err)
	tr2, err := Encode(doc)
	require.NoError(t, err)

	assert.True(t, tree.Equal(tr1.Root, tr2.Root))
	assert.Equal(t, tree.MustDigest(tr1), tree.MustDigest(tr2))
}

func TestEncodeIDsStartAtOne(t *testing.T) {
	tr, err := Encode(map[string]any{"a": int64(1)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), tr.Root.(tree.Mapping).ID)
}

func TestEncodeArraysAreAnonymous(t *testing.T) {
	tr, err := Encode([2]int{1, 2})
	require.NoError(t, err)

	seq, ok := tr.Root.(tree.Sequence)
	require.True(t, ok)
	assert.Equal(t, int64(0), seq.ID, "arrays have value semantics, never shared")
}

func TestEncodeRecordAtFirstEncounterOnly(t *testing.T) {
	reg := testutil.NewRegistry()
	n := &testutil.Node{Name: "once"}
	p := &testutil.Pair{X: n, Y: n}

	tr, err := Encode(p, WithTypes(reg))
	require.NoError(t, err)

	var records, refs int
	tree.Walk(tr.Root, func(v tree.Value) bool {
		switch v.(type) {
		case tree.ObjectRecord:
			records++
		case tree.ObjectRef:
			refs++
		}
		return true
	})
	assert.Equal(t, 2, records, "the pair and one node record")
	assert.Equal(t, 1, refs)
}

func reflectTypeOfSlice() any { return reflect.TypeOf([]int(nil)) }

func TestEncodeUnsupportedValues(t *testing.T) {
	tests := []struct {
		name string
		in   any
	}{
		{"channel", make(chan int)},
		{"anonymous struct", struct{ A int }{1}},
		{"unregistered function", func() {}},
		{"uint64 above int64 range", uint64(math.MaxUint64)},
		{"unnamed type as value", reflectTypeOfSlice()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := Encode(tt.in)
			assert.Nil(t, tr, "no partial tree on failure")
			assert.True(t, IsUnsupportedType(err), "got %v", err)
		})
	}
}

func TestEncodeAllOrNothing(t *testing.T) {
	doc := map[string]any{
		"fine": int64(1),
		"bad":  make(chan int),
	}
	tr, err := Encode(doc)
	assert.Nil(t, tr)
	assert.True(t, IsUnsupportedType(err))
}

func TestEncodeNestedFailurePropagates(t *testing.T) {
	reg := testutil.NewRegistry()
	p := &testutil.Pair{X: "ok", Y: &testutil.Node{Name: "n", Next: nil}}
	tr, err := Encode(p, WithTypes(reg))
	require.NoError(t, err)
	require.NotNil(t, tr)

	p.Y = make(chan int)
	tr, err = Encode(p, WithTypes(reg))
	assert.Nil(t, tr)
	assert.True(t, IsUnsupportedType(err))
}
