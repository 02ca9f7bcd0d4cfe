package identity

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sliceKey(s []int) Key {
	rv := reflect.ValueOf(s)
	return Key{Ptr: rv.Pointer(), Type: rv.Type(), Len: rv.Len()}
}

func TestEncodeTableIDsAreSequentialFromOne(t *testing.T) {
	tbl := NewEncodeTable()

	a := []int{1, 2, 3}
	b := []int{4}

	id1, isNew := tbl.IDFor(sliceKey(a))
	require.True(t, isNew)
	assert.Equal(t, int64(1), id1)

	id2, isNew := tbl.IDFor(sliceKey(b))
	require.True(t, isNew)
	assert.Equal(t, int64(2), id2)

	assert.Equal(t, 2, tbl.Len())
}

func TestEncodeTableSameObjectSameID(t *testing.T) {
	tbl := NewEncodeTable()
	s := []int{1, 2, 3}

	id1, isNew := tbl.IDFor(sliceKey(s))
	require.True(t, isNew)

	id2, isNew := tbl.IDFor(sliceKey(s))
	assert.False(t, isNew, "second encounter must not be new")
	assert.Equal(t, id1, id2)
}

func TestEncodeTableEqualValuesDistinctIdentity(t *testing.T) {
	tbl := NewEncodeTable()

	a := []int{1, 2, 3}
	b := []int{1, 2, 3}

	id1, _ := tbl.IDFor(sliceKey(a))
	id2, _ := tbl.IDFor(sliceKey(b))
	assert.NotEqual(t, id1, id2, "identity is pointer-based, never value-based")
}

func TestEncodeTableLenDisambiguatesReslices(t *testing.T) {
	tbl := NewEncodeTable()

	backing := []int{1, 2, 3}
	prefix := backing[:2]

	id1, _ := tbl.IDFor(sliceKey(backing))
	id2, _ := tbl.IDFor(sliceKey(prefix))
	assert.NotEqual(t, id1, id2, "same base pointer, different length")
}

func TestEncodeTableAllocateNeverDeduplicates(t *testing.T) {
	tbl := NewEncodeTable()

	id1 := tbl.Allocate()
	id2 := tbl.Allocate()
	assert.Equal(t, int64(1), id1)
	assert.Equal(t, int64(2), id2)

	// Keyed and keyless allocations share the same sequence.
	id3, _ := tbl.IDFor(sliceKey([]int{9}))
	assert.Equal(t, int64(3), id3)
}

func TestEncodeTablePhases(t *testing.T) {
	tbl := NewEncodeTable()

	id, _ := tbl.IDFor(sliceKey([]int{1}))
	assert.Equal(t, PhaseDiscovered, tbl.Phase(id))

	tbl.MarkEmitted(id)
	assert.Equal(t, PhaseEmitted, tbl.Phase(id))

	assert.Equal(t, EncodePhase(0), tbl.Phase(99), "unassigned id has zero phase")
}

func TestDecodeTableShellVisibleBeforePopulation(t *testing.T) {
	tbl := NewDecodeTable()

	shell := &struct{ N int }{}
	tbl.RecordShell(1, shell)
	assert.Equal(t, PhaseAllocated, tbl.Phase(1))

	got, ok := tbl.Resolve(1)
	require.True(t, ok)
	assert.Same(t, shell, got)

	tbl.MarkPopulated(1)
	assert.Equal(t, PhasePopulated, tbl.Phase(1))
}

func TestDecodeTableMissingID(t *testing.T) {
	tbl := NewDecodeTable()

	_, ok := tbl.Resolve(42)
	assert.False(t, ok)
	assert.Equal(t, DecodePhase(0), tbl.Phase(42))
}
