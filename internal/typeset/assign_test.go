package typeset

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assignInto runs assign against a freshly allocated destination of
// type T and returns the result.
func assignInto[T any](t *testing.T, v any) (T, error) {
	t.Helper()
	dst := reflect.New(reflect.TypeOf((*T)(nil)).Elem()).Elem()
	err := NewConversions().assign(dst, v)
	out, _ := dst.Interface().(T)
	return out, err
}

func TestAssignNilZeroes(t *testing.T) {
	got, err := assignInto[*account](t, nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	s, err := assignInto[string](t, nil)
	require.NoError(t, err)
	assert.Equal(t, "", s)
}

func TestAssignNumericConversions(t *testing.T) {
	i, err := assignInto[int](t, int64(42))
	require.NoError(t, err)
	assert.Equal(t, 42, i)

	u, err := assignInto[uint8](t, int64(200))
	require.NoError(t, err)
	assert.Equal(t, uint8(200), u)

	f, err := assignInto[float32](t, 1.5)
	require.NoError(t, err)
	assert.Equal(t, float32(1.5), f)

	// Decoded ints may land in float fields, never the reverse.
	f64, err := assignInto[float64](t, int64(3))
	require.NoError(t, err)
	assert.Equal(t, 3.0, f64)

	_, err = assignInto[int](t, 1.5)
	assert.Error(t, err)
}

func TestAssignOverflow(t *testing.T) {
	_, err := assignInto[int8](t, int64(300))
	assert.Error(t, err)

	_, err = assignInto[uint16](t, int64(-1))
	assert.Error(t, err)
}

func TestAssignContainers(t *testing.T) {
	s, err := assignInto[[]int](t, []any{int64(1), int64(2)})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, s)

	arr, err := assignInto[[2]string](t, []any{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [2]string{"a", "b"}, arr)

	_, err = assignInto[[2]string](t, []any{"a"})
	assert.Error(t, err, "length mismatch")

	m, err := assignInto[map[string]int](t, map[string]any{"x": int64(7)})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"x": 7}, m)

	_, err = assignInto[[]int](t, []any{"not an int"})
	assert.Error(t, err)
}

func TestAssignPointers(t *testing.T) {
	// Shells arrive as *T; a T field takes the dereference.
	a, err := assignInto[account](t, &account{Name: "deref"})
	require.NoError(t, err)
	assert.Equal(t, "deref", a.Name)

	// A scalar wraps into a pointer field.
	p, err := assignInto[*int](t, int64(9))
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 9, *p)
}

func TestAssignMemoizesSliceConversion(t *testing.T) {
	conv := NewConversions()
	shared := []any{int64(1), int64(2), int64(3)}

	d1 := reflect.New(reflect.TypeOf([]int(nil))).Elem()
	d2 := reflect.New(reflect.TypeOf([]int(nil))).Elem()
	require.NoError(t, conv.assign(d1, shared))
	require.NoError(t, conv.assign(d2, shared))

	s1 := d1.Interface().([]int)
	s2 := d2.Interface().([]int)
	s1[0] = 99
	assert.Equal(t, 99, s2[0], "one source container must convert to one typed instance")

	// Different destination types stay independent conversions, built
	// from the untouched source container.
	d3 := reflect.New(reflect.TypeOf([]int64(nil))).Elem()
	require.NoError(t, conv.assign(d3, shared))
	assert.Equal(t, []int64{1, 2, 3}, d3.Interface().([]int64))
}

func TestAssignMemoizesMapConversion(t *testing.T) {
	conv := NewConversions()
	shared := map[string]any{"x": int64(7)}

	d1 := reflect.New(reflect.TypeOf(map[string]int(nil))).Elem()
	d2 := reflect.New(reflect.TypeOf(map[string]int(nil))).Elem()
	require.NoError(t, conv.assign(d1, shared))
	require.NoError(t, conv.assign(d2, shared))

	m1 := d1.Interface().(map[string]int)
	m2 := d2.Interface().(map[string]int)
	m1["x"] = 8
	assert.Equal(t, 8, m2["x"])
}

func TestAssignInterface(t *testing.T) {
	v, err := assignInto[any](t, "anything")
	require.NoError(t, err)
	assert.Equal(t, "anything", v)

	lister, err := assignInto[AttributeLister](t, redacted{Public: "x"})
	require.NoError(t, err)
	assert.Equal(t, "x", lister.SerializableAttrs()[0].Value)

	_, err = assignInto[AttributeLister](t, 42)
	assert.Error(t, err)
}
