package codec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/amberlab/amber/internal/testutil"
)

// Golden trees pin the canonical wire form. A diff in any of these
// means previously stored trees would digest or decode differently.

func TestGoldenBasicDocument(t *testing.T) {
	tr, err := Encode(map[string]any{
		"a": int64(1),
		"b": []any{int64(1), int64(2), int64(3)},
	})
	require.NoError(t, err)
	testutil.AssertTreeGolden(t, "basic_document", tr)
}

func TestGoldenSelfCycle(t *testing.T) {
	n := &testutil.Node{Name: "loop"}
	n.Next = n

	tr, err := Encode(n, WithTypes(testutil.NewRegistry()))
	require.NoError(t, err)
	testutil.AssertTreeGolden(t, "self_cycle", tr)
}

func TestGoldenMixedScalars(t *testing.T) {
	tr, err := Encode(map[string]any{
		"flag":  true,
		"none":  nil,
		"ratio": 0.5,
		"raw":   []byte("hi"),
		"text":  "café",
	})
	require.NoError(t, err)
	testutil.AssertTreeGolden(t, "mixed_scalars", tr)
}
