package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amberlab/amber/internal/testutil"
	"github.com/amberlab/amber/internal/tree"
	"github.com/amberlab/amber/internal/typeset"
)

const nodeName = "github.com/amberlab/amber/internal/testutil.Node"

func TestDecodeRejectsIncompatibleEnvelope(t *testing.T) {
	_, err := Decode(&tree.Tree{Format: "other", Version: 1, Root: tree.Null{}})
	assert.True(t, IsIncompatibleTree(err), "got %v", err)

	_, err = Decode(&tree.Tree{Format: tree.FormatName, Version: 99, Root: tree.Null{}})
	assert.True(t, IsIncompatibleTree(err), "got %v", err)
}

func TestDecodeUnknownType(t *testing.T) {
	reg := testutil.NewRegistry()
	tr, err := Encode(&testutil.Node{Name: "n"}, WithTypes(reg))
	require.NoError(t, err)

	// Decoding with an empty registry cannot resolve the name.
	_, err = Decode(tr)
	assert.True(t, IsUnknownType(err), "got %v", err)

	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, nodeName, ce.TypeName)
}

func TestDecodeDanglingReference(t *testing.T) {
	_, err := Decode(tree.New(tree.NewSequence(tree.ObjectRef(9))))
	assert.True(t, IsDanglingReference(err), "got %v", err)

	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, int64(9), ce.ID)
}

func TestDecodeStateApplicationFailures(t *testing.T) {
	reg := testutil.NewRegistry()

	tests := []struct {
		name  string
		state tree.Mapping
	}{
		{
			"unknown attribute",
			tree.NewMapping(tree.Field("Nope", tree.Int(1))),
		},
		{
			"incompatible shape",
			tree.NewMapping(tree.Field("Name", tree.Int(1))),
		},
		{
			"non-string state key",
			tree.Mapping{Entries: []tree.Entry{{Key: tree.Int(1), Val: tree.Int(2)}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := tree.New(tree.ObjectRecord{
				ID:    1,
				Type:  tree.Descriptor{Name: nodeName, Strategy: tree.StrategyDefault},
				State: tt.state,
			})
			out, err := Decode(tr, WithTypes(reg))
			assert.Nil(t, out, "no partial graph on failure")
			assert.True(t, IsStateApplication(err), "got %v", err)
		})
	}
}

func TestDecodeFromStateCycleIsDangling(t *testing.T) {
	// from_state decodes its arguments before the instance exists, so a
	// cycle routed through such a record cannot resolve.
	reg := testutil.NewRegistry()
	tr := tree.New(tree.ObjectRecord{
		ID: 1,
		Type: tree.Descriptor{
			Name:     "github.com/amberlab/amber/internal/testutil.Temperature",
			Strategy: tree.StrategyFromState,
			Args:     []string{"Celsius"},
		},
		State: tree.NewMapping(tree.Field("Celsius", tree.ObjectRef(1))),
	})

	_, err := Decode(tr, WithTypes(reg))
	assert.True(t, IsDanglingReference(err), "got %v", err)
}

func TestDecodeMappingKeyShapes(t *testing.T) {
	// All-string keys decode to map[string]any.
	out, err := Decode(tree.New(tree.NewMapping(tree.Field("a", tree.Int(1)))))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": int64(1)}, out)

	// A single non-string key switches the whole mapping to map[any]any.
	out, err = Decode(tree.New(tree.NewMapping(
		tree.Field("a", tree.Int(1)),
		tree.Entry{Key: tree.Int(2), Val: tree.String("two")},
	)))
	require.NoError(t, err)
	assert.Equal(t, map[any]any{"a": int64(1), int64(2): "two"}, out)
}

func TestDecodeUnhashableMappingKey(t *testing.T) {
	// A sequence-valued key decodes to []any, which cannot key a Go map.
	tr := tree.New(tree.NewMapping(
		tree.Entry{Key: tree.NewSequence(tree.Int(1)), Val: tree.String("x")},
	))
	_, err := Decode(tr)
	assert.True(t, IsStateApplication(err), "got %v", err)
}

func TestDecodeUnknownCallable(t *testing.T) {
	_, err := Decode(tree.New(tree.CallableRecord{ID: 1, Name: "math.lost"}))
	assert.True(t, IsUnknownType(err), "got %v", err)

	bound := tree.NewMapping(tree.Field("n", tree.Int(1)))
	_, err = Decode(tree.New(tree.CallableRecord{ID: 1, Name: "math.lost", Bound: &bound}))
	assert.True(t, IsUnknownType(err), "got %v", err)
}

func TestDecodeBinderFailure(t *testing.T) {
	calls := typeset.NewCallables()
	calls.RegisterBinder("math.fussy", func(state []typeset.Attr) (any, error) {
		return nil, assert.AnError
	})

	bound := tree.NewMapping()
	_, err := Decode(tree.New(tree.CallableRecord{ID: 1, Name: "math.fussy", Bound: &bound}),
		WithCallables(calls))
	assert.True(t, IsStateApplication(err), "got %v", err)
}

func TestDecodeUnknownTypeRef(t *testing.T) {
	_, err := Decode(tree.New(tree.TypeRef("nope.Missing")))
	assert.True(t, IsUnknownType(err), "got %v", err)
}

func TestDecodeConstructorFailure(t *testing.T) {
	reg := typeset.NewRegistry()
	require.NoError(t, reg.Register(testutil.Temperature{}, typeset.WithConstructor(
		[]string{"Celsius"},
		func(args []typeset.Attr) (any, error) { return nil, assert.AnError },
	)))

	tr := tree.New(tree.ObjectRecord{
		ID: 1,
		Type: tree.Descriptor{
			Name:     "github.com/amberlab/amber/internal/testutil.Temperature",
			Strategy: tree.StrategyFromState,
			Args:     []string{"Celsius"},
		},
		State: tree.NewMapping(tree.Field("Celsius", tree.Float(1))),
	})
	_, err := Decode(tr, WithTypes(reg))
	assert.True(t, IsStateApplication(err), "got %v", err)
}
