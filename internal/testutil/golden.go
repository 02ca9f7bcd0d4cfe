package testutil

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/amberlab/amber/internal/tree"
)

// AssertTreeGolden compares the canonical bytes of an encoded tree
// against a golden file in testdata/golden/{name}.golden.
//
// Golden files are the source of truth for wire-format stability: a
// diff here means encoded trees from older builds would no longer
// digest or decode identically.
//
// To regenerate golden files, run:
//
//	go test ./... -update
func AssertTreeGolden(t *testing.T, name string, tr *tree.Tree) {
	t.Helper()

	canonical, err := tree.MarshalCanonical(tr.Root)
	if err != nil {
		t.Fatalf("marshal canonical: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, canonical)
}
