package tree

import (
	"encoding/json"
	"fmt"
)

// Format identification carried on every serialized tree, mirroring the
// protocol/version envelope of the wire format's ancestors. Version
// bumps when the wire layout changes incompatibly.
const (
	FormatName    = "amber"
	FormatVersion = 1
)

// Tree is the portable envelope around an encoded root value.
type Tree struct {
	Format  string
	Version int
	Root    Value
}

// New wraps a root value in an envelope for the current format version.
func New(root Value) *Tree {
	return &Tree{Format: FormatName, Version: FormatVersion, Root: root}
}

// Compatible reports whether this envelope was produced by a codec this
// build can decode.
func (t *Tree) Compatible() bool {
	return t.Format == FormatName && t.Version == FormatVersion
}

type wireTree struct {
	Format  string          `json:"format"`
	Version int             `json:"version"`
	Root    json.RawMessage `json:"root"`
}

// MarshalJSON implements json.Marshaler for Tree.
func (t *Tree) MarshalJSON() ([]byte, error) {
	root, err := MarshalValue(t.Root)
	if err != nil {
		return nil, fmt.Errorf("marshal tree root: %w", err)
	}
	return json.Marshal(wireTree{Format: t.Format, Version: t.Version, Root: root})
}

// UnmarshalJSON implements json.Unmarshaler for Tree. Format and
// version are parsed but not checked here; the decoder rejects
// incompatible envelopes with a typed error.
func (t *Tree) UnmarshalJSON(data []byte) error {
	var wire wireTree
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	root, err := UnmarshalValue(wire.Root)
	if err != nil {
		return fmt.Errorf("unmarshal tree root: %w", err)
	}
	t.Format = wire.Format
	t.Version = wire.Version
	t.Root = root
	return nil
}
