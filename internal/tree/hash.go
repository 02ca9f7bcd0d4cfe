package tree

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefix for content-addressed tree digests. Version suffix
// enables future algorithm migration.
const DomainTree = "amber/tree/v1"

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null byte separator
// prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Digest computes the content-addressed digest of an encoded tree.
// Stable across processes and restarts for the same encoded content,
// including format version and sharing topology.
func Digest(t *Tree) (string, error) {
	root, err := MarshalCanonical(t.Root)
	if err != nil {
		return "", fmt.Errorf("digest: %w", err)
	}
	payload := fmt.Sprintf("%s@%d:%s", t.Format, t.Version, root)
	return hashWithDomain(DomainTree, []byte(payload)), nil
}

// MustDigest is like Digest but panics on error.
// Use only in tests or when the tree is known to be well-formed.
func MustDigest(t *Tree) string {
	d, err := Digest(t)
	if err != nil {
		panic(err)
	}
	return d
}
