package ssz

import (
	fastssz "github.com/ferranbt/fastssz"
)

// fixedTree is a minimal Container backed by a precomputed list of leaves,
// used by this package's own tests to exercise Builder/Verifier without
// depending on a real Beacon container.
type fixedTree struct {
	leaves [][]byte
}

func (f *fixedTree) GetTree() (*fastssz.Node, error) {
	return fastssz.TreeFromChunks(f.leaves)
}
