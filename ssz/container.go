package ssz

import (
	"fmt"

	fastssz "github.com/ferranbt/fastssz"

	"github.com/risc0-labs/risc0-lido-accounting-oracle/gindex"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/node"
)

// Container is anything that can produce a cached, read-only Merkle tree —
// the same shape generated fastssz types expose (BeaconState.GetTree(),
// BeaconBlock.GetTree() across the retrieval pack). MultiproofBuilder reads
// leaves from this tree; it never mutates it, so the same cached tree may
// be shared read-only across parallel builder goroutines.
type Container interface {
	GetTree() (*fastssz.Node, error)
}

// leafAt returns the 32-byte node at the given generalized index within
// the container's cached tree.
func leafAt(tree *fastssz.Node, g gindex.GeneralizedIndex) (node.Node, error) {
	if g == 0 {
		return node.Node{}, ErrInvalidGeneralizedIndex
	}
	sub, err := tree.Get(int(g))
	if err != nil {
		return node.Node{}, fmt.Errorf("ssz: gindex %d: %w", g, err)
	}
	var out node.Node
	copy(out[:], sub.Hash())
	return out, nil
}
