// Package node defines the 32-byte Merkle chunk type shared by every
// layer of the engine, aliased directly onto ztyp's own root type so SSZ
// hash-tree roots computed by zrnt/ztyp interoperate with multiproof leaves
// without copying.
package node

import (
	"crypto/sha256"

	"github.com/protolambda/ztyp/tree"
)

// Node is the unit of Merkle hashing: a 32-byte chunk.
type Node = tree.Root

// Zero is the all-zero node, used to pad incomplete SSZ subtrees.
var Zero Node

// HashPair computes SHA-256(left || right) using the streaming two-update
// pattern: left is written before right, never concatenated in memory.
func HashPair(left, right Node) Node {
	h := sha256.New()
	h.Write(left[:])
	h.Write(right[:])

	var out Node
	h.Sum(out[:0])
	return out
}
