package ssz

import (
	"github.com/risc0-labs/risc0-lido-accounting-oracle/gindex"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/node"
)

// Multiproof is a compact Merkle multi-proof: a contiguous buffer of
// interior-and-leaf nodes in tree pre-order (Data), a shape descriptor in
// tree pre-order (Descriptor: false = internal/recurse, true = provided
// node consumed from Data), a ValueMask aligned with the true-bits of
// Descriptor marking which provided nodes are values the producer
// explicitly requested (as opposed to helper witnesses), and a
// MaxStackDepth hint for pre-sizing the verifier's stack.
type Multiproof struct {
	Data          []node.Node
	Descriptor    []bool
	ValueMask     []bool
	MaxStackDepth int
}

// Validate checks the structural invariants from §3: |Data| = popcount
// (Descriptor), |ValueMask| = popcount(Descriptor), and Descriptor parses
// to exactly one complete tree.
func (m *Multiproof) Validate() error {
	k := popcount(m.Descriptor)
	if len(m.Data) != k {
		return ErrInvalidProof
	}
	if len(m.ValueMask) != k {
		return ErrInvalidProof
	}
	if _, err := m.ComputeRoot(); err != nil {
		return err
	}
	return nil
}

func popcount(bits []bool) int {
	n := 0
	for _, b := range bits {
		if b {
			n++
		}
	}
	return n
}

// stackKind tags an entry on the verifier's reduction stack.
type stackKind uint8

const (
	kindInternal stackKind = iota
	kindValue
)

type stackItem struct {
	kind stackKind
	node node.Node
}

// ComputeRoot runs the stack-machine reduction described in §4.3 over
// Descriptor and Data and returns the recomputed root. It is the hot path
// executed inside the proving VM.
func (m *Multiproof) ComputeRoot() (node.Node, error) {
	stack := make([]stackItem, 0, m.MaxStackDepth+1)
	dataIdx := 0

	for _, bit := range m.Descriptor {
		if !bit {
			stack = append(stack, stackItem{kind: kindInternal})
		} else {
			if dataIdx >= len(m.Data) {
				return node.Node{}, ErrInvalidProof
			}
			stack = append(stack, stackItem{kind: kindValue, node: m.Data[dataIdx]})
			dataIdx++
		}

		for len(stack) >= 3 &&
			stack[len(stack)-3].kind == kindInternal &&
			stack[len(stack)-2].kind == kindValue &&
			stack[len(stack)-1].kind == kindValue {

			right := stack[len(stack)-1].node
			left := stack[len(stack)-2].node
			stack = stack[:len(stack)-3]
			stack = append(stack, stackItem{kind: kindValue, node: node.HashPair(left, right)})
		}
	}

	if dataIdx != len(m.Data) {
		return node.Node{}, ErrInvalidProof
	}
	if len(stack) != 1 || stack[0].kind != kindValue {
		return node.Node{}, ErrInvalidProof
	}
	return stack[0].node, nil
}

// Verify recomputes the root and compares it against the expected root.
func (m *Multiproof) Verify(root node.Node) error {
	got, err := m.ComputeRoot()
	if err != nil {
		return err
	}
	if got != root {
		return ErrRootMismatch
	}
	return nil
}

// DryRunMaxStackDepth simulates the verifier state machine over descriptor
// (ignoring actual node values) and returns the maximum stack depth
// reached, used by the builder to populate Multiproof.MaxStackDepth.
func DryRunMaxStackDepth(descriptor []bool) int {
	stack := make([]stackKind, 0, len(descriptor))
	maxDepth := 0

	for _, bit := range descriptor {
		if !bit {
			stack = append(stack, kindInternal)
		} else {
			stack = append(stack, kindValue)
		}
		if len(stack) > maxDepth {
			maxDepth = len(stack)
		}
		for len(stack) >= 3 &&
			stack[len(stack)-3] == kindInternal &&
			stack[len(stack)-2] == kindValue &&
			stack[len(stack)-1] == kindValue {
			stack = append(stack[:len(stack)-3], kindValue)
		}
	}
	return maxDepth
}

// gindexSequence replays the pre-order tree walk the builder used to lay
// out Descriptor/Data, yielding each provided node's generalized index in
// the same order Data stores them. The verifier's NodeIterator uses it;
// Builder.Build lays out Data and ValueMask from its own pre-order-sorted
// gindex list instead.
func gindexSequence(descriptor []bool) []gindex.GeneralizedIndex {
	type pending struct{ g gindex.GeneralizedIndex }
	stack := []pending{{gindex.Root}}
	var out []gindex.GeneralizedIndex

	for i := 0; i < len(descriptor) && len(stack) > 0; i++ {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if descriptor[i] {
			out = append(out, top.g)
		} else {
			stack = append(stack, pending{top.g.Right()}, pending{top.g.Left()})
		}
	}
	return out
}
