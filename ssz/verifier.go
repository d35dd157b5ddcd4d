package ssz

import (
	"github.com/risc0-labs/risc0-lido-accounting-oracle/gindex"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/node"
)

// NodeIterator walks a verified Multiproof's provided nodes in pre-order,
// pairing each with the generalized index it occupies. Construct via
// Multiproof.Nodes().
type NodeIterator struct {
	gindices []gindex.GeneralizedIndex
	mask     []bool
	data     []node.Node
	pos      int
}

// Nodes returns an iterator over every provided node (values and helpers)
// in pre-order.
func (m *Multiproof) Nodes() *NodeIterator {
	return &NodeIterator{
		gindices: gindexSequence(m.Descriptor),
		mask:     m.ValueMask,
		data:     m.Data,
	}
}

// Next returns the next (gindex, node) pair, or ok=false when exhausted.
func (it *NodeIterator) Next() (g gindex.GeneralizedIndex, n node.Node, ok bool) {
	if it.pos >= len(it.gindices) || it.pos >= len(it.data) {
		return 0, node.Node{}, false
	}
	g, n = it.gindices[it.pos], it.data[it.pos]
	it.pos++
	return g, n, true
}

// ValueIterator filters NodeIterator down to the nodes the producer
// explicitly requested (ValueMask bit set), in tree pre-order (the order
// Builder.Build sorts them into, whatever order they were passed in).
type ValueIterator struct {
	it  *NodeIterator
	pos int
}

// Values returns an iterator over only the requested (non-helper) nodes.
func (m *Multiproof) Values() *ValueIterator {
	return &ValueIterator{it: m.Nodes()}
}

// Next returns the next value's (gindex, node) pair, or ok=false when
// exhausted.
func (vi *ValueIterator) Next() (g gindex.GeneralizedIndex, n node.Node, ok bool) {
	for {
		gg, nn, has := vi.it.Next()
		if !has {
			return 0, node.Node{}, false
		}
		isValue := vi.pos < len(vi.it.mask) && vi.it.mask[vi.pos]
		vi.pos++
		if isValue {
			return gg, nn, true
		}
	}
}

// NextAssertGIndex returns the next value's node, asserting its gindex
// equals expected. This is the contract MembershipEngine/OracleEngine
// rely on: leaves are consumed in tree pre-order, and
// any drift is a hard, structured error rather than silent misreads.
func (vi *ValueIterator) NextAssertGIndex(expected gindex.GeneralizedIndex) (node.Node, error) {
	g, n, ok := vi.Next()
	if !ok {
		return node.Node{}, ErrMissingValue
	}
	if g != expected {
		return node.Node{}, &GIndexMismatchError{Expected: uint64(expected), Actual: uint64(g)}
	}
	return n, nil
}

// Get performs a linear O(k) scan for the node at gindex g. Intended for
// single-shot lookups only — MembershipEngine/OracleEngine must use
// Values()/NextAssertGIndex for the ordered bulk reads on the hot path.
func (m *Multiproof) Get(g gindex.GeneralizedIndex) (node.Node, bool) {
	it := m.Nodes()
	for {
		gg, nn, ok := it.Next()
		if !ok {
			return node.Node{}, false
		}
		if gg == g {
			return nn, true
		}
	}
}
