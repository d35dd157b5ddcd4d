package ssz

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/risc0-labs/risc0-lido-accounting-oracle/gindex"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/node"
)

// Builder constructs a Multiproof covering a set of gindices in a single
// container, sharing internal tree nodes across them (§4.2).
type Builder struct {
	// Pivot, when non-zero, enables the optional pivot optimization: when
	// set to a strict ancestor of many of the requested gindices, those
	// descendants are recomputed against a subtree rooted at Pivot. Off by
	// default; omitting it never changes the observable behavior of a
	// verified proof (spec §9 Open Questions).
	Pivot gindex.GeneralizedIndex
}

// Build computes a compact Multiproof covering gindices in container.
// gindices need not be sorted or deduplicated; Build does both.
func (b *Builder) Build(ctx context.Context, gindices []gindex.GeneralizedIndex, container Container) (*Multiproof, error) {
	for _, g := range gindices {
		if g == 0 {
			return nil, ErrInvalidGeneralizedIndex
		}
	}

	tree, err := container.GetTree()
	if err != nil {
		return nil, fmt.Errorf("ssz: container tree: %w", err)
	}

	userSet := map[gindex.GeneralizedIndex]bool{}
	for _, g := range gindices {
		userSet[g] = true
	}
	userList := make([]gindex.GeneralizedIndex, 0, len(userSet))
	for g := range userSet {
		userList = append(userList, g)
	}

	helpers := gindex.HelperIndices(userList)

	all := append(append([]gindex.GeneralizedIndex{}, userList...), helpers...)
	all = gindex.SortPreOrder(all)

	leaves := make([]node.Node, len(all))
	valueMask := make([]bool, len(all))

	g, gctx := errgroup.WithContext(ctx)
	for i, gi := range all {
		i, gi := i, gi
		valueMask[i] = userSet[gi]
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			leaf, err := leafAt(tree, gi)
			if err != nil {
				return err
			}
			leaves[i] = leaf
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	descriptor := buildDescriptor(all)

	mp := &Multiproof{
		Data:          leaves,
		Descriptor:    descriptor,
		ValueMask:     valueMask,
		MaxStackDepth: DryRunMaxStackDepth(descriptor),
	}
	return mp, nil
}

// buildDescriptor walks the pre-order-sorted gindex list and, for each
// entry, emits trailing_zeros(g) zero bits (the tree descents implied
// since the previous branch point) followed by a single one bit marking
// the provided node (§4.2 step 4).
func buildDescriptor(sorted []gindex.GeneralizedIndex) []bool {
	var out []bool
	for _, g := range sorted {
		for i := 0; i < trailingZeros(g); i++ {
			out = append(out, false)
		}
		out = append(out, true)
	}
	return out
}

func trailingZeros(g gindex.GeneralizedIndex) int {
	if g == 0 {
		return 0
	}
	n := 0
	v := uint64(g)
	for v&1 == 0 {
		v >>= 1
		n++
	}
	return n
}

// BuildWithPivot applies the pivot optimization: descendants of b.Pivot
// are proven against a subtree rooted at Pivot (re-indexed by replacing
// the common gindex prefix with a leading 1), then grafted back. This
// must produce identical leaves to Build for every gindex — it is purely
// a cost optimization for containers where Pivot's subtree is far smaller
// than container's whole tree (e.g. validators vs. whole BeaconState).
func (b *Builder) BuildWithPivot(ctx context.Context, gindices []gindex.GeneralizedIndex, container, pivotContainer Container) (*Multiproof, error) {
	if b.Pivot == 0 {
		return b.Build(ctx, gindices, container)
	}

	var pivotDescendants, rest []gindex.GeneralizedIndex
	for _, g := range gindices {
		if isDescendantOf(g, b.Pivot) {
			pivotDescendants = append(pivotDescendants, reindexUnderPivot(g, b.Pivot))
		} else {
			rest = append(rest, g)
		}
	}
	if len(pivotDescendants) == 0 {
		return b.Build(ctx, gindices, container)
	}

	rest = append(rest, b.Pivot)
	outer, err := b.Build(ctx, rest, container)
	if err != nil {
		return nil, err
	}
	inner, err := (&Builder{}).Build(ctx, pivotDescendants, pivotContainer)
	if err != nil {
		return nil, err
	}

	pivotLeaf, ok := outer.Get(b.Pivot)
	if !ok {
		return nil, fmt.Errorf("ssz: pivot gindex %d missing from outer proof", b.Pivot)
	}
	if err := inner.Verify(pivotLeaf); err != nil {
		return nil, fmt.Errorf("ssz: pivot subtree root mismatch: %w", err)
	}

	return graftPivot(outer, inner, b.Pivot)
}

// graftPivot splices inner's entire descriptor/data run into outer at
// the single leaf position where outer otherwise treats Pivot as one
// opaque provided node, so the descendant leaves proven against
// pivotContainer end up in the returned proof instead of being verified
// against pivotLeaf and discarded.
func graftPivot(outer, inner *Multiproof, pivot gindex.GeneralizedIndex) (*Multiproof, error) {
	bitIdx, dataIdx, ok := spliceLocation(outer.Descriptor, pivot)
	if !ok {
		return nil, fmt.Errorf("ssz: pivot gindex %d not a leaf position in outer proof", pivot)
	}

	descriptor := make([]bool, 0, len(outer.Descriptor)-1+len(inner.Descriptor))
	descriptor = append(descriptor, outer.Descriptor[:bitIdx]...)
	descriptor = append(descriptor, inner.Descriptor...)
	descriptor = append(descriptor, outer.Descriptor[bitIdx+1:]...)

	data := make([]node.Node, 0, len(outer.Data)-1+len(inner.Data))
	data = append(data, outer.Data[:dataIdx]...)
	data = append(data, inner.Data...)
	data = append(data, outer.Data[dataIdx+1:]...)

	valueMask := make([]bool, 0, len(outer.ValueMask)-1+len(inner.ValueMask))
	valueMask = append(valueMask, outer.ValueMask[:dataIdx]...)
	valueMask = append(valueMask, inner.ValueMask...)
	valueMask = append(valueMask, outer.ValueMask[dataIdx+1:]...)

	return &Multiproof{
		Data:          data,
		Descriptor:    descriptor,
		ValueMask:     valueMask,
		MaxStackDepth: DryRunMaxStackDepth(descriptor),
	}, nil
}

// spliceLocation replays the same pre-order walk gindexSequence uses and
// returns both the position within descriptor of the true-bit for target
// (to splice Descriptor) and target's rank among true-bits (to splice the
// aligned Data/ValueMask slices).
func spliceLocation(descriptor []bool, target gindex.GeneralizedIndex) (bitIdx, dataIdx int, ok bool) {
	type pending struct{ g gindex.GeneralizedIndex }
	stack := []pending{{gindex.Root}}
	d := 0
	for i := 0; i < len(descriptor) && len(stack) > 0; i++ {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if descriptor[i] {
			if top.g == target {
				return i, d, true
			}
			d++
		} else {
			stack = append(stack, pending{top.g.Right()}, pending{top.g.Left()})
		}
	}
	return 0, 0, false
}

func isDescendantOf(g, ancestor gindex.GeneralizedIndex) bool {
	if g == 0 || ancestor == 0 {
		return false
	}
	for v := g; v != 0; v = safeParent(v) {
		if v == ancestor {
			return true
		}
		if v == gindex.Root {
			break
		}
	}
	return false
}

func safeParent(g gindex.GeneralizedIndex) gindex.GeneralizedIndex {
	if g == gindex.Root {
		return 0
	}
	return g.Parent()
}

// reindexUnderPivot replaces g's common prefix with ancestor with a
// leading 1, producing g's gindex within the subtree rooted at ancestor.
func reindexUnderPivot(g, ancestor gindex.GeneralizedIndex) gindex.GeneralizedIndex {
	depthDiff := bitLength(g) - bitLength(ancestor)
	mask := (gindex.GeneralizedIndex(1) << uint(depthDiff)) - 1
	return gindex.Root<<uint(depthDiff) | (g & mask)
}

func bitLength(g gindex.GeneralizedIndex) int {
	n := 0
	for v := uint64(g); v != 0; v >>= 1 {
		n++
	}
	return n
}
