package ssz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/risc0-labs/risc0-lido-accounting-oracle/gindex"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/node"
)

func leavesOf(n int) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		leaf := make([]byte, 32)
		leaf[0] = byte(i + 1)
		out[i] = leaf
	}
	return out
}

func TestBuilderRoundTrip(t *testing.T) {
	c := &fixedTree{leaves: leavesOf(8)}
	tree, err := c.GetTree()
	require.NoError(t, err)
	root, err := leafAt(tree, gindex.Root)
	require.NoError(t, err)

	set := []gindex.GeneralizedIndex{8, 9, 13}
	b := &Builder{}
	mp, err := b.Build(context.Background(), set, c)
	require.NoError(t, err)
	require.NoError(t, mp.Validate())

	require.NoError(t, mp.Verify(root))

	seen := map[gindex.GeneralizedIndex]node.Node{}
	vi := mp.Values()
	for {
		g, n, ok := vi.Next()
		if !ok {
			break
		}
		seen[g] = n
	}
	require.Len(t, seen, len(set))
	for _, g := range set {
		leaf, err := leafAt(tree, g)
		require.NoError(t, err)
		require.Equal(t, leaf, seen[g])
	}
}

func TestBuilderRejectsZeroGIndex(t *testing.T) {
	c := &fixedTree{leaves: leavesOf(4)}
	b := &Builder{}
	_, err := b.Build(context.Background(), []gindex.GeneralizedIndex{0}, c)
	require.ErrorIs(t, err, ErrInvalidGeneralizedIndex)
}

func TestVerifierRejectsTamperedData(t *testing.T) {
	c := &fixedTree{leaves: leavesOf(8)}
	tree, err := c.GetTree()
	require.NoError(t, err)
	root, err := leafAt(tree, gindex.Root)
	require.NoError(t, err)

	b := &Builder{}
	mp, err := b.Build(context.Background(), []gindex.GeneralizedIndex{8, 9, 13}, c)
	require.NoError(t, err)

	mp.Data[0][0] ^= 0xFF
	require.ErrorIs(t, mp.Verify(root), ErrRootMismatch)
}

func TestVerifierRejectsWrongRoot(t *testing.T) {
	c := &fixedTree{leaves: leavesOf(8)}
	b := &Builder{}
	mp, err := b.Build(context.Background(), []gindex.GeneralizedIndex{8, 9, 13}, c)
	require.NoError(t, err)

	var wrong node.Node
	wrong[0] = 0xAB
	require.ErrorIs(t, mp.Verify(wrong), ErrRootMismatch)
}

func TestNextAssertGIndexDetectsDrift(t *testing.T) {
	c := &fixedTree{leaves: leavesOf(8)}
	b := &Builder{}
	mp, err := b.Build(context.Background(), []gindex.GeneralizedIndex{8, 9, 13}, c)
	require.NoError(t, err)

	vi := mp.Values()
	_, err = vi.NextAssertGIndex(9)
	var mismatch *GIndexMismatchError
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, uint64(9), mismatch.Expected)
	require.Equal(t, uint64(8), mismatch.Actual)
}

func TestDescriptorAndValueMaskLengthInvariant(t *testing.T) {
	c := &fixedTree{leaves: leavesOf(16)}
	b := &Builder{}
	mp, err := b.Build(context.Background(), []gindex.GeneralizedIndex{16, 20, 31}, c)
	require.NoError(t, err)

	k := popcount(mp.Descriptor)
	require.Len(t, mp.Data, k)
	require.Len(t, mp.ValueMask, k)
}

func TestBuildWithPivotGraftsDescendantLeaves(t *testing.T) {
	outerLeaves := leavesOf(16)
	outer := &fixedTree{leaves: outerLeaves}
	pivotContainer := &fixedTree{leaves: append([][]byte{}, outerLeaves[:8]...)}

	tree, err := outer.GetTree()
	require.NoError(t, err)
	root, err := leafAt(tree, gindex.Root)
	require.NoError(t, err)

	// 17 and 23 descend from pivot gindex 2 (the subtree pivotContainer
	// independently merkleizes); 25 doesn't and must still come out of
	// the proof via the outer container alone.
	set := []gindex.GeneralizedIndex{17, 23, 25}
	b := &Builder{Pivot: 2}
	mp, err := b.BuildWithPivot(context.Background(), set, outer, pivotContainer)
	require.NoError(t, err)
	require.NoError(t, mp.Validate())
	require.NoError(t, mp.Verify(root))

	seen := map[gindex.GeneralizedIndex]node.Node{}
	vi := mp.Values()
	for {
		g, n, ok := vi.Next()
		if !ok {
			break
		}
		seen[g] = n
	}
	require.Len(t, seen, len(set))
	for _, g := range set {
		leaf, err := leafAt(tree, g)
		require.NoError(t, err)
		require.Equal(t, leaf, seen[g])
	}
}

func TestBuildWithPivotRejectsSubtreeRootMismatch(t *testing.T) {
	outerLeaves := leavesOf(16)
	outer := &fixedTree{leaves: outerLeaves}
	staleLeaves := leavesOf(8)
	staleLeaves[0][0] = 0xFF // disagrees with outerLeaves[:8]
	pivotContainer := &fixedTree{leaves: staleLeaves}

	b := &Builder{Pivot: 2}
	_, err := b.BuildWithPivot(context.Background(), []gindex.GeneralizedIndex{17, 25}, outer, pivotContainer)
	require.ErrorIs(t, err, ErrRootMismatch)
}

func TestGIndexReconstructionMatchesSpecExample(t *testing.T) {
	descriptor := []bool{false, false, true, false, false, true, false, true, true, true, true}
	got := gindexSequence(descriptor)
	want := []gindex.GeneralizedIndex{4, 20, 42, 43, 11, 3}
	require.Equal(t, want, got)
}
