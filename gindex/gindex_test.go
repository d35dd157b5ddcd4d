package gindex

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSortPreOrderMatchesSpecExample(t *testing.T) {
	in := []GeneralizedIndex{3, 4, 11, 20, 42, 43}
	got := SortPreOrder(append([]GeneralizedIndex{}, in...))
	require.Equal(t, []GeneralizedIndex{4, 20, 42, 43, 11, 3}, got)
}

func TestSiblingParentRoundTrip(t *testing.T) {
	g := GeneralizedIndex(42)
	require.Equal(t, g, g.Sibling().Sibling())
	require.Equal(t, g.Parent(), g.Sibling().Parent())
}

func TestBranchAndPathIndicesStopBeforeRoot(t *testing.T) {
	g := GeneralizedIndex(11)
	path := PathIndices(g)
	require.NotContains(t, path, Root)
	require.Contains(t, path, g)

	branch := BranchIndices(g)
	require.NotContains(t, branch, Root)
	require.Len(t, branch, len(path))
}

func TestHelperIndicesExcludesPathNodes(t *testing.T) {
	set := []GeneralizedIndex{4, 5}
	helpers := HelperIndices(set)
	for _, h := range helpers {
		require.NotContains(t, set, h)
		for _, g := range set {
			require.NotContains(t, PathIndices(g), h)
		}
	}
}

func TestZeroGIndexPanics(t *testing.T) {
	require.Panics(t, func() { GeneralizedIndex(0).Parent() })
}

func TestDepth(t *testing.T) {
	require.Equal(t, uint(0), Root.Depth())
	require.Equal(t, uint(1), GeneralizedIndex(2).Depth())
	require.Equal(t, uint(1), GeneralizedIndex(3).Depth())
	require.Equal(t, uint(5), GeneralizedIndex(42).Depth())
}
