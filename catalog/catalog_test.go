package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/risc0-labs/risc0-lido-accounting-oracle/gindex"
)

// TestCanonicalGIndicesMatchSpecExamples checks the closed-form formulas
// against the generalized indices spec.md §4.4 gives directly. Only
// these fixed examples are checked, not a range of indices against a
// canonical schema library.
func TestCanonicalGIndicesMatchSpecExamples(t *testing.T) {
	require.Equal(t, gindex.GeneralizedIndex(8), BlockSlot())
	require.Equal(t, gindex.GeneralizedIndex(11), BlockStateRoot())
	require.Equal(t, gindex.GeneralizedIndex(34), StateSlot())
	require.Equal(t, gindex.GeneralizedIndex(87), ValidatorsLength())
	require.Equal(t, gindex.GeneralizedIndex(24576), HistoricalBatchStateRoots(0))
}

func TestStateRootsWrapsAtSlotsPerHistoricalRoot(t *testing.T) {
	require.Equal(t, Mainnet.StateRoots(0), Mainnet.StateRoots(8192))
	require.NotEqual(t, Mainnet.StateRoots(0), Mainnet.StateRoots(1))
}

func TestBalancesGroupFourPerChunk(t *testing.T) {
	require.Equal(t, Mainnet.Balances(0), Mainnet.Balances(1))
	require.Equal(t, Mainnet.Balances(0), Mainnet.Balances(3))
	require.NotEqual(t, Mainnet.Balances(0), Mainnet.Balances(4))
}

func TestWithdrawalCredentialsAndExitEpochDistinctPerValidator(t *testing.T) {
	require.NotEqual(t, Mainnet.WithdrawalCredentials(0), Mainnet.WithdrawalCredentials(1))
	require.NotEqual(t, Mainnet.WithdrawalCredentials(0), Mainnet.ExitEpoch(0))
	require.NotEqual(t, Mainnet.ExitEpoch(0), Mainnet.ExitEpoch(1))
}

func TestSmallSchemaFormulasStayConsistent(t *testing.T) {
	small := NewSchema(16, 8)
	require.Equal(t, small.Balances(0), small.Balances(3))
	require.NotEqual(t, small.Balances(0), small.Balances(4))
	require.NotEqual(t, small.WithdrawalCredentials(0), Mainnet.WithdrawalCredentials(0))
}

func TestUnpackBalanceRoundTrip(t *testing.T) {
	var leaf [32]byte
	// validator 2's slot within its chunk is bytes [16:24).
	leaf[16] = 0xEF
	leaf[17] = 0xBE
	leaf[18] = 0xAD
	leaf[19] = 0xDE
	got := UnpackBalance(leaf, 2)
	require.Equal(t, uint64(0xDEADBEEF), got)
}
