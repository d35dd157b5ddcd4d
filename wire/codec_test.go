package wire

import (
	"context"
	"math/big"
	"testing"

	fastssz "github.com/ferranbt/fastssz"
	"github.com/stretchr/testify/require"

	"github.com/risc0-labs/risc0-lido-accounting-oracle/bitvector"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/catalog"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/gindex"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/membership"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/node"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/oracle"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/receipt"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/report"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/ssz"
)

const testTreeDepth = 16

type flatState struct {
	slot, validatorCount uint64
	wc                   node.Node
}

func (s *flatState) GetTree() (*fastssz.Node, error) {
	size := uint64(1) << testTreeDepth
	leaves := make([][]byte, size)
	for i := range leaves {
		leaves[i] = make([]byte, 32)
	}
	return fastssz.TreeFromChunks(leaves)
}

func buildTestMultiproof(t *testing.T) *ssz.Multiproof {
	t.Helper()
	s := &flatState{}
	set := []gindex.GeneralizedIndex{catalog.StateSlot(), catalog.ValidatorsLength()}
	b := &ssz.Builder{}
	mp, err := b.Build(context.Background(), set, s)
	require.NoError(t, err)
	return mp
}

func TestMultiproofRoundTrip(t *testing.T) {
	mp := buildTestMultiproof(t)
	data := EncodeMultiproof(mp)
	got, err := DecodeMultiproof(data)
	require.NoError(t, err)
	require.Equal(t, mp.Data, got.Data)
	require.Equal(t, mp.Descriptor, got.Descriptor)
	require.Equal(t, mp.ValueMask, got.ValueMask)
	require.Equal(t, mp.MaxStackDepth, got.MaxStackDepth)
}

func TestBitvectorRoundTrip(t *testing.T) {
	bv := bitvector.New(70)
	bv.Set(0, true)
	bv.Set(33, true)
	bv.Set(69, true)

	data := EncodeBitvector(bv)
	got, err := DecodeBitvector(data)
	require.NoError(t, err)
	require.Equal(t, bv.Len(), got.Len())
	require.Equal(t, bv.Words(), got.Words())
}

func TestProofTypeInitialRoundTrip(t *testing.T) {
	data, err := EncodeProofType(report.ProofType{})
	require.NoError(t, err)
	c := newCursor(data)
	cont, err := decodeProofType(c)
	require.NoError(t, err)
	require.Nil(t, cont)
}

func TestProofTypeContinuationRoundTrip(t *testing.T) {
	bits := bitvector.New(11)
	bits.Set(5, true)

	var priorRoot node.Node
	priorRoot[0] = 0x42

	cont := &report.Continuation{
		Type:                   report.SameSlot,
		PriorStateRoot:         priorRoot,
		PriorSlot:              6209536,
		PriorMaxValidatorIndex: 10,
		PriorMembership:        bits,
		PriorReceipt:           receipt.NewDummy([]byte("journal-bytes")),
	}

	data, err := EncodeProofType(report.ProofType{Continuation: cont})
	require.NoError(t, err)

	c := newCursor(data)
	decoded, err := decodeProofType(c)
	require.NoError(t, err)
	require.NotNil(t, decoded)
	require.Equal(t, cont.Type, decoded.Type)
	require.Equal(t, cont.PriorStateRoot, decoded.PriorStateRoot)
	require.Equal(t, cont.PriorSlot, decoded.PriorSlot)
	require.Equal(t, cont.PriorMaxValidatorIndex, decoded.PriorMaxValidatorIndex)
	require.Equal(t, cont.PriorMembership.Words(), decoded.PriorMembership.Words())
	require.Equal(t, []byte("journal-bytes"), decoded.PriorReceiptBytes)

	rebuilt := decoded.ToContinuation(func(b []byte) receipt.Interface { return receipt.NewDummy(b) })
	require.Equal(t, cont.PriorStateRoot, rebuilt.PriorStateRoot)
	require.Equal(t, []byte("journal-bytes"), rebuilt.PriorReceipt.Journal())
}

func TestOracleInputRoundTrip(t *testing.T) {
	mp := buildTestMultiproof(t)
	var vaultWei = big.NewInt(12345)

	in := &oracle.Input{
		ProgramID:       node.Node{0x01},
		BlockRoot:       node.Node{0x02},
		BlockMultiproof: mp,
		StateMultiproof: mp,
		Type:            report.ProofType{},
		ExternalCommitment: report.Commitment{
			Value:      node.Node{0x03},
			WeiBalance: vaultWei,
		},
	}

	data, err := EncodeOracleInput(in)
	require.NoError(t, err)

	got, err := DecodeOracleInput(data)
	require.NoError(t, err)
	require.Equal(t, in.ProgramID, got.ProgramID)
	require.Equal(t, in.BlockRoot, got.BlockRoot)
	require.Equal(t, in.ExternalCommitment.Value, got.ExternalCommitment.Value)
	require.Equal(t, vaultWei.String(), got.ExternalCommitment.WeiBalance.String())
	require.Nil(t, got.Continuation)
}

func TestMembershipInputRoundTrip(t *testing.T) {
	mp := buildTestMultiproof(t)

	in := &membership.Input{
		ProgramID:       node.Node{0x01},
		StateRoot:       node.Node{0x02},
		StateMultiproof: mp,
		Type:            report.ProofType{},
	}

	data, err := EncodeMembershipInput(in)
	require.NoError(t, err)

	got, err := DecodeMembershipInput(data)
	require.NoError(t, err)
	require.Equal(t, in.ProgramID, got.ProgramID)
	require.Equal(t, in.StateRoot, got.StateRoot)
	require.Nil(t, got.Continuation)
}

func TestOracleJournalABIRoundTrip(t *testing.T) {
	j := &oracle.Journal{
		CLBalanceGwei:             123456,
		WithdrawalVaultBalanceWei: big.NewInt(7890),
		TotalDepositedValidators:  11,
		TotalExitedValidators:     2,
		BlockRoot:                 node.Node{0xAA},
		ExternalCommitment:        node.Node{0xBB},
		MembershipCommitment:      node.Node{0xCC},
	}

	data, err := EncodeOracleJournalABI(j)
	require.NoError(t, err)

	got, err := DecodeOracleJournalABI(data)
	require.NoError(t, err)
	require.Equal(t, j.CLBalanceGwei, got.CLBalanceGwei)
	require.Equal(t, j.WithdrawalVaultBalanceWei.String(), got.WithdrawalVaultBalanceWei.String())
	require.Equal(t, j.TotalDepositedValidators, got.TotalDepositedValidators)
	require.Equal(t, j.TotalExitedValidators, got.TotalExitedValidators)
	require.Equal(t, j.BlockRoot, got.BlockRoot)
	require.Equal(t, j.ExternalCommitment, got.ExternalCommitment)
	require.Equal(t, j.MembershipCommitment, got.MembershipCommitment)
}
