package membership

import (
	"context"
	"encoding/binary"
	"testing"

	fastssz "github.com/ferranbt/fastssz"
	"github.com/stretchr/testify/require"

	"github.com/risc0-labs/risc0-lido-accounting-oracle/bitvector"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/catalog"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/config"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/gindex"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/node"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/receipt"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/report"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/ssz"
)

// testSchema caps the validator registry at 16 entries and
// historical-roots at 8 so the catalog's real formulas land at small
// enough gindices to hand-compose in a unit test, instead of mainnet's
// 2**40-wide registry.
var testSchema = catalog.NewSchema(16, 8)

// beaconStateFieldCount mirrors catalog's own container layout: 32
// fields at depth 5 (catalog.beaconStateFieldCount). The field indices
// used below (2, 6, 11, 27) are catalog's own unexported
// beaconStateSlotIdx/StateRootsIdx/ValidatorsIdx/HistSummariesIdx; this
// package only consumes catalog's exported gindex formulas, not its
// field table, so they're reproduced here.
const beaconStateFieldCount = 32

func zeroNode() *fastssz.Node { return fastssz.NewNodeWithValue(make([]byte, 32)) }

func u64Node(v uint64) *fastssz.Node {
	buf := make([]byte, 32)
	binary.LittleEndian.PutUint64(buf[:8], v)
	return fastssz.NewNodeWithValue(buf)
}

func rawNode(n node.Node) *fastssz.Node {
	return fastssz.NewNodeWithValue(append([]byte{}, n[:]...))
}

// nodeTree pairwise-composes a power-of-two slice of already-merkleized
// subtree roots into one tree, the same balancing fastssz.TreeFromChunks
// does over raw leaf bytes — except these children can carry real
// substructure of their own. A single TreeFromChunks call only ever
// produces leaves at one uniform depth, so it can't host a shallow field
// like slot alongside a deeply-nested one like withdrawal_credentials in
// the same tree; composing already-built Nodes is the only way to graft
// mixed depths together.
func nodeTree(nodes []*fastssz.Node) *fastssz.Node {
	layer := nodes
	for len(layer) > 1 {
		next := make([]*fastssz.Node, len(layer)/2)
		for i := range next {
			next[i] = fastssz.NewNodeWithLR(layer[2*i], layer[2*i+1])
		}
		layer = next
	}
	return layer[0]
}

func denseNodes(n uint64, at func(uint64) *fastssz.Node) []*fastssz.Node {
	out := make([]*fastssz.Node, n)
	for i := range out {
		out[i] = at(uint64(i))
	}
	return out
}

// stubState hand-composes a BeaconState tree with real nested structure
// at every depth the catalog's formulas expect: a shallow slot leaf
// alongside deeply-nested validators/state_roots/historical_summaries
// subtrees. A flattened fastssz.TreeFromChunks tree can only place
// leaves at one uniform depth, so it cannot represent slot (depth 5) and
// withdrawal_credentials (depth 13 under testSchema) simultaneously.
type stubState struct {
	slot           uint64
	validatorCount uint64
	lido           map[uint64]bool
	exitEpoch      map[uint64]uint64
	wc, other      node.Node

	// Populated only by continuation tests.
	priorStateRoot node.Node
	priorSlot      uint64
	summaryRoot    node.Node
	summaryIndex   uint64
}

func (s *stubState) validatorNode(v uint64) *fastssz.Node {
	wc := s.other
	if s.lido[v] {
		wc = s.wc
	}
	return nodeTree([]*fastssz.Node{
		zeroNode(),              // pubkey
		rawNode(wc),             // withdrawal_credentials
		zeroNode(),              // effective_balance
		zeroNode(),              // slashed
		zeroNode(),              // activation_eligibility_epoch
		zeroNode(),              // activation_epoch
		u64Node(s.exitEpoch[v]), // exit_epoch
		zeroNode(),              // withdrawable_epoch
	})
}

func (s *stubState) validatorsFieldNode() *fastssz.Node {
	data := nodeTree(denseNodes(testSchema.ValidatorRegistryLimit, func(v uint64) *fastssz.Node {
		if v < s.validatorCount {
			return s.validatorNode(v)
		}
		return zeroNode()
	}))
	return fastssz.NewNodeWithLR(data, u64Node(s.validatorCount))
}

func (s *stubState) stateRootsFieldNode() *fastssz.Node {
	return nodeTree(denseNodes(uint64(config.SlotsPerHistoricalRoot), func(i uint64) *fastssz.Node {
		if i == s.priorSlot%uint64(config.SlotsPerHistoricalRoot) {
			return rawNode(s.priorStateRoot)
		}
		return zeroNode()
	}))
}

func (s *stubState) historicalSummariesFieldNode() *fastssz.Node {
	data := nodeTree(denseNodes(testSchema.HistoricalRootsLimit, func(i uint64) *fastssz.Node {
		if i == s.summaryIndex {
			return rawNode(s.summaryRoot)
		}
		return zeroNode()
	}))
	return fastssz.NewNodeWithLR(data, u64Node(testSchema.HistoricalRootsLimit))
}

func (s *stubState) GetTree() (*fastssz.Node, error) {
	fields := denseNodes(beaconStateFieldCount, func(uint64) *fastssz.Node { return zeroNode() })
	fields[2] = u64Node(s.slot)
	fields[6] = s.stateRootsFieldNode()
	fields[11] = s.validatorsFieldNode()
	fields[27] = s.historicalSummariesFieldNode()
	return nodeTree(fields), nil
}

// stubHistoricalBatch hand-composes a two-field HistoricalBatch tree
// (block_roots unused, state_roots a real SLOTS_PER_HISTORICAL_ROOT-deep
// vector) the same way stubState composes BeaconState.
type stubHistoricalBatch struct {
	priorSlot      uint64
	priorStateRoot node.Node
}

func (h *stubHistoricalBatch) GetTree() (*fastssz.Node, error) {
	stateRoots := nodeTree(denseNodes(uint64(config.SlotsPerHistoricalRoot), func(i uint64) *fastssz.Node {
		if i == h.priorSlot%uint64(config.SlotsPerHistoricalRoot) {
			return rawNode(h.priorStateRoot)
		}
		return zeroNode()
	}))
	return nodeTree([]*fastssz.Node{zeroNode(), stateRoots}), nil
}

// membershipSet is the gindex set BuildMembershipInput queues for a
// validator range [from, upto): slot and validators.length always, plus
// one withdrawal_credentials leaf per new validator.
func membershipSet(from, upto uint64) []gindex.GeneralizedIndex {
	set := []gindex.GeneralizedIndex{catalog.StateSlot(), catalog.ValidatorsLength()}
	for v := from; v < upto; v++ {
		set = append(set, testSchema.WithdrawalCredentials(v))
	}
	return set
}

func buildStateProof(t *testing.T, s *stubState, set []gindex.GeneralizedIndex) (*ssz.Multiproof, node.Node) {
	t.Helper()
	tree, err := s.GetTree()
	require.NoError(t, err)
	root, err := tree.Get(1)
	require.NoError(t, err)
	var rootNode node.Node
	copy(rootNode[:], root.Hash())

	b := &ssz.Builder{}
	mp, err := b.Build(context.Background(), set, s)
	require.NoError(t, err)
	return mp, rootNode
}

func TestInitialMembershipOneLido(t *testing.T) {
	var wc, other node.Node
	wc[0] = 0xAA
	other[0] = 0xBB

	s := &stubState{
		slot:           6209536,
		validatorCount: 11,
		lido:           map[uint64]bool{5: true},
		exitEpoch:      map[uint64]uint64{},
		wc:             wc,
		other:          other,
	}
	mp, root := buildStateProof(t, s, membershipSet(0, s.validatorCount))

	e := Engine{Schema: testSchema}
	j, err := e.UpdateMembership(Input{
		StateRoot:       root,
		StateMultiproof: mp,
		Type:            report.ProofType{},
	}, wc)
	require.NoError(t, err)
	require.Equal(t, uint64(10), j.MaxValidatorIndex)
	require.True(t, j.Membership.Get(5))
	for v := uint64(0); v < 11; v++ {
		if v != 5 {
			require.False(t, j.Membership.Get(v), "validator %d", v)
		}
	}
}

func TestContinuationSameSlotRejectsSlotMismatch(t *testing.T) {
	var wc, other node.Node
	wc[0] = 0xAA
	other[0] = 0xBB

	s := &stubState{
		slot:           6209537,
		validatorCount: 11,
		lido:           map[uint64]bool{5: true},
		exitEpoch:      map[uint64]uint64{},
		wc:             wc,
		other:          other,
	}
	mp, root := buildStateProof(t, s, membershipSet(0, s.validatorCount))

	priorBits := bitvector.New(11)
	priorBits.Set(5, true)
	wantJournal := &Journal{
		StateRoot:         root,
		MaxValidatorIndex: 10,
		Membership:        priorBits,
	}
	cont := &report.Continuation{
		Type:                   report.SameSlot,
		PriorStateRoot:         root,
		PriorSlot:              6209536,
		PriorMaxValidatorIndex: 10,
		PriorMembership:        priorBits,
		PriorReceipt:           receipt.NewDummy(wantJournal.Encode()),
	}

	e := Engine{Schema: testSchema}
	_, err := e.UpdateMembership(Input{
		StateRoot:       root,
		StateMultiproof: mp,
		Type:            report.ProofType{Continuation: cont},
	}, wc)
	require.ErrorIs(t, err, report.ErrInvalidContinuation)
}

// TestContinuationShortRangeExtendsMembership exercises the read order
// a ShortRange continuation actually produces: state_roots sorts before
// the validators subtree, so VerifyLinkage must consume its leaf
// immediately after slot and before the withdrawal_credentials scan.
func TestContinuationShortRangeExtendsMembership(t *testing.T) {
	var wc, other node.Node
	wc[0] = 0xAA
	other[0] = 0xBB

	priorSlot := uint64(6209536)
	slot := priorSlot + 4

	var priorStateRoot node.Node
	priorStateRoot[0] = 0xCD

	s := &stubState{
		slot:           slot,
		validatorCount: 12,
		lido:           map[uint64]bool{5: true},
		exitEpoch:      map[uint64]uint64{},
		wc:             wc,
		other:          other,
		priorStateRoot: priorStateRoot,
		priorSlot:      priorSlot,
	}

	set := append([]gindex.GeneralizedIndex{testSchema.StateRoots(priorSlot)}, membershipSet(11, 12)...)
	mp, root := buildStateProof(t, s, set)

	priorBits := bitvector.New(11)
	priorBits.Set(5, true)
	wantJournal := &Journal{
		StateRoot:         priorStateRoot,
		MaxValidatorIndex: 10,
		Membership:        priorBits,
	}
	cont := &report.Continuation{
		Type:                   report.ShortRange,
		PriorStateRoot:         priorStateRoot,
		PriorSlot:              priorSlot,
		PriorMaxValidatorIndex: 10,
		PriorMembership:        priorBits,
		PriorReceipt:           receipt.NewDummy(wantJournal.Encode()),
	}

	e := Engine{Schema: testSchema}
	j, err := e.UpdateMembership(Input{
		StateRoot:       root,
		StateMultiproof: mp,
		Type:            report.ProofType{Continuation: cont},
	}, wc)
	require.NoError(t, err)
	require.Equal(t, uint64(11), j.MaxValidatorIndex)
	require.True(t, j.Membership.Get(5))
	require.False(t, j.Membership.Get(11))
}

// TestContinuationLongRangeExtendsMembership exercises the other half
// of the ordering fix: historical_summaries sorts after the validators
// subtree, so VerifyLinkage must run last here, not right after slot.
func TestContinuationLongRangeExtendsMembership(t *testing.T) {
	var wc, other node.Node
	wc[0] = 0xAA
	other[0] = 0xBB

	priorSlot := uint64(config.CapellaForkSlot)
	slot := priorSlot + config.SlotsPerHistoricalRoot + 1
	summaryIndex := uint64(0)

	var priorStateRoot node.Node
	priorStateRoot[0] = 0xCD

	hb := &stubHistoricalBatch{priorSlot: priorSlot, priorStateRoot: priorStateRoot}
	hbTree, err := hb.GetTree()
	require.NoError(t, err)
	hbRootFastssz, err := hbTree.Get(1)
	require.NoError(t, err)
	var hbRoot node.Node
	copy(hbRoot[:], hbRootFastssz.Hash())

	hbBuilder := &ssz.Builder{}
	hbProof, err := hbBuilder.Build(context.Background(), []gindex.GeneralizedIndex{catalog.HistoricalBatchStateRoots(priorSlot)}, hb)
	require.NoError(t, err)

	s := &stubState{
		slot:           slot,
		validatorCount: 12,
		lido:           map[uint64]bool{5: true},
		exitEpoch:      map[uint64]uint64{},
		wc:             wc,
		other:          other,
		summaryRoot:    hbRoot,
		summaryIndex:   summaryIndex,
	}

	set := append(membershipSet(11, 12), testSchema.HistoricalSummaries(summaryIndex))
	mp, root := buildStateProof(t, s, set)

	priorBits := bitvector.New(11)
	priorBits.Set(5, true)
	wantJournal := &Journal{
		StateRoot:         priorStateRoot,
		MaxValidatorIndex: 10,
		Membership:        priorBits,
	}
	cont := &report.Continuation{
		Type:                   report.LongRange,
		PriorStateRoot:         priorStateRoot,
		PriorSlot:              priorSlot,
		PriorMaxValidatorIndex: 10,
		PriorMembership:        priorBits,
		PriorReceipt:           receipt.NewDummy(wantJournal.Encode()),
	}

	e := Engine{Schema: testSchema}
	j, err := e.UpdateMembership(Input{
		StateRoot:                 root,
		StateMultiproof:           mp,
		HistoricalBatchMultiproof: hbProof,
		Type:                      report.ProofType{Continuation: cont},
	}, wc)
	require.NoError(t, err)
	require.Equal(t, uint64(11), j.MaxValidatorIndex)
	require.True(t, j.Membership.Get(5))
	require.False(t, j.Membership.Get(11))
}
