// Package catalog implements GIndexCatalog (spec §4.4): closed-form
// generalized-index formulas for the paths MembershipEngine and
// OracleEngine read, so neither has to walk a schema at proof time.
//
// Every formula here is derived mechanically from the canonical
// container field layout using the same generalized-index algebra
// zrnt/ztyp's tree helpers implement (concatenation of a field's
// gindex within its parent with the parent's own gindex) — see
// fieldGIndex/concatWithVariableLocal below — rather than hand-copied
// magic numbers, so a schema change only requires editing the
// field-index tables, not the arithmetic. The two fork-dependent list
// capacities (validator registry, historical roots) are held in a
// Schema so tests can exercise the same formulas against a
// small-capacity schema instead of literally materializing a
// mainnet-depth tree.
package catalog

import (
	"encoding/binary"

	"github.com/risc0-labs/risc0-lido-accounting-oracle/config"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/gindex"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/node"
)

// Container field counts and limits, mirrored from the consensus-layer
// SSZ schema (later forks append fields, never insert them, so earlier
// field indices never move).
const (
	beaconBlockFieldCount = 5 // slot, proposer_index, parent_root, state_root, body
	beaconBlockSlotIdx    = 0
	beaconBlockStateRoot  = 3

	// BeaconState field indices for a container of at most 32 fields
	// (a depth-5 field tree). This is the only BeaconState layout the
	// catalog has: there is no second table for a BeaconState with more
	// than 32 fields, whose field tree would be one level deeper.
	beaconStateFieldCount       = 32
	beaconStateSlotIdx          = 2
	beaconStateStateRootsIdx    = 6
	beaconStateValidatorsIdx    = 11
	beaconStateBalancesIdx      = 12
	beaconStateHistSummariesIdx = 27

	validatorFieldCount   = 8
	validatorWCIdx        = 1
	validatorExitEpochIdx = 6
	balancesPerChunk      = 4
	historicalBatchFields = 2
	historicalBatchSRIdx  = 1
)

// nextPowerOfTwo returns the smallest power of two >= n (n >= 1).
func nextPowerOfTwo(n uint64) uint64 {
	p := uint64(1)
	for p < n {
		p <<= 1
	}
	return p
}

func log2(p uint64) uint {
	n := uint(0)
	for p > 1 {
		p >>= 1
		n++
	}
	return n
}

// fieldGIndex returns the generalized index of field idx (0-based) in a
// container merkleized with numFields chunks, relative to the
// container's own root (gindex 1).
func fieldGIndex(numFields, idx uint64) gindex.GeneralizedIndex {
	return gindex.GeneralizedIndex(nextPowerOfTwo(numFields) + idx)
}

// listChunksRoot returns the gindex of a List field's data-chunks
// subtree root (the left child of the field's length-mixin node).
func listChunksRoot(numContainerFields, fieldIdx uint64) gindex.GeneralizedIndex {
	return fieldGIndex(numContainerFields, fieldIdx).Left()
}

// concatWithVariableLocal folds a per-element constant field gindex into
// a base that a variable element index v can later be added to: since
// the field's local offset (field - 2**depth) is itself the constant
// term, this returns base*2**depth + (field - 2**depth).
func concatWithVariableLocal(base, field gindex.GeneralizedIndex) gindex.GeneralizedIndex {
	depth := field.Depth()
	local := field - (gindex.GeneralizedIndex(1) << depth)
	return base<<depth | local
}

// Schema holds the two fork-dependent list capacities the catalog's
// per-element formulas derive their depth from. Bases are computed
// once at construction time, mirroring how the teacher's pack derives
// container shape from a canonical schema at init() rather than
// hand-copying offsets.
type Schema struct {
	ValidatorRegistryLimit uint64
	HistoricalRootsLimit   uint64

	stateRootsBase      gindex.GeneralizedIndex
	histSummariesBase   gindex.GeneralizedIndex
	balancesBase        gindex.GeneralizedIndex
	withdrawalCredsBase gindex.GeneralizedIndex
	exitEpochBase       gindex.GeneralizedIndex
	histBatchSRBase     gindex.GeneralizedIndex
}

// NewSchema computes every base offset for the given list capacities.
// Both limits must be powers of two no smaller than balancesPerChunk
// (for validatorRegistryLimit) and 1 respectively.
func NewSchema(validatorRegistryLimit, historicalRootsLimit uint64) *Schema {
	s := &Schema{ValidatorRegistryLimit: validatorRegistryLimit, HistoricalRootsLimit: historicalRootsLimit}

	stateRootsVectorRoot := fieldGIndex(beaconStateFieldCount, beaconStateStateRootsIdx)
	s.stateRootsBase = stateRootsVectorRoot << log2(uint64(config.SlotsPerHistoricalRoot))

	histChunksRoot := listChunksRoot(beaconStateFieldCount, beaconStateHistSummariesIdx)
	s.histSummariesBase = histChunksRoot << log2(historicalRootsLimit)

	balChunksRoot := listChunksRoot(beaconStateFieldCount, beaconStateBalancesIdx)
	s.balancesBase = balChunksRoot << log2(validatorRegistryLimit/balancesPerChunk)

	valChunksRoot := listChunksRoot(beaconStateFieldCount, beaconStateValidatorsIdx)
	valRootBase := valChunksRoot << log2(validatorRegistryLimit)

	wcField := fieldGIndex(validatorFieldCount, validatorWCIdx)
	eeField := fieldGIndex(validatorFieldCount, validatorExitEpochIdx)
	s.withdrawalCredsBase = concatWithVariableLocal(valRootBase, wcField)
	s.exitEpochBase = concatWithVariableLocal(valRootBase, eeField)

	hbSRField := fieldGIndex(historicalBatchFields, historicalBatchSRIdx)
	s.histBatchSRBase = hbSRField << log2(uint64(config.SlotsPerHistoricalRoot))

	return s
}

func validatorFieldDepth() uint {
	return log2(nextPowerOfTwo(validatorFieldCount))
}

// BlockSlot is BeaconBlock.slot's generalized index (schema-independent).
func BlockSlot() gindex.GeneralizedIndex { return fieldGIndex(beaconBlockFieldCount, beaconBlockSlotIdx) }

// BlockStateRoot is BeaconBlock.state_root's generalized index
// (schema-independent).
func BlockStateRoot() gindex.GeneralizedIndex {
	return fieldGIndex(beaconBlockFieldCount, beaconBlockStateRoot)
}

// StateSlot is BeaconState.slot's generalized index (schema-independent).
func StateSlot() gindex.GeneralizedIndex { return fieldGIndex(beaconStateFieldCount, beaconStateSlotIdx) }

// ValidatorsLength is BeaconState.validators.length's generalized index
// (schema-independent).
func ValidatorsLength() gindex.GeneralizedIndex {
	return fieldGIndex(beaconStateFieldCount, beaconStateValidatorsIdx).Right()
}

// StateRoots is BeaconState.state_roots[s]'s generalized index.
func (s *Schema) StateRoots(slot uint64) gindex.GeneralizedIndex {
	return s.stateRootsBase + gindex.GeneralizedIndex(slot%uint64(config.SlotsPerHistoricalRoot))
}

// HistoricalSummaries is BeaconState.historical_summaries[i]'s
// generalized index, where i is the caller-computed
// (slot - CAPELLA_FORK_SLOT) / SLOTS_PER_HISTORICAL_ROOT.
func (s *Schema) HistoricalSummaries(i uint64) gindex.GeneralizedIndex {
	return s.histSummariesBase + gindex.GeneralizedIndex(i)
}

// Balances is BeaconState.balances[v]'s generalized index (the packed
// chunk containing validator v's balance, shared by v, v+1, v+2, v+3).
func (s *Schema) Balances(v uint64) gindex.GeneralizedIndex {
	return s.balancesBase + gindex.GeneralizedIndex(v/balancesPerChunk)
}

// WithdrawalCredentials is
// BeaconState.validators[v].withdrawal_credentials's generalized index.
func (s *Schema) WithdrawalCredentials(v uint64) gindex.GeneralizedIndex {
	return s.withdrawalCredsBase + gindex.GeneralizedIndex(v)*(1<<validatorFieldDepth())
}

// ExitEpoch is BeaconState.validators[v].exit_epoch's generalized index.
func (s *Schema) ExitEpoch(v uint64) gindex.GeneralizedIndex {
	return s.exitEpochBase + gindex.GeneralizedIndex(v)*(1<<validatorFieldDepth())
}

// HistoricalBatchStateRoots is HistoricalBatch.state_roots[s]'s
// generalized index (schema-independent: HistoricalBatch's own vectors
// are always exactly SLOTS_PER_HISTORICAL_ROOT long).
func HistoricalBatchStateRoots(s uint64) gindex.GeneralizedIndex {
	return gindex.GeneralizedIndex(historicalBatchSRBase() + s%uint64(config.SlotsPerHistoricalRoot))
}

func historicalBatchSRBase() uint64 {
	hbSRField := fieldGIndex(historicalBatchFields, historicalBatchSRIdx)
	return uint64(hbSRField) << log2(uint64(config.SlotsPerHistoricalRoot))
}

// UnpackBalance extracts validator v's little-endian uint64 balance
// from the packed 32-byte leaf returned for gindex Balances(v).
func UnpackBalance(leaf node.Node, v uint64) uint64 {
	off := (v % balancesPerChunk) * 8
	return binary.LittleEndian.Uint64(leaf[off : off+8])
}

// Mainnet is the canonical mainnet/Sepolia schema: validator registry
// capacity 2**40, historical-roots capacity 2**24, matching consensus-spec
// VALIDATOR_REGISTRY_LIMIT / HISTORICAL_ROOTS_LIMIT.
var Mainnet = NewSchema(uint64(1)<<40, uint64(1)<<24)
