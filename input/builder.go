// Package input implements InputBuilder (spec §4.7): outside the
// prover, it fetches a Beacon block/state via a provers.Fetcher,
// decides the gindex set the current proof type needs (ssz.Builder lays
// it out in the tree pre-order the engines read it back in), builds the
// multiproof(s), and
// packages them with the prior receipt when the proof is a
// continuation.
package input

import (
	"context"
	"fmt"

	"github.com/risc0-labs/risc0-lido-accounting-oracle/bitvector"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/catalog"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/config"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/gindex"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/membership"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/node"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/oracle"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/provers"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/report"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/ssz"
)

// Builder assembles MembershipInput/OracleInput values from a Fetcher.
// The zero value uses catalog.Mainnet.
type Builder struct {
	Fetcher provers.Fetcher
	Schema  *catalog.Schema
}

func (b *Builder) schema() *catalog.Schema {
	if b.Schema == nil {
		return catalog.Mainnet
	}
	return b.Schema
}

// lastIndexOf converts a fetched validator-set length to an inclusive
// max index (spec §9 Open Questions). This is the one place in this
// package that performs count-1 arithmetic; any other conversion of a
// length into an index is a reviewable anomaly.
func lastIndexOf(count int) uint64 { return uint64(count) - 1 }

// linkageGIndices returns the gindex(es) VerifyLinkage expects to read
// from the state multiproof, per the continuation type (spec
// §4.5). SameSlot needs none: it's checked against the multiproof's
// own root, not a leaf value.
func linkageGIndices(schema *catalog.Schema, cont *report.Continuation) []gindex.GeneralizedIndex {
	if cont == nil {
		return nil
	}
	switch cont.Type {
	case report.ShortRange:
		return []gindex.GeneralizedIndex{schema.StateRoots(cont.PriorSlot)}
	case report.LongRange:
		summaryIndex := (cont.PriorSlot - config.CapellaForkSlot) / config.SlotsPerHistoricalRoot
		return []gindex.GeneralizedIndex{schema.HistoricalSummaries(summaryIndex)}
	default:
		return nil
	}
}

// buildHistoricalBatchProof fetches and proves the HistoricalBatch a
// LongRange continuation links through, or returns (nil, nil) when cont
// isn't LongRange.
func (b *Builder) buildHistoricalBatchProof(ctx context.Context, cont *report.Continuation) (*ssz.Multiproof, error) {
	if cont == nil || cont.Type != report.LongRange {
		return nil, nil
	}
	intermediateSlot := ((cont.PriorSlot / config.SlotsPerHistoricalRoot) + 1) * config.SlotsPerHistoricalRoot
	chunks, err := b.Fetcher.HistoricalBatchChunks(intermediateSlot)
	if err != nil {
		return nil, fmt.Errorf("input: fetching historical batch at slot %d: %w", intermediateSlot, err)
	}
	batch := provers.RawContainer{Chunks: chunks}
	bb := &ssz.Builder{}
	proof, err := bb.Build(ctx, []gindex.GeneralizedIndex{catalog.HistoricalBatchStateRoots(cont.PriorSlot)}, batch)
	if err != nil {
		return nil, fmt.Errorf("input: building historical batch proof: %w", err)
	}
	return proof, nil
}

// BuildMembershipInput assembles a membership.Input for the state at
// slot, continuing from cont when non-nil.
func (b *Builder) BuildMembershipInput(ctx context.Context, programID node.Node, slot uint64, cont *report.Continuation) (*membership.Input, error) {
	schema := b.schema()

	stateChunks, err := b.Fetcher.StateChunks(slot)
	if err != nil {
		return nil, fmt.Errorf("input: fetching state chunks at slot %d: %w", slot, err)
	}
	state := provers.RawContainer{Chunks: stateChunks}

	count, err := b.Fetcher.ValidatorCount(slot)
	if err != nil {
		return nil, fmt.Errorf("input: fetching validator count at slot %d: %w", slot, err)
	}
	maxIdx := lastIndexOf(int(count))

	var currentLength uint64
	if cont != nil {
		currentLength = cont.PriorMaxValidatorIndex + 1
	}

	historicalBatchProof, err := b.buildHistoricalBatchProof(ctx, cont)
	if err != nil {
		return nil, err
	}

	set := linkageGIndices(schema, cont)
	set = append(set, catalog.StateSlot(), catalog.ValidatorsLength())
	for v := currentLength; v <= maxIdx; v++ {
		set = append(set, schema.WithdrawalCredentials(v))
	}

	sb := &ssz.Builder{}
	stateProof, err := sb.Build(ctx, set, state)
	if err != nil {
		return nil, fmt.Errorf("input: building state proof: %w", err)
	}
	stateRoot, err := stateProof.ComputeRoot()
	if err != nil {
		return nil, fmt.Errorf("input: computing state root: %w", err)
	}

	return &membership.Input{
		ProgramID:                 programID,
		StateRoot:                 stateRoot,
		StateMultiproof:           stateProof,
		HistoricalBatchMultiproof: historicalBatchProof,
		Type:                      report.ProofType{Continuation: cont},
	}, nil
}

// BuildOracleInput assembles an oracle.Input for the block/state pair
// at slot, continuing from cont when non-nil. withdrawalCredentials
// and externalCommitment come from the caller: the former from
// chainSpec, the latter from the (out-of-scope) execution-layer
// balance reader.
func (b *Builder) BuildOracleInput(ctx context.Context, programID node.Node, slot uint64, cont *report.Continuation, withdrawalCredentials node.Node, externalCommitment report.Commitment) (*oracle.Input, error) {
	schema := b.schema()

	blockChunks, err := b.Fetcher.BlockChunks(slot)
	if err != nil {
		return nil, fmt.Errorf("input: fetching block chunks at slot %d: %w", slot, err)
	}
	block := provers.RawContainer{Chunks: blockChunks}

	blockSet := []gindex.GeneralizedIndex{catalog.BlockSlot(), catalog.BlockStateRoot()}
	bb := &ssz.Builder{}
	blockProof, err := bb.Build(ctx, blockSet, block)
	if err != nil {
		return nil, fmt.Errorf("input: building block proof: %w", err)
	}
	blockRoot, err := blockProof.ComputeRoot()
	if err != nil {
		return nil, fmt.Errorf("input: computing block root: %w", err)
	}

	stateChunks, err := b.Fetcher.StateChunks(slot)
	if err != nil {
		return nil, fmt.Errorf("input: fetching state chunks at slot %d: %w", slot, err)
	}
	state := provers.RawContainer{Chunks: stateChunks}

	validatorCount, err := b.Fetcher.ValidatorCount(slot)
	if err != nil {
		return nil, fmt.Errorf("input: fetching validator count at slot %d: %w", slot, err)
	}

	var currentLength uint64
	bits := bitvector.New(0)
	if cont != nil {
		currentLength = cont.PriorMaxValidatorIndex + 1
		bits = cont.PriorMembership.Clone()
	}

	historicalBatchProof, err := b.buildHistoricalBatchProof(ctx, cont)
	if err != nil {
		return nil, err
	}

	// First pass: prove just the new withdrawal_credentials range (the
	// validator count already came from the Fetcher above, so neither
	// slot nor validators.length needs to appear here) to run the same
	// scan OracleEngine runs, so this builder learns which validators
	// are newly Lido members without guessing.
	prelimSet := make([]gindex.GeneralizedIndex, 0, validatorCount-currentLength)
	for v := currentLength; v < validatorCount; v++ {
		prelimSet = append(prelimSet, schema.WithdrawalCredentials(v))
	}
	sb := &ssz.Builder{}
	prelimProof, err := sb.Build(ctx, prelimSet, state)
	if err != nil {
		return nil, fmt.Errorf("input: building preliminary state proof: %w", err)
	}

	bits.Grow(validatorCount)
	if err := bitvector.Scan(prelimProof.Values(), schema.WithdrawalCredentials, currentLength, validatorCount, withdrawalCredentials, bits); err != nil {
		return nil, fmt.Errorf("input: scanning withdrawal credentials: %w", err)
	}

	// Second pass: the final proof OracleEngine actually verifies, with
	// linkage, validators.length, and exit_epoch/balance leaves for
	// every set bit in the now complete membership vector. OracleEngine
	// reads slot from the block proof, not this one, so it's never
	// requested here.
	full := linkageGIndices(schema, cont)
	full = append(full, catalog.ValidatorsLength())
	for v := currentLength; v < validatorCount; v++ {
		full = append(full, schema.WithdrawalCredentials(v))
	}
	for v := uint64(0); v < bits.Len(); v++ {
		if bits.Get(v) {
			full = append(full, schema.ExitEpoch(v))
		}
	}
	var lastBalanceGIndex gindex.GeneralizedIndex
	haveBalanceGIndex := false
	for v := uint64(0); v < bits.Len(); v++ {
		if !bits.Get(v) {
			continue
		}
		g := schema.Balances(v)
		if haveBalanceGIndex && g == lastBalanceGIndex {
			continue
		}
		full = append(full, g)
		lastBalanceGIndex, haveBalanceGIndex = g, true
	}

	sb2 := &ssz.Builder{}
	stateProof, err := sb2.Build(ctx, full, state)
	if err != nil {
		return nil, fmt.Errorf("input: building final state proof: %w", err)
	}

	return &oracle.Input{
		ProgramID:                 programID,
		BlockRoot:                 blockRoot,
		BlockMultiproof:           blockProof,
		StateMultiproof:           stateProof,
		HistoricalBatchMultiproof: historicalBatchProof,
		Type:                      report.ProofType{Continuation: cont},
		ExternalCommitment:        externalCommitment,
	}, nil
}
