// Package oracle implements OracleEngine (spec §4.6): verifies the
// block→state link, extends the membership bitvector exactly as
// MembershipEngine does, then accumulates consensus-layer balances and
// counts exited validators over the set bits to emit an OracleJournal.
package oracle

import (
	"encoding/binary"

	"github.com/risc0-labs/risc0-lido-accounting-oracle/bitvector"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/catalog"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/config"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/gindex"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/membership"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/node"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/report"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/ssz"
)

const slotsPerEpoch = 32

// Input is OracleInput (spec §3).
type Input struct {
	ProgramID                 node.Node
	BlockRoot                 node.Node
	BlockMultiproof           *ssz.Multiproof
	StateMultiproof           *ssz.Multiproof
	HistoricalBatchMultiproof *ssz.Multiproof
	Type                      report.ProofType
	ExternalCommitment        report.Commitment
}

// Engine runs generate_oracle_report. The zero value uses
// catalog.Mainnet; set Schema to exercise the same formulas against a
// different list-capacity schema.
type Engine struct {
	Schema *catalog.Schema
}

// GenerateOracleReport is the engine's sole public operation (spec
// §4.6). withdrawal_credentials comes from chainSpec; the vault address
// itself is never read here — the engine only consumes the
// already-produced report.Commitment for the execution-layer balance,
// the EVM state reader that derived it being out of scope (spec §1).
func (e Engine) GenerateOracleReport(input Input, chainSpec *config.ChainSpec) (*Journal, error) {
	schema := e.Schema
	if schema == nil {
		schema = catalog.Mainnet
	}

	if err := input.BlockMultiproof.Verify(input.BlockRoot); err != nil {
		return nil, err
	}
	blockValues := input.BlockMultiproof.Values()

	slotLeaf, err := blockValues.NextAssertGIndex(catalog.BlockSlot())
	if err != nil {
		return nil, err
	}
	slot := binary.LittleEndian.Uint64(slotLeaf[:8])

	stateRoot, err := blockValues.NextAssertGIndex(catalog.BlockStateRoot())
	if err != nil {
		return nil, err
	}

	if err := input.StateMultiproof.Verify(stateRoot); err != nil {
		return nil, err
	}
	values := input.StateMultiproof.Values()

	var currentLength uint64
	var bits *bitvector.Bitvector
	cont := input.Type.Continuation

	if cont != nil {
		wantJournal := &membership.Journal{
			ProgramID:         input.ProgramID,
			StateRoot:         cont.PriorStateRoot,
			MaxValidatorIndex: cont.PriorMaxValidatorIndex,
			Membership:        cont.PriorMembership,
		}
		if err := report.VerifyPriorReceipt(cont.PriorReceipt, wantJournal.Encode(), input.ProgramID); err != nil {
			return nil, err
		}

		// state_roots (ShortRange) sorts before the validators subtree;
		// historical_summaries (LongRange) sorts after validators and
		// balances. Read each at the point it actually falls.
		if cont.Type != report.LongRange {
			if err := report.VerifyLinkage(schema, cont, slot, stateRoot, values, input.HistoricalBatchMultiproof); err != nil {
				return nil, err
			}
		}

		currentLength = cont.PriorMaxValidatorIndex + 1
		bits = cont.PriorMembership.Clone()
	} else {
		bits = bitvector.New(0)
	}

	// validators.length sorts after every withdrawal_credentials and
	// exit_epoch leaf below it, so it can't be pulled off the front of
	// the ordered stream; the validator count the scan below needs as
	// its loop bound is read by random access instead.
	countLeaf, ok := input.StateMultiproof.Get(catalog.ValidatorsLength())
	if !ok {
		return nil, ssz.ErrMissingValue
	}
	validatorCount := binary.LittleEndian.Uint64(countLeaf[:8])
	bits.Grow(validatorCount)

	currentEpoch := slot / slotsPerEpoch
	var totalExited uint64

	// Validators already known to be members from a prior continuation
	// live in containers before this round's withdrawal_credentials
	// range, so their exit_epoch leaves are read first.
	for v := uint64(0); v < currentLength; v++ {
		if !bits.Get(v) {
			continue
		}
		eeLeaf, err := values.NextAssertGIndex(schema.ExitEpoch(v))
		if err != nil {
			return nil, err
		}
		if binary.LittleEndian.Uint64(eeLeaf[:8]) <= currentEpoch {
			totalExited++
		}
	}

	// withdrawal_credentials and exit_epoch share a validator container,
	// with wc sorting before exit_epoch inside it (spec §4.4): a newly
	// set bit's exit_epoch is read immediately after its wc leaf rather
	// than in a separate pass.
	for v := currentLength; v < validatorCount; v++ {
		wcLeaf, err := values.NextAssertGIndex(schema.WithdrawalCredentials(v))
		if err != nil {
			return nil, err
		}
		bits.Set(v, wcLeaf == chainSpec.WithdrawalCredentials)
		if !bits.Get(v) {
			continue
		}

		eeLeaf, err := values.NextAssertGIndex(schema.ExitEpoch(v))
		if err != nil {
			return nil, err
		}
		if binary.LittleEndian.Uint64(eeLeaf[:8]) <= currentEpoch {
			totalExited++
		}
	}

	// validators.length's own slot in the ordered stream, the last
	// thing in the validators field's subtree, now that everything
	// preceding it has been read.
	if _, err := values.NextAssertGIndex(catalog.ValidatorsLength()); err != nil {
		return nil, err
	}

	// Balance accumulation: four validators share a 32-byte leaf, so the
	// iterator only advances when a set bit crosses into a new leaf
	// group (spec §4.6 step 8). balances is a later sibling field of
	// validators, so these reads sort after everything above.
	var (
		haveLeaf      bool
		currentGindex gindex.GeneralizedIndex
		currentLeaf   node.Node
		clBalanceGwei uint64
	)
	for v := uint64(0); v < bits.Len(); v++ {
		if !bits.Get(v) {
			continue
		}
		target := schema.Balances(v)
		if !haveLeaf || target != currentGindex {
			leaf, err := values.NextAssertGIndex(target)
			if err != nil {
				return nil, err
			}
			currentGindex, currentLeaf, haveLeaf = target, leaf, true
		}
		clBalanceGwei += catalog.UnpackBalance(currentLeaf, v)
	}

	if cont != nil && cont.Type == report.LongRange {
		if err := report.VerifyLinkage(schema, cont, slot, stateRoot, values, input.HistoricalBatchMultiproof); err != nil {
			return nil, err
		}
	}

	return &Journal{
		CLBalanceGwei:             clBalanceGwei,
		WithdrawalVaultBalanceWei: input.ExternalCommitment.WeiBalance,
		TotalDepositedValidators:  validatorCount,
		TotalExitedValidators:     totalExited,
		BlockRoot:                 input.BlockRoot,
		ExternalCommitment:        input.ExternalCommitment.Value,
		MembershipCommitment:      bits.Commitment(),
	}, nil
}
