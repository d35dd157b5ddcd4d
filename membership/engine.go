// Package membership implements MembershipEngine (spec §4.5): verifies
// a state multiproof, links it to a prior receipt when the proof is a
// continuation, and extends a MembershipBitvector over the validators
// newly covered by this proof.
package membership

import (
	"encoding/binary"

	"github.com/risc0-labs/risc0-lido-accounting-oracle/bitvector"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/catalog"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/node"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/report"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/ssz"
)

// Input is MembershipInput (spec §3).
type Input struct {
	ProgramID                 node.Node
	StateRoot                 node.Node
	StateMultiproof           *ssz.Multiproof
	HistoricalBatchMultiproof *ssz.Multiproof
	Type                      report.ProofType
}

// Engine runs update_membership. It is stateless and safe for
// concurrent use across independent inputs; a single call itself
// executes single-threaded, matching the "inside the prover" scheduling
// regime (spec §5). The zero value uses catalog.Mainnet; set Schema to
// exercise the same formulas against a different list-capacity schema.
type Engine struct {
	Schema *catalog.Schema
}

// UpdateMembership is the engine's sole public operation.
func (e Engine) UpdateMembership(input Input, withdrawalCredentials node.Node) (*Journal, error) {
	schema := e.Schema
	if schema == nil {
		schema = catalog.Mainnet
	}

	if err := input.StateMultiproof.Verify(input.StateRoot); err != nil {
		return nil, err
	}
	values := input.StateMultiproof.Values()

	slotLeaf, err := values.NextAssertGIndex(catalog.StateSlot())
	if err != nil {
		return nil, err
	}
	slot := binary.LittleEndian.Uint64(slotLeaf[:8])

	var currentLength uint64
	var bits *bitvector.Bitvector
	cont := input.Type.Continuation

	if cont != nil {
		wantJournal := &Journal{
			ProgramID:         input.ProgramID,
			StateRoot:         cont.PriorStateRoot,
			MaxValidatorIndex: cont.PriorMaxValidatorIndex,
			Membership:        cont.PriorMembership,
		}
		if err := report.VerifyPriorReceipt(cont.PriorReceipt, wantJournal.Encode(), input.ProgramID); err != nil {
			return nil, err
		}

		// state_roots (ShortRange) sorts before the validators subtree;
		// historical_summaries (LongRange) sorts after it. Read each at
		// the point it actually falls in the proof's pre-order.
		if cont.Type != report.LongRange {
			if err := report.VerifyLinkage(schema, cont, slot, input.StateRoot, values, input.HistoricalBatchMultiproof); err != nil {
				return nil, err
			}
		}

		currentLength = cont.PriorMaxValidatorIndex + 1
		bits = cont.PriorMembership.Clone()
	} else {
		bits = bitvector.New(0)
	}

	// validators.length is the right sibling of the data subtree every
	// withdrawal_credentials leaf descends from, so in pre-order it
	// comes after every wc leaf rather than before. Read it by random
	// access instead of pulling it from the ordered stream.
	countLeaf, ok := input.StateMultiproof.Get(catalog.ValidatorsLength())
	if !ok {
		return nil, ssz.ErrMissingValue
	}
	validatorCount := binary.LittleEndian.Uint64(countLeaf[:8])

	bits.Grow(validatorCount)
	if err := bitvector.Scan(values, schema.WithdrawalCredentials, currentLength, validatorCount, withdrawalCredentials, bits); err != nil {
		return nil, err
	}

	// validators.length's own slot in the ordered stream, now that the
	// data subtree preceding it has been fully consumed.
	if _, err := values.NextAssertGIndex(catalog.ValidatorsLength()); err != nil {
		return nil, err
	}

	if cont != nil && cont.Type == report.LongRange {
		if err := report.VerifyLinkage(schema, cont, slot, input.StateRoot, values, input.HistoricalBatchMultiproof); err != nil {
			return nil, err
		}
	}

	var maxIdx uint64
	if validatorCount > 0 {
		maxIdx = validatorCount - 1
	} else if cont != nil {
		maxIdx = cont.PriorMaxValidatorIndex
	}

	return &Journal{
		ProgramID:         input.ProgramID,
		StateRoot:         input.StateRoot,
		MaxValidatorIndex: maxIdx,
		Membership:        bits,
	}, nil
}
