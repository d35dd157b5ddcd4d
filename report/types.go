// Package report holds the types and prior-state-linkage protocol
// (spec §4.5) shared by MembershipEngine and OracleEngine: the
// continuation state machine, the external balance Commitment, and the
// error taxonomy both engines report through.
package report

import (
	"math/big"

	"github.com/risc0-labs/risc0-lido-accounting-oracle/bitvector"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/node"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/receipt"
)

// ContinuationType selects how a continuation proof links its prior
// state root to the current one (spec §4.5).
type ContinuationType int

const (
	SameSlot ContinuationType = iota
	ShortRange
	LongRange
)

func (c ContinuationType) String() string {
	switch c {
	case SameSlot:
		return "SameSlot"
	case ShortRange:
		return "ShortRange"
	case LongRange:
		return "LongRange"
	default:
		return "Unknown"
	}
}

// Continuation carries everything a continuation proof needs to link
// to and extend a prior report.
type Continuation struct {
	Type                   ContinuationType
	PriorStateRoot         node.Node
	PriorSlot              uint64
	PriorMaxValidatorIndex uint64
	PriorMembership        *bitvector.Bitvector
	PriorReceipt           receipt.Interface
}

// ProofType discriminates Initial (Continuation == nil) from
// Continuation proofs.
type ProofType struct {
	Continuation *Continuation
}

// IsInitial reports whether this is a fresh (non-continuation) proof.
func (p ProofType) IsInitial() bool { return p.Continuation == nil }

// Commitment wraps the opaque execution-layer balance proof: the
// 32-byte value the oracle journal commits to, and the plaintext
// balance the (out-of-scope) EVM state reader already extracted from
// it. The engine never inspects how Value was derived.
type Commitment struct {
	Value      node.Node
	WeiBalance *big.Int
}
