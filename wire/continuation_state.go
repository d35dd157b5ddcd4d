package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/risc0-labs/risc0-lido-accounting-oracle/bitvector"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/node"
)

// ContinuationState is what a host orchestrator persists between runs
// to build the next proof's report.Continuation: everything a
// continuation needs except its ContinuationType, which the host
// recomputes from the next run's (prior_slot, slot) distance per the
// table in spec §4.5 rather than storing a now-stale classification.
type ContinuationState struct {
	PriorStateRoot         node.Node
	PriorSlot              uint64
	PriorMaxValidatorIndex uint64
	PriorMembership        *bitvector.Bitvector
	PriorReceiptBytes      []byte
}

// EncodeContinuationState serializes s as prior_slot (u64) |
// prior_state_root (32B) | prior_membership | prior_receipt, the same
// field set EncodeProofType's continuation body carries minus the
// type tag.
func EncodeContinuationState(s *ContinuationState) []byte {
	out := make([]byte, 0, 8+32+8+4*len(s.PriorMembership.Words())+4+len(s.PriorReceiptBytes))

	var u64 [8]byte
	binary.LittleEndian.PutUint64(u64[:], s.PriorSlot)
	out = append(out, u64[:]...)
	out = append(out, s.PriorStateRoot[:]...)
	out = append(out, EncodeBitvector(s.PriorMembership)...)

	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], uint32(len(s.PriorReceiptBytes)))
	out = append(out, u32[:]...)
	out = append(out, s.PriorReceiptBytes...)
	return out
}

// DecodeContinuationState parses the EncodeContinuationState wire format.
func DecodeContinuationState(data []byte) (*ContinuationState, error) {
	c := newCursor(data)

	slotBytes, err := c.take(8)
	if err != nil {
		return nil, fmt.Errorf("wire: continuation state prior_slot: %w", err)
	}
	priorSlot := binary.LittleEndian.Uint64(slotBytes)

	rootBytes, err := c.take(32)
	if err != nil {
		return nil, fmt.Errorf("wire: continuation state prior_state_root: %w", err)
	}
	var priorStateRoot node.Node
	copy(priorStateRoot[:], rootBytes)

	priorMembership, err := decodeBitvector(c)
	if err != nil {
		return nil, fmt.Errorf("wire: continuation state prior_membership: %w", err)
	}

	lenBytes, err := c.take(4)
	if err != nil {
		return nil, fmt.Errorf("wire: continuation state prior_receipt len: %w", err)
	}
	receiptLen := int(binary.LittleEndian.Uint32(lenBytes))
	receiptBytes, err := c.take(receiptLen)
	if err != nil {
		return nil, fmt.Errorf("wire: continuation state prior_receipt: %w", err)
	}

	var priorMaxValidatorIndex uint64
	if priorMembership.Len() > 0 {
		priorMaxValidatorIndex = priorMembership.Len() - 1
	}

	return &ContinuationState{
		PriorStateRoot:         priorStateRoot,
		PriorSlot:              priorSlot,
		PriorMaxValidatorIndex: priorMaxValidatorIndex,
		PriorMembership:        priorMembership,
		PriorReceiptBytes:      append([]byte{}, receiptBytes...),
	}, nil
}
