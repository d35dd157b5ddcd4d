package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/risc0-labs/risc0-lido-accounting-oracle/bitvector"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/node"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/receipt"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/report"
)

// Marshaler is the subset of receipt backends whose proof bytes can be
// carried verbatim inside a framed continuation Input (spec §6
// "prior_receipt"). All three backends in package receipt implement it.
type Marshaler interface {
	receipt.Interface
	Bytes() []byte
}

const (
	proofTypeInitial      byte = 0
	proofTypeContinuation byte = 1
)

// EncodeProofType serializes pt as proof_type_tag (u8) | body (spec
// §6). Initial has an empty body; Continuation's body is cont_type_tag
// (u8) | prior_receipt | prior_membership | prior_slot (u64) |
// prior_state_root (32B). pt.Continuation.PriorReceipt must implement
// Marshaler.
func EncodeProofType(pt report.ProofType) ([]byte, error) {
	if pt.IsInitial() {
		return []byte{proofTypeInitial}, nil
	}
	cont := pt.Continuation

	m, ok := cont.PriorReceipt.(Marshaler)
	if !ok {
		return nil, fmt.Errorf("wire: prior receipt %T does not implement Marshaler", cont.PriorReceipt)
	}
	receiptBytes := m.Bytes()

	out := []byte{proofTypeContinuation, byte(cont.Type)}

	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], uint32(len(receiptBytes)))
	out = append(out, u32[:]...)
	out = append(out, receiptBytes...)

	out = append(out, EncodeBitvector(cont.PriorMembership)...)

	var u64 [8]byte
	binary.LittleEndian.PutUint64(u64[:], cont.PriorSlot)
	out = append(out, u64[:]...)
	out = append(out, cont.PriorStateRoot[:]...)

	return out, nil
}

// DecodedContinuation mirrors report.Continuation but carries the
// prior receipt as raw wire bytes rather than a reconstructed
// receipt.Interface: only the host knows which concrete backend
// (Dummy/ZkVM/Groth16) those bytes decode against.
type DecodedContinuation struct {
	Type                   report.ContinuationType
	PriorStateRoot         node.Node
	PriorSlot              uint64
	PriorMaxValidatorIndex uint64
	PriorMembership        *bitvector.Bitvector
	PriorReceiptBytes      []byte
}

// ToContinuation reconstructs a report.Continuation, wrapping
// PriorReceiptBytes with wrapReceipt (e.g. receipt.NewZkVM applied
// partially, or receipt.NewDummy in tests).
func (d *DecodedContinuation) ToContinuation(wrapReceipt func([]byte) receipt.Interface) *report.Continuation {
	return &report.Continuation{
		Type:                   d.Type,
		PriorStateRoot:         d.PriorStateRoot,
		PriorSlot:              d.PriorSlot,
		PriorMaxValidatorIndex: d.PriorMaxValidatorIndex,
		PriorMembership:        d.PriorMembership,
		PriorReceipt:           wrapReceipt(d.PriorReceiptBytes),
	}
}

// decodeProofType returns (nil, nil) for Initial, or a DecodedContinuation
// for Continuation.
func decodeProofType(c *cursor) (*DecodedContinuation, error) {
	tagBytes, err := c.take(1)
	if err != nil {
		return nil, fmt.Errorf("wire: proof_type_tag: %w", err)
	}
	if tagBytes[0] == proofTypeInitial {
		return nil, nil
	}
	if tagBytes[0] != proofTypeContinuation {
		return nil, fmt.Errorf("wire: unknown proof_type_tag %d", tagBytes[0])
	}

	contTypeBytes, err := c.take(1)
	if err != nil {
		return nil, fmt.Errorf("wire: cont_type_tag: %w", err)
	}
	contType := report.ContinuationType(contTypeBytes[0])

	lenBytes, err := c.take(4)
	if err != nil {
		return nil, fmt.Errorf("wire: prior_receipt len: %w", err)
	}
	receiptLen := int(binary.LittleEndian.Uint32(lenBytes))
	receiptBytes, err := c.take(receiptLen)
	if err != nil {
		return nil, fmt.Errorf("wire: prior_receipt: %w", err)
	}

	priorMembership, err := decodeBitvector(c)
	if err != nil {
		return nil, fmt.Errorf("wire: prior_membership: %w", err)
	}

	slotBytes, err := c.take(8)
	if err != nil {
		return nil, fmt.Errorf("wire: prior_slot: %w", err)
	}
	priorSlot := binary.LittleEndian.Uint64(slotBytes)

	rootBytes, err := c.take(32)
	if err != nil {
		return nil, fmt.Errorf("wire: prior_state_root: %w", err)
	}
	var priorStateRoot node.Node
	copy(priorStateRoot[:], rootBytes)

	var priorMaxValidatorIndex uint64
	if priorMembership.Len() > 0 {
		priorMaxValidatorIndex = priorMembership.Len() - 1
	}

	return &DecodedContinuation{
		Type:                   contType,
		PriorStateRoot:         priorStateRoot,
		PriorSlot:              priorSlot,
		PriorMaxValidatorIndex: priorMaxValidatorIndex,
		PriorMembership:        priorMembership,
		PriorReceiptBytes:      append([]byte{}, receiptBytes...),
	}, nil
}
