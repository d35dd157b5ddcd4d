package wire

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/risc0-labs/risc0-lido-accounting-oracle/membership"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/node"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/oracle"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/report"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/ssz"
)

func encodeOptionalMultiproof(mp *ssz.Multiproof) []byte {
	if mp == nil {
		return []byte{0}
	}
	return append([]byte{1}, EncodeMultiproof(mp)...)
}

func decodeOptionalMultiproof(c *cursor) (*ssz.Multiproof, error) {
	presentBytes, err := c.take(1)
	if err != nil {
		return nil, fmt.Errorf("wire: optional multiproof presence: %w", err)
	}
	if presentBytes[0] == 0 {
		return nil, nil
	}
	return decodeMultiproof(c)
}

// EncodeOracleInput serializes an oracle.Input per spec §6: program_id
// (32B) | block_root (32B) | block_multiproof | state_multiproof |
// proof_type | historical_batch_multiproof (present only for
// LongRange continuations) | external_commitment (32B) |
// wei_balance_len (u32) | wei_balance (big-endian bytes).
//
// The opaque external EVM balance input spec §6 calls
// external_evm_input_opaque is out of scope here (spec §1): the
// builder has already reduced it to the report.Commitment (32-byte
// value plus wei balance) the engine consumes.
func EncodeOracleInput(in *oracle.Input) ([]byte, error) {
	ptBytes, err := EncodeProofType(in.Type)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, 64+len(ptBytes))
	out = append(out, in.ProgramID[:]...)
	out = append(out, in.BlockRoot[:]...)
	out = append(out, EncodeMultiproof(in.BlockMultiproof)...)
	out = append(out, EncodeMultiproof(in.StateMultiproof)...)
	out = append(out, ptBytes...)
	out = append(out, encodeOptionalMultiproof(in.HistoricalBatchMultiproof)...)
	out = append(out, in.ExternalCommitment.Value[:]...)

	var weiBytes []byte
	if in.ExternalCommitment.WeiBalance != nil {
		weiBytes = in.ExternalCommitment.WeiBalance.Bytes()
	}
	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], uint32(len(weiBytes)))
	out = append(out, u32[:]...)
	out = append(out, weiBytes...)

	return out, nil
}

// DecodedOracleInput mirrors oracle.Input but carries its continuation
// (if any) as a DecodedContinuation, deferring prior-receipt
// reconstruction to the caller (see DecodedContinuation.ToContinuation).
type DecodedOracleInput struct {
	ProgramID                 node.Node
	BlockRoot                 node.Node
	BlockMultiproof           *ssz.Multiproof
	StateMultiproof           *ssz.Multiproof
	HistoricalBatchMultiproof *ssz.Multiproof
	Continuation              *DecodedContinuation
	ExternalCommitment        report.Commitment
}

// DecodeOracleInput parses the EncodeOracleInput wire format.
func DecodeOracleInput(data []byte) (*DecodedOracleInput, error) {
	c := newCursor(data)

	programIDBytes, err := c.take(32)
	if err != nil {
		return nil, fmt.Errorf("wire: program_id: %w", err)
	}
	var programID node.Node
	copy(programID[:], programIDBytes)

	blockRootBytes, err := c.take(32)
	if err != nil {
		return nil, fmt.Errorf("wire: block_root: %w", err)
	}
	var blockRoot node.Node
	copy(blockRoot[:], blockRootBytes)

	blockProof, err := decodeMultiproof(c)
	if err != nil {
		return nil, fmt.Errorf("wire: block_multiproof: %w", err)
	}
	stateProof, err := decodeMultiproof(c)
	if err != nil {
		return nil, fmt.Errorf("wire: state_multiproof: %w", err)
	}
	cont, err := decodeProofType(c)
	if err != nil {
		return nil, fmt.Errorf("wire: proof_type: %w", err)
	}
	historicalBatchProof, err := decodeOptionalMultiproof(c)
	if err != nil {
		return nil, fmt.Errorf("wire: historical_batch_multiproof: %w", err)
	}

	commitmentBytes, err := c.take(32)
	if err != nil {
		return nil, fmt.Errorf("wire: external_commitment value: %w", err)
	}
	var commitmentValue node.Node
	copy(commitmentValue[:], commitmentBytes)

	weiLenBytes, err := c.take(4)
	if err != nil {
		return nil, fmt.Errorf("wire: external_commitment wei_len: %w", err)
	}
	weiLen := int(binary.LittleEndian.Uint32(weiLenBytes))
	weiBytes, err := c.take(weiLen)
	if err != nil {
		return nil, fmt.Errorf("wire: external_commitment wei_balance: %w", err)
	}

	return &DecodedOracleInput{
		ProgramID:                 programID,
		BlockRoot:                 blockRoot,
		BlockMultiproof:           blockProof,
		StateMultiproof:           stateProof,
		HistoricalBatchMultiproof: historicalBatchProof,
		Continuation:              cont,
		ExternalCommitment: report.Commitment{
			Value:      commitmentValue,
			WeiBalance: new(big.Int).SetBytes(weiBytes),
		},
	}, nil
}

// EncodeMembershipInput serializes a membership.Input per spec §6:
// program_id (32B) | state_root (32B) | state_multiproof | proof_type |
// historical_batch_multiproof (present only for LongRange
// continuations).
func EncodeMembershipInput(in *membership.Input) ([]byte, error) {
	ptBytes, err := EncodeProofType(in.Type)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, 64+len(ptBytes))
	out = append(out, in.ProgramID[:]...)
	out = append(out, in.StateRoot[:]...)
	out = append(out, EncodeMultiproof(in.StateMultiproof)...)
	out = append(out, ptBytes...)
	out = append(out, encodeOptionalMultiproof(in.HistoricalBatchMultiproof)...)
	return out, nil
}

// DecodedMembershipInput mirrors membership.Input but carries its
// continuation (if any) as a DecodedContinuation.
type DecodedMembershipInput struct {
	ProgramID                 node.Node
	StateRoot                 node.Node
	StateMultiproof           *ssz.Multiproof
	HistoricalBatchMultiproof *ssz.Multiproof
	Continuation              *DecodedContinuation
}

// DecodeMembershipInput parses the EncodeMembershipInput wire format.
func DecodeMembershipInput(data []byte) (*DecodedMembershipInput, error) {
	c := newCursor(data)

	programIDBytes, err := c.take(32)
	if err != nil {
		return nil, fmt.Errorf("wire: program_id: %w", err)
	}
	var programID node.Node
	copy(programID[:], programIDBytes)

	stateRootBytes, err := c.take(32)
	if err != nil {
		return nil, fmt.Errorf("wire: state_root: %w", err)
	}
	var stateRoot node.Node
	copy(stateRoot[:], stateRootBytes)

	stateProof, err := decodeMultiproof(c)
	if err != nil {
		return nil, fmt.Errorf("wire: state_multiproof: %w", err)
	}
	cont, err := decodeProofType(c)
	if err != nil {
		return nil, fmt.Errorf("wire: proof_type: %w", err)
	}
	historicalBatchProof, err := decodeOptionalMultiproof(c)
	if err != nil {
		return nil, fmt.Errorf("wire: historical_batch_multiproof: %w", err)
	}

	return &DecodedMembershipInput{
		ProgramID:                 programID,
		StateRoot:                 stateRoot,
		StateMultiproof:           stateProof,
		HistoricalBatchMultiproof: historicalBatchProof,
		Continuation:              cont,
	}, nil
}
