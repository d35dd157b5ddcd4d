package wire

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/risc0-labs/risc0-lido-accounting-oracle/oracle"
)

// oracleJournalArguments is the Solidity-ABI tuple OracleJournal
// encodes against: (uint256 cl_balance_gwei, uint256
// withdrawal_vault_balance_wei, uint256 total_deposited_validators,
// uint256 total_exited_validators, bytes32 block_root, bytes32
// external_commitment, bytes32 membership_commitment) — built once at
// package init, the same "build abi.Arguments once, reuse across
// calls" shape go-ethereum's own bound-contract bindings use.
var oracleJournalArguments abi.Arguments

func init() {
	uint256Ty, err := abi.NewType("uint256", "", nil)
	if err != nil {
		panic(err)
	}
	bytes32Ty, err := abi.NewType("bytes32", "", nil)
	if err != nil {
		panic(err)
	}
	oracleJournalArguments = abi.Arguments{
		{Type: uint256Ty},
		{Type: uint256Ty},
		{Type: uint256Ty},
		{Type: uint256Ty},
		{Type: bytes32Ty},
		{Type: bytes32Ty},
		{Type: bytes32Ty},
	}
}

// EncodeOracleJournalABI produces OracleJournal's canonical
// Solidity-ABI encoding (spec §6): the Commitment fields are flattened
// to their 32-byte values for ABI purposes, with any opaque raw bytes
// behind them carried only in the Go struct, never ABI-encoded.
func EncodeOracleJournalABI(j *oracle.Journal) ([]byte, error) {
	vaultWei := j.WithdrawalVaultBalanceWei
	if vaultWei == nil {
		vaultWei = new(big.Int)
	}

	packed, err := oracleJournalArguments.Pack(
		new(big.Int).SetUint64(j.CLBalanceGwei),
		vaultWei,
		new(big.Int).SetUint64(j.TotalDepositedValidators),
		new(big.Int).SetUint64(j.TotalExitedValidators),
		[32]byte(j.BlockRoot),
		[32]byte(j.ExternalCommitment),
		[32]byte(j.MembershipCommitment),
	)
	if err != nil {
		return nil, fmt.Errorf("wire: ABI-encoding oracle journal: %w", err)
	}
	return packed, nil
}

// DecodeOracleJournalABI parses an ABI-encoded OracleJournal back into
// its Go representation.
func DecodeOracleJournalABI(data []byte) (*oracle.Journal, error) {
	values, err := oracleJournalArguments.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("wire: ABI-decoding oracle journal: %w", err)
	}
	if len(values) != 7 {
		return nil, fmt.Errorf("wire: ABI-decoded oracle journal has %d fields, want 7", len(values))
	}

	clBalance, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("wire: cl_balance_gwei has unexpected type %T", values[0])
	}
	vaultWei, ok := values[1].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("wire: withdrawal_vault_balance_wei has unexpected type %T", values[1])
	}
	totalDeposited, ok := values[2].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("wire: total_deposited_validators has unexpected type %T", values[2])
	}
	totalExited, ok := values[3].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("wire: total_exited_validators has unexpected type %T", values[3])
	}
	blockRoot, ok := values[4].([32]byte)
	if !ok {
		return nil, fmt.Errorf("wire: block_root has unexpected type %T", values[4])
	}
	externalCommitment, ok := values[5].([32]byte)
	if !ok {
		return nil, fmt.Errorf("wire: external_commitment has unexpected type %T", values[5])
	}
	membershipCommitment, ok := values[6].([32]byte)
	if !ok {
		return nil, fmt.Errorf("wire: membership_commitment has unexpected type %T", values[6])
	}

	return &oracle.Journal{
		CLBalanceGwei:             clBalance.Uint64(),
		WithdrawalVaultBalanceWei: vaultWei,
		TotalDepositedValidators:  totalDeposited.Uint64(),
		TotalExitedValidators:     totalExited.Uint64(),
		BlockRoot:                 blockRoot,
		ExternalCommitment:        externalCommitment,
		MembershipCommitment:      membershipCommitment,
	}, nil
}
