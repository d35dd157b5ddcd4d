package oracle

import (
	"encoding/binary"
	"math/big"

	"github.com/risc0-labs/risc0-lido-accounting-oracle/node"
)

// Journal is OracleJournal (spec §3): { cl_balance_gwei,
// withdrawal_vault_balance_wei, total_deposited_validators,
// total_exited_validators, block_root, external_commitment,
// membership_commitment }.
type Journal struct {
	CLBalanceGwei            uint64
	WithdrawalVaultBalanceWei *big.Int
	TotalDepositedValidators  uint64
	TotalExitedValidators     uint64
	BlockRoot                 node.Node
	ExternalCommitment        node.Node
	MembershipCommitment      node.Node
}

// Encode produces this journal's canonical byte-exact encoding: the
// three uint64 counters (LE8 each), the vault balance as a 32-byte
// big-endian uint256 (matching the ABI tuple's uint256 slots described
// in spec §6), then the three 32-byte roots.
func (j *Journal) Encode() []byte {
	out := make([]byte, 8+8+8+32+32+32+32)
	binary.LittleEndian.PutUint64(out[0:8], j.CLBalanceGwei)
	binary.LittleEndian.PutUint64(out[8:16], j.TotalDepositedValidators)
	binary.LittleEndian.PutUint64(out[16:24], j.TotalExitedValidators)

	vaultWei := j.WithdrawalVaultBalanceWei
	if vaultWei == nil {
		vaultWei = new(big.Int)
	}
	vaultWei.FillBytes(out[24:56])

	copy(out[56:88], j.BlockRoot[:])
	copy(out[88:120], j.ExternalCommitment[:])
	copy(out[120:152], j.MembershipCommitment[:])
	return out
}
