// Package config carries the process-wide constants (§9 "Global
// constants" redesign note) as configuration values passed into engine
// entry points, rather than package-level globals, so mainnet and
// testnet variants share one binary contract.
package config

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/risc0-labs/risc0-lido-accounting-oracle/node"
)

// SlotsPerHistoricalRoot is the length of the Beacon state's state_roots
// and block_roots ring buffers.
const SlotsPerHistoricalRoot = 8192

// CapellaForkSlot is the slot historical_summaries accounting starts from
// on mainnet.
const CapellaForkSlot = 6_209_536

// ChainSpec bundles the network-specific values an engine call needs:
// which 32-byte withdrawal-credentials prefix identifies a Lido
// validator, and the execution-layer vault address the companion balance
// commitment refers to.
type ChainSpec struct {
	Name                  string
	WithdrawalCredentials node.Node
	WithdrawalVaultAddr   [20]byte
}

// withdrawalCredentialsFor builds the 0x01‖00…00‖addr withdrawal
// credentials constant for an ETH1 withdrawal address (EIP-4895 prefix).
func withdrawalCredentialsFor(addr [20]byte) node.Node {
	var wc node.Node
	wc[0] = 0x01
	copy(wc[12:], addr[:])
	return wc
}

// Mainnet is the production Lido withdrawal-vault chain spec.
var Mainnet = ChainSpec{
	Name:                "mainnet",
	WithdrawalVaultAddr: common.HexToAddress("0xB9D7934878B5FB9610B3fE8A5e441e8fad7E293f"),
}

// Sepolia is the Sepolia-testnet Lido withdrawal-vault chain spec.
var Sepolia = ChainSpec{
	Name:                "sepolia",
	WithdrawalVaultAddr: common.HexToAddress("0xDe7318Afa67eaD6d6bbC8224dc589d91c5D18E3b"),
}

func init() {
	Mainnet.WithdrawalCredentials = withdrawalCredentialsFor(Mainnet.WithdrawalVaultAddr)
	Sepolia.WithdrawalCredentials = withdrawalCredentialsFor(Sepolia.WithdrawalVaultAddr)
}
