// Command guest is the zkVM guest entrypoint (spec §5): single-threaded,
// no I/O beyond the zkVM's own read/commit primitives, no logging (the
// error-handling design routes structured errors to the host only).
// Built twice, once per engine, with -ldflags "-X main.kind=oracle" or
// "-X main.kind=membership" selecting which program this binary is.
package main

import (
	zkvm_runtime "github.com/ProjectZKM/Ziren/crates/go-runtime/zkvm_runtime"

	"github.com/risc0-labs/risc0-lido-accounting-oracle/config"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/membership"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/oracle"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/receipt"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/report"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/wire"
)

var kind = "oracle"

func main() {
	switch kind {
	case "oracle":
		runOracle()
	case "membership":
		runMembership()
	default:
		panic("guest: unknown build kind " + kind)
	}
}

// zkvmRecursiveVerify wraps the zkVM's own in-circuit recursive-receipt
// primitive: unlike receipt.ZkVM's host-side use (an HTTP/IPC boundary
// call to an external verifier, out of scope per spec §1), inside the
// guest this composes into the same proof rather than calling out, so
// it carries no I/O of its own.
func zkvmRecursiveVerify(programID [32]byte, receiptBytes []byte) ([]byte, error) {
	return zkvm_runtime.VerifyReceipt(programID, receiptBytes)
}

func wrapPriorReceipt(receiptBytes []byte) receipt.Interface {
	return receipt.NewZkVM(receiptBytes, zkvmRecursiveVerify)
}

func runOracle() {
	raw := zkvm_runtime.Read()
	decoded, err := wire.DecodeOracleInput(raw)
	if err != nil {
		panic(err)
	}

	var cont *report.Continuation
	if decoded.Continuation != nil {
		cont = decoded.Continuation.ToContinuation(wrapPriorReceipt)
	}

	in := oracle.Input{
		ProgramID:                 decoded.ProgramID,
		BlockRoot:                 decoded.BlockRoot,
		BlockMultiproof:           decoded.BlockMultiproof,
		StateMultiproof:           decoded.StateMultiproof,
		HistoricalBatchMultiproof: decoded.HistoricalBatchMultiproof,
		Type:                      report.ProofType{Continuation: cont},
		ExternalCommitment:        decoded.ExternalCommitment,
	}

	chainSpec := &config.Mainnet
	e := oracle.Engine{}
	journal, err := e.GenerateOracleReport(in, chainSpec)
	if err != nil {
		panic(err)
	}

	out, err := wire.EncodeOracleJournalABI(journal)
	if err != nil {
		panic(err)
	}
	zkvm_runtime.Commit(out)
}

func runMembership() {
	raw := zkvm_runtime.Read()
	decoded, err := wire.DecodeMembershipInput(raw)
	if err != nil {
		panic(err)
	}

	var cont *report.Continuation
	if decoded.Continuation != nil {
		cont = decoded.Continuation.ToContinuation(wrapPriorReceipt)
	}

	in := membership.Input{
		ProgramID:                 decoded.ProgramID,
		StateRoot:                 decoded.StateRoot,
		StateMultiproof:           decoded.StateMultiproof,
		HistoricalBatchMultiproof: decoded.HistoricalBatchMultiproof,
		Type:                      report.ProofType{Continuation: cont},
	}

	e := membership.Engine{}
	journal, err := e.UpdateMembership(in, config.Mainnet.WithdrawalCredentials)
	if err != nil {
		panic(err)
	}
	zkvm_runtime.Commit(journal.Encode())
}
