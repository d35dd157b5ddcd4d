package receipt

import "fmt"

// VerifierFunc is the host-side boundary call into the zkVM's own
// receipt verifier (Ziren zkvm_runtime's guest-side Read/Commit pair
// has a matching host verifier outside this module's scope — spec §1
// marks "the underlying zk-VM prover/verifier" as an external
// collaborator). It returns the receipt's committed journal bytes once
// the receipt is shown valid under programID.
type VerifierFunc func(programID [32]byte, receiptBytes []byte) ([]byte, error)

// ZkVM adapts a zkVM receipt to Interface by delegating to an injected
// VerifierFunc and caching the journal bytes it returns.
type ZkVM struct {
	receiptBytes []byte
	verify       VerifierFunc
	journalBytes []byte
}

// NewZkVM wraps the raw receipt bytes produced by the zkVM prover.
func NewZkVM(receiptBytes []byte, verify VerifierFunc) *ZkVM {
	return &ZkVM{receiptBytes: receiptBytes, verify: verify}
}

// Verify invokes the injected verifier and caches its journal.
func (z *ZkVM) Verify(programID [32]byte) error {
	journal, err := z.verify(programID, z.receiptBytes)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVerification, err)
	}
	z.journalBytes = journal
	return nil
}

// Journal returns the journal bytes obtained by the last successful
// Verify call. Calling it before Verify succeeds returns nil.
func (z *ZkVM) Journal() []byte { return z.journalBytes }

// Bytes returns the raw receipt bytes produced by the zkVM prover, for
// carrying a prior receipt verbatim inside a framed continuation Input.
func (z *ZkVM) Bytes() []byte { return z.receiptBytes }
