// Package receipt implements ReceiptInterface (spec §4.8): an
// abstraction over a zk proof's receipt that keeps the engines free of
// any particular proving backend's vocabulary. Two concrete
// implementations ship here (Dummy for tests, ZkVM for the Ziren
// zkvm_runtime host verifier); receipt/groth16.go adds a third for the
// teacher's own gnark/Groth16 stack.
package receipt

import "errors"

// ErrVerification is wrapped by every backend's Verify failure.
var ErrVerification = errors.New("receipt: verification failed")

// Interface is the dependency MembershipEngine/OracleEngine inject for
// prior-receipt verification: a continuation proof must show that the
// receipt it extends is valid under the same program identifier, and
// must expose the exact journal bytes that receipt commits to.
type Interface interface {
	// Verify checks the receipt is a valid proof under programID.
	Verify(programID [32]byte) error
	// Journal returns the exact bytes the receipt commits to.
	Journal() []byte
}
