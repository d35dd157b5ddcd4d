package report

import (
	"bytes"
	"fmt"

	"github.com/risc0-labs/risc0-lido-accounting-oracle/node"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/receipt"
)

// VerifyPriorReceipt implements the "Receipt verification" step shared by
// MembershipEngine and OracleEngine (spec §4.5): the prior receipt's
// committed journal bytes must equal wantJournalBytes byte-exact, and the
// receipt itself must verify under programID. Both checks are mandatory;
// either failure aborts.
func VerifyPriorReceipt(priorReceipt receipt.Interface, wantJournalBytes []byte, programID node.Node) error {
	if !bytes.Equal(priorReceipt.Journal(), wantJournalBytes) {
		return ErrJournalMismatch
	}
	if err := priorReceipt.Verify(programID); err != nil {
		return fmt.Errorf("%w: %v", ErrReceiptVerification, err)
	}
	return nil
}
