package report

import "errors"

// Error taxonomy shared by MembershipEngine and OracleEngine (spec §7).
var (
	ErrMissingHistoricalBatch = errors.New("report: long-range continuation without supporting historical batch")
	ErrUnsupportedFork        = errors.New("report: state variant not recognized")
	ErrReceiptVerification    = errors.New("report: prior receipt verification failed")
	ErrJournalMismatch        = errors.New("report: prior receipt journal does not match reconstructed journal")
	ErrRootMismatch           = errors.New("report: linked state root does not match prior state root")
	ErrInvalidContinuation    = errors.New("report: continuation type does not match slot distance")
)
