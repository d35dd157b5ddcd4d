package receipt

// Dummy carries a journal's bytes directly and performs no
// verification — the test-only stand-in for a real proving backend,
// the same role the teacher's gnark_test.IsSolved plays for circuit
// tests instead of an actual Groth16 proof.
type Dummy struct {
	journalBytes []byte
}

// NewDummy wraps journalBytes in a no-op receipt.
func NewDummy(journalBytes []byte) *Dummy {
	return &Dummy{journalBytes: journalBytes}
}

// Verify always succeeds.
func (d *Dummy) Verify([32]byte) error { return nil }

// Journal returns the wrapped bytes.
func (d *Dummy) Journal() []byte { return d.journalBytes }

// Bytes returns the receipt's wire representation. Dummy has no
// separate proof encoding, so its "receipt bytes" are the journal
// itself — sufficient for round-tripping it through wire framing in
// tests.
func (d *Dummy) Bytes() []byte { return d.journalBytes }
