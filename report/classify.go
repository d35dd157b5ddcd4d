package report

import "github.com/risc0-labs/risc0-lido-accounting-oracle/config"

// ClassifyContinuation picks the ContinuationType for a proof extending
// a prior report at priorSlot up to slot, per the table in spec §4.5:
// same slot reuses the prior root directly, a gap within one
// state_roots ring buffer reads it straight out of the vector, and a
// longer gap must route through a HistoricalBatch.
func ClassifyContinuation(priorSlot, slot uint64) ContinuationType {
	switch {
	case slot == priorSlot:
		return SameSlot
	case slot <= priorSlot+config.SlotsPerHistoricalRoot:
		return ShortRange
	default:
		return LongRange
	}
}
