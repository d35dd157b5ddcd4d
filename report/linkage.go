package report

import (
	"fmt"

	"github.com/risc0-labs/risc0-lido-accounting-oracle/catalog"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/config"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/node"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/ssz"
)

// VerifyLinkage proves the prior state root recorded in cont is
// reachable from the current (slot, stateRoot) pair, per the table in
// spec §4.5. For ShortRange and LongRange it consumes the next expected
// value from values, so callers must invoke it at the point in the
// read sequence where the linkage gindex actually falls: state_roots
// (ShortRange) sorts before the validators subtree, so it's read first;
// historical_summaries (LongRange) sorts after validators and balances,
// so it must be read last.
func VerifyLinkage(schema *catalog.Schema, cont *Continuation, slot uint64, stateRoot node.Node, values *ssz.ValueIterator, historicalBatch *ssz.Multiproof) error {
	switch cont.Type {
	case SameSlot:
		if slot != cont.PriorSlot {
			return fmt.Errorf("%w: SameSlot requires slot == prior_slot (%d != %d)", ErrInvalidContinuation, slot, cont.PriorSlot)
		}
		if stateRoot != cont.PriorStateRoot {
			return ErrRootMismatch
		}
		return nil

	case ShortRange:
		if !(cont.PriorSlot < slot && slot <= cont.PriorSlot+config.SlotsPerHistoricalRoot) {
			return fmt.Errorf("%w: ShortRange requires prior_slot < slot <= prior_slot+%d", ErrInvalidContinuation, config.SlotsPerHistoricalRoot)
		}
		linked, err := values.NextAssertGIndex(schema.StateRoots(cont.PriorSlot))
		if err != nil {
			return err
		}
		if linked != cont.PriorStateRoot {
			return ErrRootMismatch
		}
		return nil

	case LongRange:
		if slot <= cont.PriorSlot+config.SlotsPerHistoricalRoot {
			return fmt.Errorf("%w: LongRange requires slot > prior_slot+%d", ErrInvalidContinuation, config.SlotsPerHistoricalRoot)
		}
		summaryIndex := (cont.PriorSlot - config.CapellaForkSlot) / config.SlotsPerHistoricalRoot
		summaryRoot, err := values.NextAssertGIndex(schema.HistoricalSummaries(summaryIndex))
		if err != nil {
			return err
		}
		if historicalBatch == nil {
			return ErrMissingHistoricalBatch
		}
		if err := historicalBatch.Verify(summaryRoot); err != nil {
			return err
		}
		batchValues := historicalBatch.Values()
		linked, err := batchValues.NextAssertGIndex(catalog.HistoricalBatchStateRoots(cont.PriorSlot))
		if err != nil {
			return err
		}
		if linked != cont.PriorStateRoot {
			return ErrRootMismatch
		}
		return nil

	default:
		return fmt.Errorf("%w: continuation type %v", ErrUnsupportedFork, cont.Type)
	}
}
