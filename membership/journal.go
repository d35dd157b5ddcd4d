package membership

import (
	"encoding/binary"

	"github.com/risc0-labs/risc0-lido-accounting-oracle/bitvector"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/node"
)

// Journal is MembershipJournal (spec §3): { program_id, state_root,
// max_validator_index, membership }.
type Journal struct {
	ProgramID         node.Node
	StateRoot         node.Node
	MaxValidatorIndex uint64
	Membership        *bitvector.Bitvector
}

// Encode produces the canonical byte-exact encoding a prior receipt's
// committed journal bytes must equal (spec §4.5 "Receipt verification"):
// program_id || state_root || max_validator_index (LE8) || bit_len (LE8)
// || packed words (LE4 each).
func (j *Journal) Encode() []byte {
	words := j.Membership.Words()
	out := make([]byte, 32+32+8+8+4*len(words))
	copy(out[0:32], j.ProgramID[:])
	copy(out[32:64], j.StateRoot[:])
	binary.LittleEndian.PutUint64(out[64:72], j.MaxValidatorIndex)
	binary.LittleEndian.PutUint64(out[72:80], j.Membership.Len())
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[80+4*i:80+4*i+4], w)
	}
	return out
}
