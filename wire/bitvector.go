package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/risc0-labs/risc0-lido-accounting-oracle/bitvector"
)

// EncodeBitvector serializes bv as bit_len (u64) | packed_words (spec
// §6), matching the little-endian word packing bitvector.Commitment
// already hashes over.
func EncodeBitvector(bv *bitvector.Bitvector) []byte {
	words := bv.Words()
	out := make([]byte, 8+4*len(words))
	binary.LittleEndian.PutUint64(out[:8], bv.Len())
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[8+4*i:8+4*i+4], w)
	}
	return out
}

func decodeBitvector(c *cursor) (*bitvector.Bitvector, error) {
	lenBytes, err := c.take(8)
	if err != nil {
		return nil, fmt.Errorf("wire: bitvector bit_len: %w", err)
	}
	bitLen := binary.LittleEndian.Uint64(lenBytes)

	bv := bitvector.New(bitLen)
	nWords := int((bitLen + 31) / 32)
	for i := 0; i < nWords; i++ {
		wordBytes, err := c.take(4)
		if err != nil {
			return nil, fmt.Errorf("wire: bitvector word[%d]: %w", i, err)
		}
		w := binary.LittleEndian.Uint32(wordBytes)
		for b := 0; b < 32; b++ {
			idx := uint64(i*32 + b)
			if idx >= bitLen {
				break
			}
			bv.Set(idx, w&(1<<uint(b)) != 0)
		}
	}
	return bv, nil
}

// DecodeBitvector parses a standalone EncodeBitvector byte slice.
func DecodeBitvector(data []byte) (*bitvector.Bitvector, error) {
	return decodeBitvector(newCursor(data))
}
