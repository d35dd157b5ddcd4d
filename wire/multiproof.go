package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/risc0-labs/risc0-lido-accounting-oracle/node"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/ssz"
)

// EncodeMultiproof serializes mp as spec §6 describes: data_len (u32) |
// data | descriptor | value_mask | max_stack_depth. descriptor and
// value_mask are bit-packed (packBits); descriptor carries its own
// explicit bit-length prefix, while value_mask's length is implied by
// data_len (= popcount(descriptor) by construction), so it needs none.
func EncodeMultiproof(mp *ssz.Multiproof) []byte {
	k := len(mp.Data)

	out := make([]byte, 0, 4+32*k+4+len(packBits(mp.Descriptor))+len(packBits(mp.ValueMask))+4)

	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], uint32(k))
	out = append(out, u32[:]...)

	for _, n := range mp.Data {
		out = append(out, n[:]...)
	}

	binary.LittleEndian.PutUint32(u32[:], uint32(len(mp.Descriptor)))
	out = append(out, u32[:]...)
	out = append(out, packBits(mp.Descriptor)...)
	out = append(out, packBits(mp.ValueMask)...)

	binary.LittleEndian.PutUint32(u32[:], uint32(mp.MaxStackDepth))
	out = append(out, u32[:]...)

	return out
}

// decodeMultiproof parses the EncodeMultiproof wire format starting at
// c's current position.
func decodeMultiproof(c *cursor) (*ssz.Multiproof, error) {
	kBytes, err := c.take(4)
	if err != nil {
		return nil, fmt.Errorf("wire: multiproof data_len: %w", err)
	}
	k := int(binary.LittleEndian.Uint32(kBytes))

	data := make([]node.Node, k)
	for i := range data {
		raw, err := c.take(32)
		if err != nil {
			return nil, fmt.Errorf("wire: multiproof data[%d]: %w", i, err)
		}
		copy(data[i][:], raw)
	}

	descLenBytes, err := c.take(4)
	if err != nil {
		return nil, fmt.Errorf("wire: multiproof descriptor_bit_len: %w", err)
	}
	descLen := int(binary.LittleEndian.Uint32(descLenBytes))

	descPacked, err := c.take((descLen + 7) / 8)
	if err != nil {
		return nil, fmt.Errorf("wire: multiproof descriptor: %w", err)
	}
	descriptor := unpackBits(descPacked, descLen)

	maskPacked, err := c.take((k + 7) / 8)
	if err != nil {
		return nil, fmt.Errorf("wire: multiproof value_mask: %w", err)
	}
	valueMask := unpackBits(maskPacked, k)

	depthBytes, err := c.take(4)
	if err != nil {
		return nil, fmt.Errorf("wire: multiproof max_stack_depth: %w", err)
	}
	maxStackDepth := int(binary.LittleEndian.Uint32(depthBytes))

	return &ssz.Multiproof{
		Data:          data,
		Descriptor:    descriptor,
		ValueMask:     valueMask,
		MaxStackDepth: maxStackDepth,
	}, nil
}

// DecodeMultiproof parses a standalone EncodeMultiproof byte slice.
func DecodeMultiproof(data []byte) (*ssz.Multiproof, error) {
	return decodeMultiproof(newCursor(data))
}
