// Package wire implements the framed byte-stream encoding spec §6
// describes for MembershipInput/OracleInput, and the Solidity-ABI
// encoding of OracleJournal, using the same binary.LittleEndian
// discipline the rest of this module applies (bitvector.Commitment,
// catalog.UnpackBalance) plus go-ethereum's accounts/abi package for
// the ABI tuple.
package wire

import "fmt"

// shortBufferError is returned when a Decode call runs out of input
// before a fixed-size field is fully read.
type shortBufferError struct {
	want, have int
}

func (e *shortBufferError) Error() string {
	return fmt.Sprintf("wire: short buffer: want %d bytes, have %d", e.want, e.have)
}

// cursor reads sequentially through a byte slice, tracking position.
type cursor struct {
	data []byte
	pos  int
}

func newCursor(data []byte) *cursor { return &cursor{data: data} }

func (c *cursor) take(n int) ([]byte, error) {
	if c.pos+n > len(c.data) {
		return nil, &shortBufferError{want: n, have: len(c.data) - c.pos}
	}
	out := c.data[c.pos : c.pos+n]
	c.pos += n
	return out, nil
}

// packBits packs a pre-order descriptor/value-mask bit sequence into
// bytes, one bit per position, LSB-first within each byte. The packed
// form is always exactly (len(bits)+7)/8 bytes, with unused trailing
// bits in the final byte clear.
func packBits(bits []bool) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, b := range bits {
		if b {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}

// unpackBits reads exactly n bits back out of a packBits-encoded byte
// slice.
func unpackBits(data []byte, n int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = data[i/8]&(1<<uint(i%8)) != 0
	}
	return out
}
