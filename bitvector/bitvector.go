// Package bitvector implements MembershipBitvector (spec §3): a
// little-endian bitvector over u32 words recording, per validator
// index, whether that validator's withdrawal credentials match the
// configured constant.
package bitvector

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/risc0-labs/risc0-lido-accounting-oracle/gindex"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/node"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/ssz"
)

const wordBits = 32

// Bitvector is a growable, little-endian-packed bit set.
type Bitvector struct {
	words  []uint32
	bitLen uint64
}

// New returns a Bitvector of the given bit length, all bits clear.
func New(bitLen uint64) *Bitvector {
	b := &Bitvector{}
	b.Grow(bitLen)
	return b
}

// Clone returns an independent copy, so extending a continuation's
// bitvector never mutates the prior receipt's journal.
func (b *Bitvector) Clone() *Bitvector {
	out := &Bitvector{bitLen: b.bitLen, words: make([]uint32, len(b.words))}
	copy(out.words, b.words)
	return out
}

// Len returns the bit length (one past the highest validator index the
// vector has been extended to cover).
func (b *Bitvector) Len() uint64 { return b.bitLen }

// Grow extends the vector to bitLen bits, preserving existing bits. It
// is a no-op if bitLen <= the current length.
func (b *Bitvector) Grow(bitLen uint64) {
	if bitLen <= b.bitLen && b.words != nil {
		return
	}
	wantWords := int((bitLen + wordBits - 1) / wordBits)
	if wantWords > len(b.words) {
		grown := make([]uint32, wantWords)
		copy(grown, b.words)
		b.words = grown
	}
	b.bitLen = bitLen
}

// Set assigns bit i. i must be < Len().
func (b *Bitvector) Set(i uint64, v bool) {
	w, mask := i/wordBits, uint32(1)<<(i%wordBits)
	if v {
		b.words[w] |= mask
	} else {
		b.words[w] &^= mask
	}
}

// Get reads bit i. i must be < Len().
func (b *Bitvector) Get(i uint64) bool {
	w, mask := i/wordBits, uint32(1)<<(i%wordBits)
	return b.words[w]&mask != 0
}

// Words returns the packed little-endian words backing the vector.
// Callers must not mutate the returned slice.
func (b *Bitvector) Words() []uint32 { return b.words }

// Commitment computes SHA-256(LE(bit_len, 8 bytes) || LE(word_0, 4) ||
// LE(word_1, 4) || ...) (spec §6 "Membership hashing"). Including the
// bit length guards against two same-byte-tail vectors of different
// declared lengths hashing identically (Testable Property 8).
func (b *Bitvector) Commitment() node.Node {
	buf := make([]byte, 8+4*len(b.words))
	binary.LittleEndian.PutUint64(buf[:8], b.bitLen)
	for i, w := range b.words {
		binary.LittleEndian.PutUint32(buf[8+4*i:8+4*i+4], w)
	}
	var out node.Node
	h := sha256.Sum256(buf)
	copy(out[:], h[:])
	return out
}

// Scan extends bits from [from, upto) by reading each validator's
// withdrawal-credentials leaf from values in strictly ascending gindex
// order and testing it against withdrawalCredentials (spec §4.5
// "Validator scan"). MembershipEngine and input.Builder's preliminary
// oracle pass call it; OracleEngine does not, because it interleaves
// exit_epoch reads with the withdrawal_credentials reads in its own loop.
func Scan(values *ssz.ValueIterator, gindexOf func(v uint64) gindex.GeneralizedIndex, from, upto uint64, withdrawalCredentials node.Node, bits *Bitvector) error {
	for v := from; v < upto; v++ {
		leaf, err := values.NextAssertGIndex(gindexOf(v))
		if err != nil {
			return err
		}
		bits.Set(v, leaf == withdrawalCredentials)
	}
	return nil
}
