package wire

import (
	"encoding/binary"
	"math"
	"math/bits"
)

// Control symbols. These values are part of the wire format and never change.
const (
	SymList    byte = 1
	SymListCtx byte = 2
	SymLeaf    byte = 3
	SymLeafCtx byte = 4
	SymLen32   byte = 5
	SymBigLen  byte = 6
)

// MaxLenSize is the largest encoding AppendLen can produce.
const MaxLenSize = 10

// AppendLen appends the canonical encoding of n to dst.
//
// n <= 0xFFFFFFFF is written as four big-endian bytes followed by SymLen32.
// Larger values are written as their big-endian bytes without leading zeros,
// then the number of those bytes, then SymBigLen.
func AppendLen(dst []byte, n uint64) []byte {
	if n <= math.MaxUint32 {
		dst = binary.BigEndian.AppendUint32(dst, uint32(n))
		return append(dst, SymLen32)
	}
	var be [8]byte
	binary.BigEndian.PutUint64(be[:], n)
	skip := bits.LeadingZeros64(n) / 8
	dst = append(dst, be[skip:]...)
	// At most 8 bytes, so the count always fits in one byte.
	return append(dst, byte(len(be)-skip), SymBigLen)
}

// EncodeLen writes the canonical encoding of n to buf.
func EncodeLen(buf Buffer, n uint64) {
	var scratch [MaxLenSize]byte
	buf.Write(AppendLen(scratch[:0], n))
}

func addLen(acc uint64, n int) uint64 {
	sum, carry := bits.Add64(acc, uint64(n), 0)
	if carry != 0 {
		panic("wire: length overflow")
	}
	return sum
}

// writeSuffix writes len(n) followed by either sym or tag, len(tag), symCtx.
func writeSuffix(buf Buffer, n uint64, tag []byte, tagged bool, sym, symCtx byte) {
	var scratch [2*MaxLenSize + 1]byte
	out := AppendLen(scratch[:0], n)
	if !tagged {
		buf.Write(append(out, sym))
		return
	}
	buf.Write(out)
	buf.Write(tag)
	out = AppendLen(scratch[:0], uint64(len(tag)))
	buf.Write(append(out, symCtx))
}
