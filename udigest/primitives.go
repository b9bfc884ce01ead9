package udigest

import (
	"encoding/binary"
	"math/big"
	"math/bits"

	"xdao.co/udigest/wire"
)

// Integers are encoded by value, not by width: uint16(1000) and
// uint64(1000) produce the same leaf. Add a domain tag where the width
// matters.

// Uint is an unsigned integer of any width.
type Uint uint64

func (x Uint) UnambiguouslyEncode(v *wire.Value) { EncodeUint(v, uint64(x)) }

// Int is a signed integer of any width.
type Int int64

func (x Int) UnambiguouslyEncode(v *wire.Value) { EncodeInt(v, int64(x)) }

// Bool is encoded as the unsigned integer 0 or 1.
type Bool bool

func (b Bool) UnambiguouslyEncode(v *wire.Value) {
	if b {
		EncodeUint(v, 1)
		return
	}
	EncodeUint(v, 0)
}

// Char is encoded as its code point.
type Char rune

func (c Char) UnambiguouslyEncode(v *wire.Value) { EncodeUint(v, uint64(uint32(c))) }

// String is encoded as a leaf of its UTF-8 bytes.
type String string

func (s String) UnambiguouslyEncode(v *wire.Value) { v.Text(string(s)) }

// Bytes is encoded as a leaf of the raw bytes.
type Bytes []byte

func (b Bytes) UnambiguouslyEncode(v *wire.Value) { v.Bytes(b) }

// Marker is a zero-sized value. It is encoded as an empty list.
type Marker struct{}

func (Marker) UnambiguouslyEncode(v *wire.Value) { v.List().Finish() }

// BigInt is a signed integer of arbitrary precision. A nil V is zero.
type BigInt struct {
	V *big.Int
}

func (x BigInt) UnambiguouslyEncode(v *wire.Value) { EncodeBigInt(v, x.V) }

// BigUint is an unsigned integer of arbitrary precision, e.g. a u128.
// A nil V is zero; a negative V panics.
type BigUint struct {
	V *big.Int
}

func (x BigUint) UnambiguouslyEncode(v *wire.Value) {
	if x.V != nil && x.V.Sign() < 0 {
		panic("udigest: negative BigUint")
	}
	l := v.Leaf()
	if x.V != nil {
		l.Append(x.V.Bytes())
	}
	l.Finish()
}

// AppendUint appends x as big-endian bytes without leading zeros. Zero
// appends nothing.
func AppendUint(dst []byte, x uint64) []byte {
	var be [8]byte
	binary.BigEndian.PutUint64(be[:], x)
	return append(dst, be[bits.LeadingZeros64(x)/8:]...)
}

// AppendInt appends a sign byte (1 for positive, 0 for negative) followed
// by the magnitude of x without leading zeros. Zero appends nothing.
func AppendInt(dst []byte, x int64) []byte {
	if x == 0 {
		return dst
	}
	m := uint64(x)
	if x < 0 {
		return AppendUint(append(dst, 0), -m)
	}
	return AppendUint(append(dst, 1), m)
}

// EncodeUint encodes x as a leaf.
func EncodeUint(v *wire.Value, x uint64) {
	var scratch [8]byte
	v.Bytes(AppendUint(scratch[:0], x))
}

// EncodeInt encodes x as a leaf.
func EncodeInt(v *wire.Value, x int64) {
	var scratch [9]byte
	v.Bytes(AppendInt(scratch[:0], x))
}

// EncodeBigInt encodes x with the same rules as EncodeInt.
func EncodeBigInt(v *wire.Value, x *big.Int) {
	l := v.Leaf()
	if x != nil && x.Sign() != 0 {
		if x.Sign() < 0 {
			l.Append([]byte{0})
		} else {
			l.Append([]byte{1})
		}
		l.Append(x.Bytes())
	}
	l.Finish()
}
