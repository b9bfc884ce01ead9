package udigest

import (
	"hash"
	"io"

	"xdao.co/udigest/wire"
)

const (
	// ListTag is the domain tag of the list wrapping a batch of values.
	ListTag = "udigest.list"

	// HeaderTag is the domain tag of the header struct.
	HeaderTag = "udigest.header"

	// HeaderVersion is written in the udigest_version field of the header.
	HeaderVersion = "1"
)

// Stream writes one or more top-level values to a buffer.
type Stream func(buf wire.Buffer)

// Single streams d.
func Single(d Digestable) Stream {
	return func(buf wire.Buffer) { EncodeTo(buf, d) }
}

// Batch streams items as one list tagged with ListTag.
func Batch(items ...Digestable) Stream {
	return func(buf wire.Buffer) {
		l := wire.NewList(buf).WithTag([]byte(ListTag))
		for _, item := range items {
			item.UnambiguouslyEncode(l.Item())
		}
		l.Finish()
	}
}

// Header returns the header struct for tag:
// {udigest_version: "1", tag: tag} with the domain tag HeaderTag.
func Header(tag Digestable) Digestable {
	return Inline().
		Tag(HeaderTag).
		Field("udigest_version", String(HeaderVersion)).
		Field("tag", tag)
}

// WithHeader streams the header for tag and then s, so that identical
// values hashed under different tags never share a digest.
func WithHeader(tag Digestable, s Stream) Stream {
	return func(buf wire.Buffer) {
		EncodeTo(buf, Header(tag))
		s(buf)
	}
}

// Bytes returns everything s writes.
func (s Stream) Bytes() []byte {
	var buf wire.Bytes
	s(&buf)
	return buf.Bytes()
}

// Sum feeds s into h and returns the digest appended to b.
func (s Stream) Sum(h hash.Hash, b []byte) []byte {
	s(wire.HashBuffer(h))
	return h.Sum(b)
}

// Hash digests d with a fixed-output hash such as sha256.New.
func Hash(newHash func() hash.Hash, d Digestable) []byte {
	return Single(d).Sum(newHash(), nil)
}

// HashList digests items as a batch with a fixed-output hash.
func HashList(newHash func() hash.Hash, items ...Digestable) []byte {
	return Batch(items...).Sum(newHash(), nil)
}

// HashTagged digests the header for tag followed by d.
func HashTagged(newHash func() hash.Hash, tag, d Digestable) []byte {
	return WithHeader(tag, Single(d)).Sum(newHash(), nil)
}

// XOF is an extendable-output hash: written to, then read from. A
// sha3.ShakeHash is one.
type XOF interface {
	io.Writer
	io.Reader
}

// StreamXOF feeds s into x and returns the reader for its output.
func StreamXOF(x XOF, s Stream) io.Reader {
	s(wire.HashBuffer(x))
	return x
}

// HashXOF digests d with an extendable-output hash.
func HashXOF(newXOF func() XOF, d Digestable) io.Reader {
	return StreamXOF(newXOF(), Single(d))
}

// HashListXOF digests items as a batch with an extendable-output hash.
func HashListXOF(newXOF func() XOF, items ...Digestable) io.Reader {
	return StreamXOF(newXOF(), Batch(items...))
}

// NewVOF returns a hash producing exactly size bytes, or an error when the
// algorithm cannot produce that many.
type NewVOF func(size int) (hash.Hash, error)

// StreamVOF digests s with a variable-output hash, filling out.
func StreamVOF(newHash NewVOF, s Stream, out []byte) error {
	h, err := newHash(len(out))
	if err != nil {
		return InvalidOutputSize("hash", len(out), err)
	}
	if h.Size() != len(out) {
		return InvalidOutputSize("hash", len(out), nil)
	}
	copy(out, s.Sum(h, out[:0]))
	return nil
}

// HashVOF digests d with a variable-output hash such as blake2b, filling
// out. The only possible error is an invalid output size.
func HashVOF(newHash NewVOF, d Digestable, out []byte) error {
	return StreamVOF(newHash, Single(d), out)
}

// HashListVOF digests items as a batch with a variable-output hash.
func HashListVOF(newHash NewVOF, items []Digestable, out []byte) error {
	return StreamVOF(newHash, Batch(items...), out)
}
