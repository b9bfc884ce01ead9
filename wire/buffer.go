package wire

import "io"

// Buffer is an append-only byte sink. Writes cannot fail; a sink that can
// fail must record the error itself (see Writer). Write must not retain p.
type Buffer interface {
	Write(p []byte)
}

// BufferFunc adapts a function to Buffer.
type BufferFunc func(p []byte)

func (f BufferFunc) Write(p []byte) { f(p) }

// HashBuffer adapts a hash state (hash.Hash, a sha3.ShakeHash, a blake3
// hasher, ...) to Buffer. Hash writers never return an error.
func HashBuffer(h io.Writer) Buffer {
	return hashBuffer{w: h}
}

type hashBuffer struct {
	w io.Writer
}

func (b hashBuffer) Write(p []byte) {
	_, _ = b.w.Write(p)
}

// Bytes collects the canonical stream in memory.
type Bytes struct {
	b []byte
}

func (b *Bytes) Write(p []byte) { b.b = append(b.b, p...) }

// Bytes returns the collected stream. The slice aliases the buffer.
func (b *Bytes) Bytes() []byte { return b.b }

func (b *Bytes) Len() int { return len(b.b) }

func (b *Bytes) Reset() { b.b = b.b[:0] }

// Writer adapts an io.Writer that may fail. The first error is kept and all
// later writes are dropped.
type Writer struct {
	w   io.Writer
	n   int64
	err error
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (w *Writer) Write(p []byte) {
	if w.err != nil {
		return
	}
	n, err := w.w.Write(p)
	w.n += int64(n)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	w.err = err
}

// Err returns the first write error, if any.
func (w *Writer) Err() error { return w.err }

// Written returns the number of bytes accepted by the underlying writer.
func (w *Writer) Written() int64 { return w.n }
