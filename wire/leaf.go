package wire

// Leaf encodes a byte string. Content is forwarded to the buffer as it is
// appended; only the running length is kept.
type Leaf struct {
	buf    Buffer
	n      uint64
	tag    []byte
	tagged bool
	done   bool
}

// NewLeaf starts a leaf that writes to buf. Most callers obtain leaves from
// a Value instead.
func NewLeaf(buf Buffer) *Leaf {
	return &Leaf{buf: buf}
}

// Append adds p to the leaf content.
func (l *Leaf) Append(p []byte) *Leaf {
	l.mustBeOpen()
	l.n = addLen(l.n, len(p))
	if len(p) > 0 {
		l.buf.Write(p)
	}
	return l
}

// AppendString adds s to the leaf content.
func (l *Leaf) AppendString(s string) *Leaf {
	return l.Append([]byte(s))
}

// Write implements io.Writer so a leaf can be filled by fmt, io.Copy and
// friends. It never returns an error.
func (l *Leaf) Write(p []byte) (int, error) {
	l.Append(p)
	return len(p), nil
}

// SetTag sets the domain separation tag. It may be called at any point
// before Finish; the last call wins. The tag is copied.
func (l *Leaf) SetTag(tag []byte) {
	l.mustBeOpen()
	l.tag = append(l.tag[:0], tag...)
	l.tagged = true
}

// WithTag is SetTag for chaining.
func (l *Leaf) WithTag(tag []byte) *Leaf {
	l.SetTag(tag)
	return l
}

// Len returns the number of content bytes appended so far.
func (l *Leaf) Len() uint64 { return l.n }

// Finish writes the leaf suffix. Calling it again is a no-op.
func (l *Leaf) Finish() {
	if l.done {
		return
	}
	l.done = true
	writeSuffix(l.buf, l.n, l.tag, l.tagged, SymLeaf, SymLeafCtx)
}

func (l *Leaf) mustBeOpen() {
	if l.done {
		panic("wire: leaf used after finish")
	}
}
