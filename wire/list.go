package wire

// List encodes a sequence of values. Items are written to the buffer as they
// are produced; only the item count is kept.
type List struct {
	buf    Buffer
	n      uint64
	tag    []byte
	tagged bool
	done   bool
	open   *Value
}

// NewList starts a list that writes to buf. Most callers obtain lists from
// a Value instead.
func NewList(buf Buffer) *List {
	return &List{buf: buf}
}

// Item starts the next list item. The previous item, if any, is finished
// first, so it must already have been given a shape.
func (l *List) Item() *Value {
	l.mustBeOpen()
	l.settle()
	l.n = addLen(l.n, 1)
	v := &Value{buf: l.buf}
	l.open = v
	return v
}

// Leaf starts the next item as a leaf.
func (l *List) Leaf() *Leaf { return l.Item().Leaf() }

// List starts the next item as a list.
func (l *List) List() *List { return l.Item().List() }

// SetTag sets the domain separation tag. It may be called at any point
// before Finish; the last call wins. The tag is copied.
func (l *List) SetTag(tag []byte) {
	l.mustBeOpen()
	l.tag = append(l.tag[:0], tag...)
	l.tagged = true
}

// WithTag is SetTag for chaining.
func (l *List) WithTag(tag []byte) *List {
	l.SetTag(tag)
	return l
}

// Len returns the number of items started so far.
func (l *List) Len() uint64 { return l.n }

// Finish finishes the open item, if any, and writes the list suffix.
// Calling it again is a no-op.
func (l *List) Finish() {
	if l.done {
		return
	}
	l.settle()
	l.done = true
	writeSuffix(l.buf, l.n, l.tag, l.tagged, SymList, SymListCtx)
}

func (l *List) settle() {
	if l.open == nil {
		return
	}
	v := l.open
	l.open = nil
	v.Finish()
}

func (l *List) mustBeOpen() {
	if l.done {
		panic("wire: list used after finish")
	}
}
