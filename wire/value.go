package wire

type shape uint8

const (
	shapeNone shape = iota
	shapeLeaf
	shapeList
	shapeEnum
)

// Value is a value whose shape has not been chosen yet. Exactly one of Leaf,
// List, Struct or Enum may be called, once.
type Value struct {
	buf   Buffer
	shape shape
	leaf  *Leaf
	list  *List
	enum  *Enum
}

// NewValue returns a root value writing to buf. The caller must Finish it.
func NewValue(buf Buffer) *Value {
	return &Value{buf: buf}
}

func (v *Value) choose(s shape) {
	if v.shape != shapeNone {
		panic("wire: value shape already chosen")
	}
	v.shape = s
}

// Leaf encodes the value as a byte string.
func (v *Value) Leaf() *Leaf {
	v.choose(shapeLeaf)
	v.leaf = NewLeaf(v.buf)
	return v.leaf
}

// List encodes the value as a list.
func (v *Value) List() *List {
	v.choose(shapeList)
	v.list = NewList(v.buf)
	return v.list
}

// Struct encodes the value as a list of name/value pairs.
func (v *Value) Struct() *Struct {
	return &Struct{list: v.List()}
}

// Enum encodes the value as a struct whose first field is "variant".
func (v *Value) Enum() *Enum {
	v.choose(shapeEnum)
	v.enum = &Enum{buf: v.buf}
	return v.enum
}

// Bytes encodes p as an untagged leaf and finishes it.
func (v *Value) Bytes(p []byte) {
	v.Leaf().Append(p).Finish()
}

// Text encodes s as an untagged leaf and finishes it.
func (v *Value) Text(s string) {
	v.Leaf().AppendString(s).Finish()
}

// EncodeLeaf runs fn against the value as a leaf and finishes the leaf.
func (v *Value) EncodeLeaf(fn func(l *Leaf)) {
	l := v.Leaf()
	defer l.Finish()
	fn(l)
}

// EncodeList runs fn against the value as a list and finishes the list.
func (v *Value) EncodeList(fn func(l *List)) {
	l := v.List()
	defer l.Finish()
	fn(l)
}

// EncodeStruct runs fn against the value as a struct and finishes it.
func (v *Value) EncodeStruct(fn func(s *Struct)) {
	s := v.Struct()
	defer s.Finish()
	fn(s)
}

// Finish finishes whatever the value was turned into. A value that was
// never given a shape cannot be finished: nothing was written for it, and
// the enclosing list has already counted it.
func (v *Value) Finish() {
	switch v.shape {
	case shapeLeaf:
		v.leaf.Finish()
	case shapeList:
		v.list.Finish()
	case shapeEnum:
		v.enum.finish()
	default:
		panic("wire: value finished without being encoded")
	}
}

// Struct encodes named fields in the order they are added.
type Struct struct {
	list *List
}

// NewStruct starts a struct that writes to buf.
func NewStruct(buf Buffer) *Struct {
	return &Struct{list: NewList(buf)}
}

// Field adds a field named name and returns the encoder for its value.
func (s *Struct) Field(name string) *Value {
	s.list.Leaf().AppendString(name)
	return s.list.Item()
}

// FieldBytes is Field for names that are not valid UTF-8 text.
func (s *Struct) FieldBytes(name []byte) *Value {
	s.list.Leaf().Append(name)
	return s.list.Item()
}

// SetTag sets the domain separation tag of the underlying list.
func (s *Struct) SetTag(tag []byte) { s.list.SetTag(tag) }

// WithTag is SetTag for chaining.
func (s *Struct) WithTag(tag []byte) *Struct {
	s.list.SetTag(tag)
	return s
}

// Len returns the number of fields added so far.
func (s *Struct) Len() uint64 { return s.list.Len() / 2 }

func (s *Struct) Finish() { s.list.Finish() }

// Enum encodes one variant of a sum type as
// ["variant", name, field_name, field_value, ...].
type Enum struct {
	buf     Buffer
	variant *Struct
}

// Variant selects the variant and returns the encoder for its fields.
func (e *Enum) Variant(name string) *Struct {
	return e.VariantBytes([]byte(name))
}

// VariantBytes is Variant for names that are not valid UTF-8 text.
func (e *Enum) VariantBytes(name []byte) *Struct {
	if e.variant != nil {
		panic("wire: enum variant already chosen")
	}
	s := NewStruct(e.buf)
	s.Field("variant").Bytes(name)
	e.variant = s
	return s
}

// A type with no variants has no values, so an enum without a variant can
// only come from a broken encoder.
func (e *Enum) finish() {
	if e.variant == nil {
		panic("wire: enum finished without a variant")
	}
	e.variant.Finish()
}
